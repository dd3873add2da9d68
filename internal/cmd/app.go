package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/runger/ghexplorer/internal/config"
	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/logging"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
	"github.com/runger/ghexplorer/internal/telemetry"
)

// Persistent flags shared by every command.
var (
	flagConfig   string
	flagProvider string
	flagFixture  string
	flagNoCache  bool
)

var errProviderUnavailable = errors.New("provider not available")

// app is everything a command needs to run an explorer: the resolved
// configuration, the log file, the chosen provider and the telemetry sink.
type app struct {
	cfg        *config.Config
	paths      *config.Paths
	configPath string
	logger     *slog.Logger
	provider   provider.Provider
	reporter   telemetry.Reporter
	closers    []io.Closer
}

// loadConfig reads the config file named by --config (or the default
// location) and applies the provider flags on top.
func loadConfig() (*config.Config, string, error) {
	paths := config.DefaultPaths()
	path := flagConfig
	if path == "" {
		path = os.Getenv("GHX_CONFIG")
	}
	if path == "" {
		path = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config: %w", err)
	}

	if flagFixture != "" {
		cfg.Provider.FixturePath = flagFixture
		if flagProvider == "" {
			cfg.Provider.Name = "fixture"
		}
	}
	if flagProvider != "" {
		cfg.Provider.Name = flagProvider
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, path, nil
}

// openApp resolves configuration and opens the log, the provider and the
// telemetry sink. The caller must Close the result.
func openApp() (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, paths: config.DefaultPaths(), configPath: path}

	logger, closer, err := logging.OpenFile(a.paths.LogFileFor(cfg), cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sWarning:%s logging disabled: %v\n", colorYellow, colorReset, err)
		logger = logging.Discard()
	} else {
		a.closers = append(a.closers, closer)
	}
	a.logger = logger

	p, err := a.openProvider()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provider = p

	reporter, err := a.openReporter()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.reporter = reporter

	logging.LogStartup(logger, Version, p.Name(), path)
	return a, nil
}

func (a *app) openProvider() (provider.Provider, error) {
	cfg := a.cfg
	reg := provider.NewRegistry(provider.NewGitHub(provider.GitHubConfig{
		Host:    cfg.GitHub.Host,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.SearchTimeout(),
		Logger:  a.logger,
	}))
	if cfg.Provider.FixturePath != "" {
		fx, err := provider.LoadFixture(cfg.Provider.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		reg.Register(fx)
	}
	reg.SetPreferred(cfg.Provider.Name)

	all := reg.ListAll()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !all[name] {
			logging.LogProviderUnavailable(a.logger, name, errProviderUnavailable)
		}
	}

	p, err := reg.GetBest()
	if err != nil {
		if cfg.Provider.Name != "fixture" {
			return nil, fmt.Errorf("%w (set GH_TOKEN or run 'gh auth login')", err)
		}
		return nil, err
	}
	a.logger.Info("provider selected", "provider", p.Name(), "preferred", reg.Preferred())

	if cfg.Cache.Enabled {
		p = provider.NewCached(p, provider.CacheConfig{
			TTL:      cfg.CacheTTL(),
			Capacity: cfg.Cache.Capacity,
			Logger:   a.logger,
		})
	}
	return p, nil
}

func (a *app) openReporter() (telemetry.Reporter, error) {
	switch a.cfg.Telemetry.Sink {
	case "journal":
		j, err := telemetry.OpenJournal(telemetry.JournalConfig{
			Path:   a.paths.JournalFileFor(a.cfg),
			Logger: a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, j)
		return telemetry.NewRedacting(j), nil
	default:
		return telemetry.NewRedacting(telemetry.NewLogReporter(a.logger)), nil
	}
}

// engineConfig maps the configuration onto an explorer.Config.
func (a *app) engineConfig() explorer.Config {
	cfg := a.cfg
	return explorer.Config{
		Provider:       a.provider,
		Store:          store.New(cfg.Listing.PageSize),
		Debounce:       cfg.SearchDebounce(),
		SearchTimeout:  cfg.SearchTimeout(),
		SearchLimit:    cfg.Search.MaxResults,
		ListingTimeout: cfg.ListingTimeout(),
		PageSize:       cfg.Listing.PageSize,
		AutoRetry: &retry.Auto{
			Retries: cfg.Listing.AutoRetries,
			Delay:   cfg.ListingRetryDelay(),
		},
		RetryLimit:        cfg.Search.RetryLimit,
		ListingRetryLimit: cfg.Listing.RetryLimit,
		Reporter:          a.reporter,
		Logger:            a.logger,
	}
}

// Close releases the log file and the journal, newest first.
func (a *app) Close() error {
	if a.logger != nil {
		logging.LogShutdown(a.logger, "command finished")
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

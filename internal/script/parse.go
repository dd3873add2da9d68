// Package script drives an explorer session from a line-oriented list of
// intents, one per line, tokenized with shell quoting rules:
//
//	type oct          # feed input text, debounced
//	search "octo cat" # type, then wait for the search to settle
//	select 1          # select by 1-based result index or by login
//	more              # request the next page
//	retry query       # or: retry selection
//	wait              # wait until nothing is pending
//	show              # print the current state
//	sleep 250         # pause for N milliseconds
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Op is one script verb.
type Op string

const (
	OpType   Op = "type"
	OpSearch Op = "search"
	OpSelect Op = "select"
	OpMore   Op = "more"
	OpRetry  Op = "retry"
	OpWait   Op = "wait"
	OpShow   Op = "show"
	OpSleep  Op = "sleep"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("syntax error")

// Step is one parsed line.
type Step struct {
	Line int
	Op   Op
	Arg  string
}

func (s Step) String() string {
	if s.Arg == "" {
		return string(s.Op)
	}
	return string(s.Op) + " " + strconv.Quote(s.Arg)
}

// Parse reads a whole script. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		step, ok, err := ParseLine(n, sc.Text())
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append(steps, step)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return steps, nil
}

// ParseLine parses one line. ok is false for blank lines and comments.
func ParseLine(n int, line string) (step Step, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Step{}, false, nil
	}

	tokens, err := shlex.Split(trimmed)
	if err != nil {
		return Step{}, false, fmt.Errorf("%w: line %d: %v", ErrSyntax, n, err)
	}
	if len(tokens) == 0 {
		return Step{}, false, nil
	}

	op := Op(strings.ToLower(tokens[0]))
	args := tokens[1:]
	step = Step{Line: n, Op: op}

	switch op {
	case OpType:
		// An empty type clears the query, so no argument is allowed.
		step.Arg = strings.Join(args, " ")
	case OpSearch:
		if len(args) == 0 {
			return Step{}, false, fmt.Errorf("%w: line %d: search needs a query", ErrSyntax, n)
		}
		step.Arg = strings.Join(args, " ")
	case OpSelect:
		if len(args) != 1 {
			return Step{}, false, fmt.Errorf("%w: line %d: select needs one index or login", ErrSyntax, n)
		}
		step.Arg = args[0]
	case OpRetry:
		if len(args) != 1 || (args[0] != "query" && args[0] != "selection") {
			return Step{}, false, fmt.Errorf("%w: line %d: retry needs 'query' or 'selection'", ErrSyntax, n)
		}
		step.Arg = args[0]
	case OpSleep:
		if len(args) != 1 {
			return Step{}, false, fmt.Errorf("%w: line %d: sleep needs milliseconds", ErrSyntax, n)
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil || ms < 0 {
			return Step{}, false, fmt.Errorf("%w: line %d: invalid sleep duration %q", ErrSyntax, n, args[0])
		}
		step.Arg = args[0]
	case OpMore, OpWait, OpShow:
		if len(args) != 0 {
			return Step{}, false, fmt.Errorf("%w: line %d: %s takes no arguments", ErrSyntax, n, op)
		}
	default:
		return Step{}, false, fmt.Errorf("%w: line %d: unknown command %q", ErrSyntax, n, tokens[0])
	}

	return step, true, nil
}

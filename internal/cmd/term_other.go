//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package cmd

// getTermWidthIoctl returns 0 where no ioctl is wired; width detection falls back to $COLUMNS.
func getTermWidthIoctl() int {
	return 0
}

// checkTTY is a no-op where no ioctl is wired; the console is assumed.
func checkTTY() error {
	return nil
}

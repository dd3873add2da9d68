//go:build linux

package cmd

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TCGETS

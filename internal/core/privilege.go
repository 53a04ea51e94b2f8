package core

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrNotRoot is returned by RequireRoot for unprivileged callers.
var ErrNotRoot = errors.New("satellite-reset must be run as root")

// IsRoot reports whether the effective user is root.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// RequireRoot returns ErrNotRoot unless running with euid 0.
func RequireRoot() error {
	if !IsRoot() {
		return ErrNotRoot
	}
	return nil
}

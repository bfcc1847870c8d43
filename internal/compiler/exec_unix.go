//go:build unix

package compiler

import (
	"os"

	"golang.org/x/sys/unix"
)

// executable follows symlinks, which is how Homebrew links versioned
// compilers into its bin directory.
func executable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

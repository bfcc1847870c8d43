// Package compiler picks the Fortran compiler handed to the external build.
package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/irbem/nativebuild/pkgs/gnu"
)

// Default is the compiler name used when probing finds nothing.
const Default = "gfortran"

// Prober lists the commands available to the build.
type Prober interface {
	// Commands returns the names of all executables whose name starts
	// with prefix. Order and duplicates are unspecified.
	Commands(prefix string) []string
}

// Select returns the compiler to pass to the build for goos.
//
// On darwin the Makefile default does not work with Homebrew installs,
// which only ship versioned names (gfortran-13, ...). Every command
// starting with pattern is listed and the highest in version order wins;
// fallback is used when there is none. Other platforms return "", which
// leaves the choice to the build system.
func Select(goos string, p Prober, pattern, fallback string) string {
	if goos != "darwin" {
		return ""
	}
	if pattern == "" {
		pattern = Default
	}
	if fallback == "" {
		fallback = Default
	}
	if p == nil {
		return fallback
	}
	if best := gnu.Max(p.Commands(pattern)); best != "" {
		return best
	}
	return fallback
}

// PathProber finds commands in the directories of a PATH-style list.
type PathProber struct {
	Path string // list separated by os.PathListSeparator
}

// NewPathProber returns a prober over the current PATH.
func NewPathProber() *PathProber {
	return &PathProber{Path: os.Getenv("PATH")}
}

func (p *PathProber) Commands(prefix string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range filepath.SplitList(p.Path) {
		if dir == "" {
			dir = "."
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasPrefix(name, prefix) || seen[name] {
				continue
			}
			if e.IsDir() || !executable(filepath.Join(dir, name)) {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

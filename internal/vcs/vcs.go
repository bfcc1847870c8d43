package vcs

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/irbem/nativebuild/internal/command"
)

// VCS defines the version control operations the build needs.
type VCS interface {
	// Clone creates dir as a fresh checkout of remote.
	// ref selects a branch or tag; empty means the remote's default branch.
	// dir must not exist yet.
	Clone(ctx context.Context, remote, ref, dir string) error

	// Head returns the commit hash checked out in dir.
	Head(ctx context.Context, dir string) (string, error)
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git    string
	depth  int
	stdout io.Writer
	stderr io.Writer
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		if path != "" {
			g.git = path
		}
	}
}

// WithDepth makes clones shallow. Zero or less clones the full history.
func WithDepth(depth int) GitOption {
	return func(g *gitVCS) {
		g.depth = depth
	}
}

// WithOutput sets where git's progress output goes. Nil discards it.
func WithOutput(stdout, stderr io.Writer) GitOption {
	return func(g *gitVCS) {
		g.stdout = stdout
		g.stderr = stderr
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) Clone(ctx context.Context, remote, ref, dir string) error {
	return command.Run(ctx, g.options(""), g.git, cloneArgs(remote, ref, dir, g.depth)...)
}

func (g *gitVCS) Head(ctx context.Context, dir string) (string, error) {
	out, err := command.Output(ctx, command.Options{Dir: dir}, g.git, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (g *gitVCS) options(dir string) command.Options {
	return command.Options{Dir: dir, Stdout: g.stdout, Stderr: g.stderr}
}

func cloneArgs(remote, ref, dir string, depth int) []string {
	args := []string{"clone"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	return append(args, remote, dir)
}

// Package buildsys describes the lifecycle shared by native build helpers.
package buildsys

import "context"

// BuildSystem captures shared capabilities of build helpers (make, etc).
// It keeps the common lifecycle and env setup; implementations add their own extras.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)

	// Environment helpers. Env sets a process environment variable for
	// every step, Var passes a build-system variable override (FC=...).
	Env(key, val string)
	Var(key, val string)

	// Lifecycle.
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}

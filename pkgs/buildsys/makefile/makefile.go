// Package makefile drives projects built with a plain Makefile.
package makefile

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/irbem/nativebuild/internal/command"
	"github.com/irbem/nativebuild/pkgs/buildsys"
)

// Make wraps the build and install steps of a make-based project.
type Make struct {
	SourceDir string

	exe    string
	vars   []string // KEY=VALUE, in the order they were set
	env    map[string]string
	stdout io.Writer
	stderr io.Writer
}

var _ buildsys.BuildSystem = (*Make)(nil)

// New creates a make helper for the project in sourceDir. An empty exe
// means "make" from PATH.
func New(sourceDir, exe string) *Make {
	if exe == "" {
		exe = "make"
	}
	return &Make{
		SourceDir: sourceDir,
		exe:       exe,
		env:       map[string]string{},
	}
}

func (m *Make) Source(dir string) {
	m.SourceDir = dir
}

// Output sets where make writes its output. Nil discards it.
func (m *Make) Output(stdout, stderr io.Writer) {
	m.stdout = stdout
	m.stderr = stderr
}

// Env sets an environment variable for every make invocation. Unlike
// variables passed with Var, the Makefile may still override it.
func (m *Make) Env(key, value string) {
	if m.env == nil {
		m.env = map[string]string{}
	}
	m.env[key] = value
}

// Var passes KEY=VALUE on the make command line, overriding any
// assignment inside the Makefile. Setting a key again replaces it in place.
func (m *Make) Var(key, value string) {
	kv := key + "=" + value
	for i, v := range m.vars {
		if k, _, _ := strings.Cut(v, "="); k == key {
			m.vars[i] = kv
			return
		}
	}
	m.vars = append(m.vars, kv)
}

// Vars returns the variable overrides in command-line order.
func (m *Make) Vars() []string {
	return append([]string(nil), m.vars...)
}

// Build runs make with the given targets; none means the default goal.
func (m *Make) Build(ctx context.Context, targets ...string) error {
	return m.run(ctx, targets)
}

// Install runs "make install", or make with the given targets instead.
func (m *Make) Install(ctx context.Context, targets ...string) error {
	if len(targets) == 0 {
		targets = []string{"install"}
	}
	return m.run(ctx, targets)
}

// OutputDir returns the source dir; this build system installs in place.
func (m *Make) OutputDir() string {
	return m.SourceDir
}

// Args returns the argv make would be run with for targets.
func (m *Make) Args(targets ...string) []string {
	args := append([]string{m.exe}, m.vars...)
	return append(args, targets...)
}

func (m *Make) run(ctx context.Context, targets []string) error {
	args := m.Args(targets...)
	opts := command.Options{
		Dir:    m.SourceDir,
		Stdout: m.stdout,
		Stderr: m.stderr,
	}
	if len(m.env) > 0 {
		opts.Env = mergeEnv(os.Environ(), m.env)
	}
	return command.Run(ctx, opts, args[0], args[1:]...)
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

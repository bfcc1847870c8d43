package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/irbem/nativebuild/internal/command"
	"github.com/irbem/nativebuild/pkgs/buildsys"
)

// mockVCS implements vcs.VCS for testing.
type mockVCS struct {
	cloneErr error
	cloned   []string // remote@ref per Clone call
}

func (m *mockVCS) Clone(ctx context.Context, remote, ref, dir string) error {
	m.cloned = append(m.cloned, remote+"@"+ref)
	if m.cloneErr != nil {
		return m.cloneErr
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "Makefile"), []byte("all:\n"), 0o644)
}

func (m *mockVCS) Head(ctx context.Context, dir string) (string, error) {
	return "0123456789abcdef0123456789abcdef01234567", nil
}

// mockMake implements buildsys.BuildSystem for testing. Install writes
// the artifact into the source dir unless noArtifact is set.
type mockMake struct {
	dir        string
	artifact   string
	vars       []string
	env        []string
	calls      []string
	failOn     string // "build" or "install"
	noArtifact bool
}

var _ buildsys.BuildSystem = (*mockMake)(nil)

func (m *mockMake) Source(dir string)   { m.dir = dir }
func (m *mockMake) Env(key, val string) { m.env = append(m.env, key+"="+val) }
func (m *mockMake) Var(key, val string) { m.vars = append(m.vars, key+"="+val) }
func (m *mockMake) OutputDir() string   { return m.dir }

func (m *mockMake) step(name string, targets []string) error {
	args := append([]string{"make"}, m.vars...)
	args = append(args, targets...)
	m.calls = append(m.calls, name+": "+strings.Join(args, " "))
	if m.failOn == name {
		return &command.Error{Args: args, Dir: m.dir, ExitCode: 2}
	}
	return nil
}

func (m *mockMake) Build(ctx context.Context, targets ...string) error {
	return m.step("build", targets)
}

func (m *mockMake) Install(ctx context.Context, targets ...string) error {
	if err := m.step("install", targets); err != nil {
		return err
	}
	if m.noArtifact {
		return nil
	}
	return os.WriteFile(filepath.Join(m.dir, m.artifact), []byte("\x7fELF"), 0o755)
}

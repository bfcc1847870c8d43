package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irbem/nativebuild/internal/compiler"
	"github.com/irbem/nativebuild/internal/logger"
	"github.com/irbem/nativebuild/internal/vcs"
	"github.com/irbem/nativebuild/pkgs/buildsys"
	"github.com/irbem/nativebuild/pkgs/buildsys/makefile"
)

// Options configures a Builder.
type Options struct {
	Name    string // project name used in progress messages
	Remote  string // repository to clone
	Ref     string // branch or tag, empty for the default branch
	TempDir string // temporary checkout, removed before and after the build

	// Artifact is the file name of the shared library produced at the top
	// of the checkout. It is copied into DestDir.
	Artifact string
	DestDir  string

	KeepTemp bool // skip the final cleanup, for debugging failed builds

	GOOS string // defaults to runtime.GOOS

	// Compiler, if set, is passed to the build on every platform.
	// Otherwise it is probed on darwin and left to the Makefile elsewhere.
	Compiler         string
	CompilerPattern  string
	CompilerFallback string
	DarwinOS         string // OS= value passed on darwin

	BuildTargets   []string
	InstallTargets []string

	// Env holds KEY=VALUE pairs added to the environment of make.
	Env []string

	VCS    vcs.VCS
	Prober compiler.Prober

	// NewBuildSystem returns the build system driving the checkout in dir.
	// Defaults to make.
	NewBuildSystem func(dir string) buildsys.BuildSystem

	Log logrus.FieldLogger
}

// Builder fetches, compiles and installs the external library.
type Builder struct {
	opts Options
}

// Result describes a successful build.
type Result struct {
	Artifact string // path of the copied shared library
	Compiler string // compiler passed to the build, "" for the build default
	Commit   string // checked out commit, "" if it could not be read
	Duration time.Duration
}

// NewBuilder checks opts and fills in defaults.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Remote == "" {
		return nil, errors.New("build: remote is empty")
	}
	if opts.TempDir == "" {
		return nil, errors.New("build: temp dir is empty")
	}
	if opts.Artifact == "" || filepath.Base(opts.Artifact) != opts.Artifact {
		return nil, fmt.Errorf("build: invalid artifact name %q", opts.Artifact)
	}
	for _, kv := range opts.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			return nil, fmt.Errorf("build: invalid environment entry %q", kv)
		}
	}
	if opts.Name == "" {
		opts.Name = "external"
	}
	if opts.DestDir == "" {
		opts.DestDir = "."
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.DarwinOS == "" {
		opts.DarwinOS = "osx64"
	}
	if opts.VCS == nil {
		opts.VCS = vcs.NewGitVCS()
	}
	if opts.Prober == nil {
		opts.Prober = compiler.NewPathProber()
	}
	if opts.NewBuildSystem == nil {
		opts.NewBuildSystem = func(dir string) buildsys.BuildSystem {
			return makefile.New(dir, "")
		}
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	return &Builder{opts: opts}, nil
}

// Plan is what will be passed to the build system on this platform.
type Plan struct {
	Compiler       string
	Vars           [][2]string // in command-line order
	BuildTargets   []string
	InstallTargets []string
}

// Plan resolves the compiler and make variables without running anything.
func (b *Builder) Plan() Plan {
	o := b.opts
	fc := o.Compiler
	if fc == "" {
		fc = compiler.Select(o.GOOS, o.Prober, o.CompilerPattern, o.CompilerFallback)
	}

	p := Plan{
		Compiler:       fc,
		BuildTargets:   o.BuildTargets,
		InstallTargets: o.InstallTargets,
	}
	if o.GOOS == "darwin" {
		p.Vars = append(p.Vars, [2]string{"OS", o.DarwinOS})
	}
	if fc != "" {
		p.Vars = append(p.Vars, [2]string{"FC", fc}, [2]string{"LD", fc})
	}
	return p
}

// Run performs one build. The temporary checkout is gone when Run
// returns, whatever the outcome, unless KeepTemp is set.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	o := b.opts
	log := o.Log
	start := time.Now()

	logger.Banner(log, fmt.Sprintf("Building %s Fortran library...", o.Name))

	if _, err := os.Stat(o.TempDir); err == nil {
		log.WithField("dir", o.TempDir).Infof("Removing leftover %s build files...", o.Name)
		Clean(o.TempDir)
	}
	if !o.KeepTemp {
		defer func() {
			log.WithField("dir", o.TempDir).Infof("Cleaning up %s build files...", o.Name)
			Clean(o.TempDir)
		}()
	}

	log.WithField("remote", o.Remote).Infof("Initializing %s ...", o.Name)
	if err := o.VCS.Clone(ctx, o.Remote, o.Ref, o.TempDir); err != nil {
		return nil, err
	}
	res := &Result{}
	if commit, err := o.VCS.Head(ctx, o.TempDir); err == nil {
		res.Commit = commit
		log.WithField("commit", commit).Debug("Checked out")
	} else {
		log.WithError(err).Warn("Cannot read checked out commit")
	}

	plan := b.Plan()
	res.Compiler = plan.Compiler
	if plan.Compiler != "" {
		log.WithField("compiler", plan.Compiler).Info("Selected Fortran compiler")
	}

	log.Infof("Installing %s library...", o.Name)
	bs := o.NewBuildSystem(o.TempDir)
	for _, kv := range o.Env {
		k, v, _ := strings.Cut(kv, "=")
		bs.Env(k, v)
	}
	for _, kv := range plan.Vars {
		bs.Var(kv[0], kv[1])
	}
	if err := bs.Build(ctx, plan.BuildTargets...); err != nil {
		return nil, err
	}
	if err := bs.Install(ctx, plan.InstallTargets...); err != nil {
		return nil, err
	}

	src := filepath.Join(bs.OutputDir(), o.Artifact)
	dst := filepath.Join(o.DestDir, o.Artifact)
	if err := copyFile(src, dst); err != nil {
		return nil, fmt.Errorf("copy %s: %w", o.Artifact, err)
	}
	res.Artifact = dst
	res.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"artifact": dst,
		"elapsed":  res.Duration.Round(time.Millisecond),
	}).Info("✓ Library installed")
	return res, nil
}

// Clean removes dir recursively, ignoring errors. It reports whether dir
// existed beforehand.
func Clean(dir string) bool {
	_, err := os.Lstat(dir)
	os.RemoveAll(dir)
	return err == nil
}

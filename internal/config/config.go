// Package config loads the build settings from flags, environment,
// an optional nativebuild.yaml and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. NATIVEBUILD_REPO_URL.
	EnvPrefix = "NATIVEBUILD"

	// FileName is the config file looked up in the package root.
	FileName = "nativebuild"

	// FileKey names the setting holding an explicit config file path.
	FileKey = "config"
)

// Config holds everything a build run needs.
type Config struct {
	Root           string   `mapstructure:"root"`
	Repo           Repo     `mapstructure:"repo"`
	TempDir        string   `mapstructure:"temp_dir"`
	Artifact       string   `mapstructure:"artifact"`
	KeepTemp       bool     `mapstructure:"keep_temp"`
	Git            string   `mapstructure:"git"`
	Make           string   `mapstructure:"make"`
	MakeEnv        []string `mapstructure:"make_env"`
	Compiler       Compiler `mapstructure:"compiler"`
	Darwin         Darwin   `mapstructure:"darwin"`
	BuildTargets   []string `mapstructure:"build_targets"`
	InstallTargets []string `mapstructure:"install_targets"`
	Requirements   string   `mapstructure:"requirements"`
	Metadata       Metadata `mapstructure:"metadata"`
	Log            Log      `mapstructure:"log"`
	Verbose        bool     `mapstructure:"verbose"`
}

// Repo is the external source to build.
type Repo struct {
	URL   string `mapstructure:"url"`
	Ref   string `mapstructure:"ref"`
	Depth int    `mapstructure:"depth"`
}

// Compiler controls Fortran compiler selection. A non-empty Name skips
// probing and is passed to the build on every platform.
type Compiler struct {
	Name     string `mapstructure:"name"`
	Pattern  string `mapstructure:"pattern"`
	Fallback string `mapstructure:"fallback"`
}

// Darwin holds the extra make variables used on macOS.
type Darwin struct {
	OS string `mapstructure:"os"`
}

// Metadata describes the wrapping package for downstream packaging tools.
type Metadata struct {
	Name           string   `mapstructure:"name"`
	Description    string   `mapstructure:"description"`
	Author         string   `mapstructure:"author"`
	AuthorEmail    string   `mapstructure:"author_email"`
	URL            string   `mapstructure:"url"`
	Packages       []string `mapstructure:"packages"`
	PythonRequires string   `mapstructure:"python_requires"`
	Version        string   `mapstructure:"version"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers the default of every key on v. Target lists
// depend on goos because the darwin build needs explicit targets.
func SetDefaults(v *viper.Viper, goos string) {
	v.SetDefault("root", ".")
	v.SetDefault("repo.url", "https://github.com/PRBEM/IRBEM.git")
	v.SetDefault("repo.ref", "")
	v.SetDefault("repo.depth", 0)
	v.SetDefault("temp_dir", ".irbem-temp")
	v.SetDefault("artifact", "libirbem.so")
	v.SetDefault("keep_temp", false)
	v.SetDefault("git", "git")
	v.SetDefault("make", "make")
	v.SetDefault("make_env", []string{})
	v.SetDefault("compiler.name", "")
	v.SetDefault("compiler.pattern", "gfortran")
	v.SetDefault("compiler.fallback", "gfortran")
	v.SetDefault("darwin.os", "osx64")
	if goos == "darwin" {
		v.SetDefault("build_targets", []string{"all"})
		v.SetDefault("install_targets", []string{"install"})
	} else {
		v.SetDefault("build_targets", []string{})
		v.SetDefault("install_targets", []string{"install", "."})
	}
	v.SetDefault("requirements", "requirements.txt")
	v.SetDefault("metadata.name", "IRBEM")
	v.SetDefault("metadata.description", "Python wrapper for IRBEM")
	v.SetDefault("metadata.author", "Mykhaylo Shumko")
	v.SetDefault("metadata.author_email", "msshumko@gmail.com")
	v.SetDefault("metadata.url", "https://sourceforge.net/projects/irbem/")
	v.SetDefault("metadata.packages", []string{"IRBEM"})
	v.SetDefault("metadata.python_requires", ">=3.11")
	v.SetDefault("metadata.version", "0.1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("verbose", true)
}

// Load resolves the configuration held by v. Flags must already be bound.
// A missing nativebuild.yaml is not an error; an explicit --config that
// cannot be read is.
func Load(v *viper.Viper, goos string) (*Config, error) {
	SetDefaults(v, goos)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString(FileKey); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(v.GetString("root"))
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make the build touch files
// outside the package root.
func (c *Config) Validate() error {
	if c.Repo.URL == "" {
		return errors.New("config: repo.url is empty")
	}
	if c.Artifact == "" {
		return errors.New("config: artifact is empty")
	}
	if filepath.Base(c.Artifact) != c.Artifact {
		return fmt.Errorf("config: artifact %q must be a file name", c.Artifact)
	}
	if c.TempDir == "" {
		return errors.New("config: temp_dir is empty")
	}
	rel, err := filepath.Rel(c.RootDir(), c.TempPath())
	if err != nil {
		return fmt.Errorf("config: temp_dir %q: %w", c.TempDir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("config: temp_dir %q must be inside the package root", c.TempDir)
	}
	for _, kv := range c.MakeEnv {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			return fmt.Errorf("config: make_env entry %q must have the form KEY=VALUE", kv)
		}
	}
	if c.Repo.Depth < 0 {
		return fmt.Errorf("config: repo.depth %d is negative", c.Repo.Depth)
	}
	return nil
}

// RootDir returns the package root as an absolute path when possible.
func (c *Config) RootDir() string {
	root := c.Root
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}

// TempPath returns the temporary checkout directory.
func (c *Config) TempPath() string {
	if filepath.IsAbs(c.TempDir) {
		return filepath.Clean(c.TempDir)
	}
	return filepath.Join(c.RootDir(), c.TempDir)
}

// RequirementsPath returns the requirements file, relative to the root
// unless absolute.
func (c *Config) RequirementsPath() string {
	if filepath.IsAbs(c.Requirements) {
		return c.Requirements
	}
	return filepath.Join(c.RootDir(), c.Requirements)
}

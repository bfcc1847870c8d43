package internal

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irbem/nativebuild/internal/build"
	"github.com/irbem/nativebuild/internal/compiler"
	"github.com/irbem/nativebuild/internal/config"
	"github.com/irbem/nativebuild/internal/logger"
	"github.com/irbem/nativebuild/internal/vcs"
	"github.com/irbem/nativebuild/pkgs/buildsys"
	"github.com/irbem/nativebuild/pkgs/buildsys/makefile"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch, compile and install the shared library",
	Long: `Build clones the external sources into a temporary directory, runs their
Makefile build and install targets, copies the shared library into the
package root and removes the temporary directory.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	flags := buildCmd.Flags()
	flags.Bool("keep-temp", false, "keep the temporary checkout after the build")
	bindFlag(flags.Lookup("keep-temp"), "keep_temp")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.Log.Level).WithField("build_id", uuid.NewString())

	builder, err := build.NewBuilder(builderOptions(cfg, log, os.Stdout, os.Stderr))
	if err != nil {
		return err
	}
	res, err := builder.Run(cmd.Context())
	if err != nil {
		return err
	}
	log.WithField("commit", res.Commit).Debug("Build finished")
	return nil
}

// builderOptions maps cfg onto build options. Child process output goes
// to stdout and stderr unless cfg.Verbose is off.
func builderOptions(cfg *config.Config, log logrus.FieldLogger, stdout, stderr io.Writer) build.Options {
	if !cfg.Verbose {
		stdout, stderr = nil, nil
	}
	return build.Options{
		Name:             cfg.Metadata.Name,
		Remote:           cfg.Repo.URL,
		Ref:              cfg.Repo.Ref,
		TempDir:          cfg.TempPath(),
		Artifact:         cfg.Artifact,
		DestDir:          cfg.RootDir(),
		KeepTemp:         cfg.KeepTemp,
		Compiler:         cfg.Compiler.Name,
		CompilerPattern:  cfg.Compiler.Pattern,
		CompilerFallback: cfg.Compiler.Fallback,
		DarwinOS:         cfg.Darwin.OS,
		BuildTargets:     cfg.BuildTargets,
		InstallTargets:   cfg.InstallTargets,
		Env:              cfg.MakeEnv,
		VCS: vcs.NewGitVCS(
			vcs.WithGitPath(cfg.Git),
			vcs.WithDepth(cfg.Repo.Depth),
			vcs.WithOutput(stdout, stderr),
		),
		Prober: compiler.NewPathProber(),
		NewBuildSystem: func(dir string) buildsys.BuildSystem {
			mk := makefile.New(dir, cfg.Make)
			mk.Output(stdout, stderr)
			return mk
		},
		Log: log,
	}
}

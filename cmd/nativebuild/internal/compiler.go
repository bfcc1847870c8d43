package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/irbem/nativebuild/internal/build"
	"github.com/irbem/nativebuild/internal/command"
	"github.com/irbem/nativebuild/internal/logger"
	"github.com/irbem/nativebuild/pkgs/buildsys/makefile"
)

var compilerCmd = &cobra.Command{
	Use:   "compiler",
	Short: "Show the compiler and make commands a build would use",
	Args:  cobra.NoArgs,
	RunE:  runCompiler,
}

func init() {
	rootCmd.AddCommand(compilerCmd)
}

func runCompiler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.Log.Level)
	builder, err := build.NewBuilder(builderOptions(cfg, log, nil, nil))
	if err != nil {
		return err
	}
	plan := builder.Plan()

	out := cmd.OutOrStdout()
	if plan.Compiler == "" {
		fmt.Fprintln(out, "compiler: (build system default)")
	} else {
		fmt.Fprintf(out, "compiler: %s\n", plan.Compiler)
	}

	mk := makefile.New(cfg.TempPath(), cfg.Make)
	for _, kv := range plan.Vars {
		mk.Var(kv[0], kv[1])
	}
	install := plan.InstallTargets
	if len(install) == 0 {
		install = []string{"install"}
	}
	fmt.Fprintf(out, "build:    %s\n", command.Line(mk.Args(plan.BuildTargets...)))
	fmt.Fprintf(out, "install:  %s\n", command.Line(mk.Args(install...)))
	return nil
}

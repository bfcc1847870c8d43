package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/irbem/nativebuild/internal/command"
	"github.com/irbem/nativebuild/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "nativebuild",
	Short: "nativebuild builds the IRBEM shared library for packaging",
	Long: `nativebuild fetches the IRBEM Fortran sources, compiles and installs them with
their own Makefile, and copies the resulting shared library into the package
root. Run it before packaging the wrapper.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: <root>/nativebuild.yaml)")
	flags.String("root", ".", "package root directory")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolP("quiet", "q", false, "hide the output of git and make")

	// Shared by every command so compiler and clean see the same
	// settings a build would use.
	flags.String("repo", "", "repository to clone")
	flags.String("ref", "", "branch or tag to build (default: remote default branch)")
	flags.Int("depth", 0, "shallow clone depth, 0 for the full history")
	flags.String("temp-dir", "", "temporary checkout directory, relative to the root")
	flags.String("artifact", "", "shared library file name produced by the build")
	flags.String("compiler", "", "Fortran compiler to use instead of probing")
	flags.String("make", "", "make executable")
	flags.String("git", "", "git executable")

	bindFlag(flags.Lookup("config"), config.FileKey)
	bindFlag(flags.Lookup("root"), "root")
	bindFlag(flags.Lookup("log-level"), "log.level")
	bindFlag(flags.Lookup("repo"), "repo.url")
	bindFlag(flags.Lookup("ref"), "repo.ref")
	bindFlag(flags.Lookup("depth"), "repo.depth")
	bindFlag(flags.Lookup("temp-dir"), "temp_dir")
	bindFlag(flags.Lookup("artifact"), "artifact")
	bindFlag(flags.Lookup("compiler"), "compiler.name")
	bindFlag(flags.Lookup("make"), "make")
	bindFlag(flags.Lookup("git"), "git")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report(os.Stderr, err, quiet())
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	if quiet() {
		cfg.Verbose = false
	}
	return cfg, nil
}

func quiet() bool {
	q, _ := rootCmd.PersistentFlags().GetBool("quiet")
	return q
}

// report prints the diagnostic for a failed command. Failing external
// commands show their exit status and command line; when their output was
// hidden, the tail of stderr is shown too.
func report(w io.Writer, err error, showStderr bool) {
	red := color.New(color.FgRed, color.Bold)

	var cerr *command.Error
	if errors.As(err, &cerr) {
		if cerr.ExitCode >= 0 {
			red.Fprintf(w, "✗ Build failed with return code %d\n", cerr.ExitCode)
		} else {
			red.Fprintf(w, "✗ Build failed: %v\n", cerr.Err)
		}
		fmt.Fprintf(w, "Command: %s\n", command.Line(cerr.Args))
		if showStderr && cerr.Stderr != "" {
			fmt.Fprintf(w, "%s\n", cerr.Stderr)
		}
		return
	}
	red.Fprintf(w, "✗ Unexpected error: %v\n", err)
}

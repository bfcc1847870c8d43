package internal

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/irbem/nativebuild/internal/build"
	"github.com/irbem/nativebuild/internal/logger"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove a leftover temporary checkout",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.Log.Level).WithField("dir", cfg.TempPath())
	if build.Clean(cfg.TempPath()) {
		log.Infof("Cleaning up %s build files...", cfg.Metadata.Name)
	} else {
		log.Debug("Nothing to clean")
	}
	return nil
}

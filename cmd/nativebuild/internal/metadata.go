package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irbem/nativebuild/internal/metadata"
)

var (
	metadataFormat  string
	metadataRuntime string
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Print the package metadata for packaging tools",
	Long: `Metadata prints the wrapper package's name, version, authorship, runtime
requirement and dependency list (read from the requirements file).`,
	Args: cobra.NoArgs,
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().StringVarP(&metadataFormat, "format", "f", "yaml", "output format (yaml or json)")
	metadataCmd.Flags().StringVar(&metadataRuntime, "runtime", "", "fail unless this runtime version meets the requirement")
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pkg, err := metadata.Load(cfg)
	if err != nil {
		return err
	}
	if metadataRuntime != "" && pkg.PythonRequires != "" {
		ok, err := metadata.Satisfies(pkg.PythonRequires, metadataRuntime)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("runtime %s does not satisfy %s", metadataRuntime, pkg.PythonRequires)
		}
	}
	return pkg.Encode(cmd.OutOrStdout(), metadata.Format(metadataFormat))
}

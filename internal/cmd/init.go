package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomworks/loom/internal/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .loom directory and default config",
	Long: `Initialize the .loom directory with a default config.yaml in the
current directory.

Examples:
  loom init          # Initialize in current directory
  loom init --force  # Overwrite an existing config`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	loomDir := filepath.Join(cwd, config.ConfigDirName)
	cfgPath := filepath.Join(loomDir, config.ConfigFileName)

	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		fmt.Printf("Already initialized: %s (use --force to overwrite)\n", cfgPath)
		return nil
	}

	if err := config.Save(config.DefaultConfig(), loomDir); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", cfgPath)
	return nil
}

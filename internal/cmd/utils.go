package cmd

import (
	"os"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/store"
)

// loadConfig loads project config, honoring the global --config flag.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

// openStore opens the .loom database, creating the directory next to the
// config if none exists yet.
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	loomDir, err := config.FindConfigDir(cwd)
	if err != nil {
		// Not initialized yet: create .loom in the current directory.
		loomDir = config.ConfigDirName
	}
	return store.Open(loomDir)
}

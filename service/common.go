package service

import (
	"fmt"

	"postpanel/app/config"

	"github.com/spf13/cobra"
)

// options are the global flags shared by every command.
type options struct {
	envFile     string
	driver      string
	badgerPath  string
	databaseURL string
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file to load before the environment")
	flags.StringVar(&o.driver, "driver", "", "storage driver: badger, sqlite, postgres or mysql")
	flags.StringVar(&o.badgerPath, "badger-path", "", "badger data directory")
	flags.StringVar(&o.databaseURL, "database-url", "", "database URL for the SQL drivers")
}

// loadConfig reads .env and the environment, applies the flags that were set and
// validates the result.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(o.envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.DBDriver = o.driver
	}
	if flags.Changed("badger-path") {
		cfg.BadgerPath = o.badgerPath
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = o.databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package commands

import (
	"fmt"

	"github.com/koscakluka/ema-helper/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "ema-helper",
	Short: "Voice assistant backed by a wizard console",
	Long: `ema-helper - a floating voice assistant whose replies come from a
human wizard or assistant on the other end of a console session.

Configuration is read from ~/.ema-helper/config.yaml, a .env file and the
environment, in that order of increasing priority.

Examples:
  # Start a local wizard console
  ema-helper console --addr :8000

  # Run the assistant against it
  WIZARD_SERVER_URL=http://localhost:8000 ema-helper run
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ema-helper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before environment overrides")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves the effective configuration and validates it.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

// Package cmd wires the voicemedia CLI.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/voicemedia/go-voicemedia/internal/config"
	"github.com/voicemedia/go-voicemedia/internal/log"
)

var rootFlags struct {
	configPath string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "voicemedia",
	Short: "Voice-driven media search assistant",
	Long: `voicemedia turns spoken queries into media search results: it captures
an utterance, asks the agent backend, narrates the reply, and keeps the
displayed media list in sync with the agent's push channel.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig resolves the effective configuration and initializes
// logging.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if rootFlags.configPath != "" {
		loaded, err := config.Load(rootFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	level := cfg.Log.Level
	if rootFlags.logLevel != "" {
		level = rootFlags.logLevel
	}
	log.Init(level)
	return cfg, nil
}

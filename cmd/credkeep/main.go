package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/benaskins/credkeep/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:               "credkeep",
	Short:             "Store credentials in the macOS Keychain",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// setup loads the config file and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = loaded.WithDefaults()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("config loaded", "path", configPath, "service_prefix", cfg.ServicePrefix)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

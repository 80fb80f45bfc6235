package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/WindowShot/internal/config"
	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	configMgr *config.Manager
	rootCmd   = &cobra.Command{
		Use:   "windowshot",
		Short: "WindowShot - capture a single window as a size-bounded JPEG",
		Long: `WindowShot finds one window by application name or title, captures it
and compresses the image until it fits a byte budget.

Features:
  • Resolve windows by application name, then by title
  • Capture through X11 Composite or screen-region cropping
  • Adaptive JPEG compression (quality first, then resolution)
  • REST and websocket API for integration
  • Persistent configuration`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/windowshot/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("workers", 0, "maximum concurrent screenshot jobs (default is 4)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
}

// loadConfig reads the config file, applies flag overrides for this process
// only and configures logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			mgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			mgr.SetLogLevel(level)
		}
	}
	if viper.IsSet("workers") {
		if workers := viper.GetInt("workers"); workers > 0 {
			mgr.SetWorkers(workers)
		}
	}

	cfg := mgr.Get()
	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.WithComponent("cli").Debug().
		Str("path", mgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	configMgr = mgr
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	config     *Config
	stopLogs   = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Offline-first volleyball scouting with background sync",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
		}

		var err error
		config, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		stopLogs, err = setupLogging(config)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopLogs()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.AddCommand(serveCmd, syncCmd, statusCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("scout failed")
		os.Exit(1)
	}
}

// runtime holds the stores and services shared by every command
type runtime struct {
	services *Services
	cleanup  func()
}

func setupRuntime(ctx context.Context, clock clockwork.Clock) (*runtime, error) {
	store, err := setupLocalStore(ctx, config)
	if err != nil {
		return nil, err
	}

	rs, closeRemote, err := setupRemote(ctx, config, clock)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	services := setupServices(store, rs, setupProbe(config), config, clock)
	return &runtime{
		services: services,
		cleanup: func() {
			closeRemote()
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close local store")
			}
		},
	}, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/scout/go/internal/notify"
	"github.com/mcdev12/scout/go/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with periodic background sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clock := clockwork.NewRealClock()

		rt, err := setupRuntime(ctx, clock)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		hub := notify.NewHub(notify.DefaultHubConfig(), clock)
		rt.services.Orchestrator.Subscribe(hub.Notify)

		if config.NATS.URL != "" {
			natsConfig := notify.DefaultNATSConfig()
			natsConfig.URL = config.NATS.URL
			natsConfig.Subject = config.NATS.Subject
			observer, err := notify.NewNATSObserver(natsConfig, clock)
			if err != nil {
				return err
			}
			defer observer.Close()
			rt.services.Orchestrator.Subscribe(observer.Notify)
		}

		server := setupServer(config, rt.services, hub)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return rt.services.Trigger.Run(ctx) })
		g.Go(func() error { return hub.Run(ctx) })
		g.Go(func() error {
			log.Info().Str("addr", server.Addr).Msg("server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := setupRuntime(ctx, clockwork.NewRealClock())
		if err != nil {
			return err
		}
		defer rt.cleanup()

		res, err := rt.services.Trigger.SyncNow(ctx)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Println("Offline: nothing synced")
			return nil
		}
		fmt.Printf("Synced in %s: %d deleted, %d pushed, %d pulled, %d failed\n",
			res.Duration.Round(time.Millisecond), res.Deleted, res.Pushed, res.Pulled, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d records failed, they stay pending", res.Failed)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending sync work and the pull watermark",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := setupRuntime(ctx, clockwork.NewRealClock())
		if err != nil {
			return err
		}
		defer rt.cleanup()

		return printStatus(ctx, rt.services.Orchestrator)
	},
}

func printStatus(ctx context.Context, orch *syncer.Orchestrator) error {
	report, err := orch.Status(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

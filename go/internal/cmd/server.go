package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/scout/go/internal/notify"
	"github.com/mcdev12/scout/go/internal/syncer"
)

func setupServer(config *Config, services *Services, hub *notify.Hub) *http.Server {
	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           h2c.NewHandler(setupHandler(services, hub), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func setupHandler(services *Services, hub *notify.Hub) http.Handler {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerServices(mux, services)

	// Live "data changed" feed for UIs
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWS)
	}

	// Add health check endpoint
	setupHealthCheck(mux)

	// Wrap with CORS
	return c.Handler(mux)
}

func registerServices(mux *http.ServeMux, services *Services) {
	services.Teams.RegisterRoutes(mux)
	services.Players.RegisterRoutes(mux)
	services.Matches.RegisterRoutes(mux)
	syncer.NewService(syncer.NewApp(services.Trigger, services.Orchestrator)).RegisterRoutes(mux)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Warn().Err(err).Msg("failed to write health check response")
		}
	})
}

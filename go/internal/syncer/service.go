package syncer

import (
	"context"
	"net/http"

	"github.com/mcdev12/scout/go/internal/apiutil"
)

// SyncApp is what the HTTP surface needs from the sync engine
type SyncApp interface {
	SyncNow(ctx context.Context) (*Result, error)
	Status(ctx context.Context) (*StatusReport, error)
}

// Service exposes manual sync and status over JSON HTTP
type Service struct {
	app SyncApp
}

// NewService creates a new sync HTTP service
func NewService(app SyncApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the sync endpoints on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /sync", s.SyncNow)
	mux.HandleFunc("GET /sync/status", s.GetStatus)
}

// SyncNow runs a cycle and returns its summary. A running cycle yields 409.
func (s *Service) SyncNow(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.SyncNow(r.Context())
	if err != nil {
		apiutil.WriteError(w, err, ErrCycleInProgress)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, res)
}

// GetStatus reports outstanding work
func (s *Service) GetStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.app.Status(r.Context())
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, report)
}

// App joins the trigger and orchestrator into a SyncApp
type App struct {
	*Trigger
	orch *Orchestrator
}

// NewApp creates the sync application used by the HTTP surface
func NewApp(trigger *Trigger, orch *Orchestrator) *App {
	return &App{Trigger: trigger, orch: orch}
}

// Status reports outstanding work
func (a *App) Status(ctx context.Context) (*StatusReport, error) {
	return a.orch.Status(ctx)
}

// Package server exposes the fleet snapshot and the command surface over a
// local HTTP API for the dashboard front end. Presentation only: every
// mutation is delegated to the fleet store or the command dispatcher.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/pkg/metrics"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/channel"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/options"
)

// ConnectionInfo is the channel state reported on /api/v1/connection.
type ConnectionInfo struct {
	Status   channel.Status `json:"status"`
	Attempts int            `json:"attempts"`
	URL      string         `json:"url"`
}

// Service is what the HTTP layer needs from the station composition.
type Service interface {
	// Dispatch formats and transmits one command, applying the optimistic
	// local transitions that go with it.
	Dispatch(cmd channel.Command) error

	// SetGlobalEmergencyStop engages or releases the fleet-wide e-stop.
	SetGlobalEmergencyStop(engaged bool) error

	// Connection reports the channel lifecycle state.
	Connection() ConnectionInfo
}

type Server struct {
	server *http.Server
	logger log.Logger
}

// New builds the HTTP server over the given store and service.
func New(opts *options.HttpOptions, store *fleet.Store, svc Service, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Std()
	}
	logger = logger.WithName("http")

	h := &handlers{store: store, svc: svc, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/vehicles", h.listVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", h.getVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", h.patchVehicle).Methods(http.MethodPatch)
	api.HandleFunc("/commands", h.postCommand).Methods(http.MethodPost)
	api.HandleFunc("/emergency-stop", h.postEmergencyStop).Methods(http.MethodPost)
	api.HandleFunc("/logs", h.listLogs).Methods(http.MethodGet)
	api.HandleFunc("/connection", h.getConnection).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		logger: logger,
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is canceled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

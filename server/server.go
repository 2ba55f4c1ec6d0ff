// Package server exposes the emulated service's wire surface: a single POST
// endpoint dispatching on the X-Amz-Target header, plus health and metrics.
// Every handler is a thin adapter that translates a request into one or two
// calls against the cognito core and reshapes the result.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/cognito"
	"github.com/jrsteele09/go-cognito-emulator/internal/config"
	"github.com/jrsteele09/go-cognito-emulator/internal/metrics"
)

// targetPrefix is the service name clients send in the X-Amz-Target header.
const targetPrefix = "AWSCognitoIdentityProviderService."

type Server struct {
	env     string
	mux     *http.ServeMux
	config  config.Config
	cognito *cognito.ClientService
	logger  zerolog.Logger
	targets map[string]targetHandler
}

func New(cfg config.Config, clientService *cognito.ClientService, logger zerolog.Logger) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		cognito: clientService,
		logger:  logger,
	}
	s.initTargets()
	s.initRoutes()
	s.logTargets()
	return s
}

func (s *Server) logTargets() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for target := range s.targets {
		s.logger.Debug().Str("target", targetPrefix+target).Msg("registered target")
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.mux.HandleFunc("POST /", ChainMiddleware(s.TargetDispatchHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.mux.HandleFunc("GET /health", s.HealthHandler())
	s.mux.Handle("GET /metrics", metrics.Handler())
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JaimeStill/segmenter/internal/api"
	"github.com/JaimeStill/segmenter/internal/config"
	"github.com/JaimeStill/segmenter/internal/infrastructure"
	"github.com/JaimeStill/segmenter/pkg/module"
)

// Server owns the infrastructure and the HTTP listener serving the
// API module next to the health and metrics endpoints.
type Server struct {
	infra           *infrastructure.Infrastructure
	http            *http.Server
	shutdownTimeout time.Duration
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	infra.Mount(router)
	router.Mount(apiModule)

	return &Server{
		infra: infra,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		},
		shutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
	}, nil
}

// Start registers infrastructure hooks, then serves until the lifecycle
// context ends. Readiness flips once every startup hook has returned.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	lc := s.infra.Lifecycle
	logger := s.infra.Logger.With("system", "http")

	go func() {
		logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listener failed", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			logger.Error("drain failed", "error", err)
			return
		}
		logger.Info("listener closed")
	})

	go func() {
		lc.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

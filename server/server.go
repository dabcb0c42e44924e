// Package server exposes the prediction service over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/config"
	"github.com/nvr-ai/hardhat/service"
)

// Route paths.
const (
	RootURL    = "/"
	PredictURL = "/predict"
	HealthURL  = "/health"
	MetricsURL = "/metrics"
)

// Server is the HTTP API.
type Server struct {
	cfg       config.ServerConfig
	predictor *service.Predictor
	logger    *zap.Logger
	engine    *gin.Engine
	maxUpload int64
}

// New builds the gin engine and registers every route.
func New(cfg config.ServerConfig, predictor *service.Predictor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}

	s := &Server{
		cfg:       cfg,
		predictor: predictor,
		logger:    logger,
		engine:    gin.New(),
		maxUpload: int64(cfg.MaxUploadMB) << 20,
	}
	s.engine.MaxMultipartMemory = s.maxUpload

	s.engine.Use(gin.Recovery())
	s.engine.Use(RequestLogger(logger))
	s.engine.Use(CORS(cfg.CORSOrigins))

	s.engine.GET(RootURL, s.root)
	s.engine.POST(PredictURL, s.predict)
	s.engine.GET(HealthURL, s.health)
	s.engine.GET(MetricsURL, s.metrics)
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}

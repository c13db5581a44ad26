// Package server exposes the registry over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"wheelhouse/internal/config"
	"wheelhouse/internal/registry"
	"wheelhouse/internal/storage"
)

type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	pipeline *registry.Pipeline
	blobs    storage.Storage
	echo     *echo.Echo
}

func New(cfg *config.Config, reg *registry.Registry, pipeline *registry.Pipeline, blobs storage.Storage) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(accessLogger())
	e.Use(middleware.Recover())

	s := &Server{
		cfg:      cfg,
		registry: reg,
		pipeline: pipeline,
		blobs:    blobs,
		echo:     e,
	}

	e.GET("/", s.handleHome)
	e.GET("/simple/", s.handleListPackages)
	e.GET("/simple/:package/", s.handlePackageDetail)
	e.GET("/packages/:package/:filename", s.handleDownload)
	e.POST("/upload", s.handleUpload)

	return s
}

// Start runs the server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)

	log.Info().Str("address", addr).Msg("registry server starting")

	errChan := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info().Msg("registry server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"scene-service/internal/config"
	httpserver "scene-service/internal/http"
	"scene-service/internal/repository/postgres"
	"scene-service/internal/storage/local"
)

// Service represents the scene backend application
type Service struct {
	config *config.Config
	db     *postgres.DB
	store  *local.Store
	server *httpserver.Server
}

// NewService creates and initializes a new Service instance
// This is a convenience wrapper around InitializeService
func NewService() (*Service, error) {
	return InitializeService()
}

// Start starts the HTTP server and blocks until shutdown
func (s *Service) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Println("Starting scene service...")
		errCh <- s.server.Start(":" + s.config.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		log.Println("Shutting down scene service...")
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	}
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.db.Close()
	return err
}

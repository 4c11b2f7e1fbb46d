package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/todoserver/internal/db"
	"github.com/nkiryanov/todoserver/internal/handlers"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/repository/postgres"
	"github.com/nkiryanov/todoserver/internal/revocation"
	"github.com/nkiryanov/todoserver/internal/service/auth"
	"github.com/nkiryanov/todoserver/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/todoserver/internal/service/todo"
	"github.com/nkiryanov/todoserver/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	pool    *pgxpool.Pool
	revoked *revocation.Store
	sweep   time.Duration
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)
	revoked := revocation.New()

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey, TTL: c.TokenTTL}, revoked)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{Roles: c.UserRoles}, tokenManager, storage)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService, err := user.NewService(auth.DefaultHasher, tokenManager, storage)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating user service. Err: %w", err)
	}
	todoService := todo.NewService(storage)

	mux := handlers.NewRouter(
		handlers.Config{TokenHeader: c.TokenHeader, LenientBooleans: c.LenientBooleans},
		authService,
		userService,
		todoService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		pool:       pool,
		revoked:    revoked,
		sweep:      c.RevocationSweep,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
// Database pool is closed when server stopped
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go s.revoked.RunSweeper(srvCtx, s.sweep, time.Now, func(dropped int) {
		s.logger.Debug("expired revocations dropped", "count", dropped)
	})

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

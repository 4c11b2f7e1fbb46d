package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/todoserver/internal/handlers"
	"github.com/nkiryanov/todoserver/internal/logger"
	"github.com/nkiryanov/todoserver/internal/repository/postgres"
	"github.com/nkiryanov/todoserver/internal/revocation"
	"github.com/nkiryanov/todoserver/internal/service/auth"
	"github.com/nkiryanov/todoserver/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/todoserver/internal/service/todo"
	"github.com/nkiryanov/todoserver/internal/service/user"
	"github.com/nkiryanov/todoserver/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	TodoService *todo.TodoService
	Revoked     *revocation.Store
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, cfg handlers.Config, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		revoked := revocation.New()

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, revoked)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: 4}}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error", err)

		us, err := user.NewService(auth.BcryptHasher{Cost: 4}, tokenManager, storage)
		require.NoError(t, err, "user service starting error")
		ts := todo.NewService(storage)

		// Complete all together as router
		router := handlers.NewRouter(cfg, as, us, ts, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			UserService: us,
			TodoService: ts,
			Revoked:     revoked,
		})
	})
}

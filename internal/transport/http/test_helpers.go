package http

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/auth"
	"github.com/slatechat/slate-server/internal/config"
	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/store"
	"github.com/slatechat/slate-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// seedTestUser inserts a user and returns it with its ID assigned.
func seedTestUser(t *testing.T, st store.Store, tenantID int64, role, name string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), &store.User{
		TenantID:    tenantID,
		Role:        role,
		DisplayName: name,
		Avatar:      "https://cdn.example.com/" + name + ".png",
		PublicKey:   "pk-" + name,
	})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// testEnv bundles everything a transport test needs.
type testEnv struct {
	store store.Store
	auth  *auth.Service
	hub   *core.Hub
}

// newTestEnv wires a store, auth service, and a running hub.
func newTestEnv(t *testing.T) (*testEnv, context.CancelFunc) {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")

	logger := zerolog.Nop()
	hub := core.NewHub(st, core.DefaultHubOptions(), &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	return &testEnv{store: st, auth: authService, hub: hub}, cancel
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.JWTSecret = "test-secret"
	return &cfg
}

package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dispatch/cmd"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order/ordertest"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("PROOF_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := cmd.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 2*time.Minute, cfg.DispatchWindow)
	assert.Equal(t, 30*time.Minute, cfg.StalePendingThreshold)
	assert.Equal(t, int64(500), cfg.LowBalanceThreshold)
	assert.Equal(t, 5*time.Second, cfg.ResyncGrace)
	assert.Equal(t, "*/5 * * * * *", cfg.SweepSchedule)
	assert.Equal(t, 48*time.Hour, cfg.ProofTTL)
}

func TestLoadConfig_DefaultProofTokensLive48Hours(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("PROOF_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := cmd.LoadConfig("")
	require.NoError(t, err)

	signer, err := services.NewProofSigner([]byte(cfg.ProofSecret), cfg.ProofTTL)
	require.NoError(t, err)

	issuedAt := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	token, err := signer.Issue(ordertest.Pending(t, kernel.NewUUID(), issuedAt), "Corner Shop", issuedAt)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, token.ExpiresAt.Sub(token.IssuedAt))
	require.NoError(t, signer.Verify(token, issuedAt.Add(47*time.Hour)))
	require.Error(t, signer.Verify(token, issuedAt.Add(60*time.Hour)))
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DISPATCH_WINDOW=45s\nHTTP_PORT=9000\n"), 0o600))

	t.Setenv("STORAGE", "memory")
	t.Setenv("PROOF_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("HTTP_PORT", "9100")
	t.Cleanup(func() { _ = os.Unsetenv("DISPATCH_WINDOW") })

	cfg, err := cmd.LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.DispatchWindow)
	assert.Equal(t, "9100", cfg.HTTPPort, "environment wins over the file")
}

func TestConfig_Validate(t *testing.T) {
	err := cmd.Config{Storage: "sqlite"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "PROOF_SECRET")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	err = cmd.Config{
		Storage: cmd.StoragePostgres, ProofSecret: "p", JWTSecret: "j",
		DispatchWindow: time.Minute, StalePendingThreshold: time.Hour,
	}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestConfig_DSN(t *testing.T) {
	cfg := cmd.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "dispatch", DBSslMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=dispatch sslmode=disable", cfg.DSN())
}

func TestCompositionRoot_InMemory(t *testing.T) {
	cfg := cmd.Config{
		Storage:               cmd.StorageMemory,
		ProofSecret:           "0123456789abcdef0123456789abcdef",
		JWTSecret:             "jwt",
		DispatchWindow:        time.Minute,
		StalePendingThreshold: time.Hour,
		LowBalanceThreshold:   500,
		LogFormat:             "text",
	}
	require.NoError(t, cfg.Validate())

	var logs bytes.Buffer
	ctx := context.Background()
	app, err := cmd.NewCompositionRoot(ctx, cfg, cmd.NewLogger(cfg, &logs))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	e, err := app.CreateHTTPServer(ctx)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "memory", health["storage"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_sync_connections")

	manager, err := app.CreateJobManager()
	require.NoError(t, err)
	require.NoError(t, manager.StartAll())
	manager.StopAll()

	require.NoError(t, app.RunBackground(ctx))
}

package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "strand", cfg.Log.Name)
	require.Equal(t, "sqlite", cfg.DB.Dialect)
	require.Equal(t, 8090, cfg.APIServer.Port)
	require.False(t, cfg.Tenancy.RequireActiveParentMembership)
	require.Equal(t, 100, cfg.Tenancy.SlugMaxAttempts)
	require.Equal(t, "noreply@strand.app", cfg.Mail.DefaultFrom)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strand.yml")
	content := []byte(`
server:
  port: 9999
  name: strand-test
db:
  dialect: postgres
  dsn: postgres://localhost:5432/strand
tenancy:
  require_active_parent_membership: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("STRAND_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9999, cfg.APIServer.Port)
	require.Equal(t, "strand-test", cfg.APIServer.Name)
	require.Equal(t, "postgres", cfg.DB.Dialect)
	require.True(t, cfg.Tenancy.RequireActiveParentMembership)

	// Untouched sections keep their defaults.
	require.Equal(t, "strand", cfg.Log.Name)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STRAND_SERVER_PORT", "7777")
	t.Setenv("STRAND_DB_DIALECT", "mysql")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 7777, cfg.APIServer.Port)
	require.Equal(t, "mysql", cfg.DB.Dialect)
}

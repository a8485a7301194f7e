package restdb_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	restdb "github.com/kindadb/restdb-sdk/go"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"NAME", "ENDPOINT", "TOKEN", "TIMEOUT"} {
		t.Setenv(restdb.EnvPrefix+"_"+key, "")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESTDB_NAME", "accounts")
	t.Setenv("RESTDB_ENDPOINT", "http://localhost:8080")
	t.Setenv("RESTDB_TOKEN", "abc")
	t.Setenv("RESTDB_TIMEOUT", "5s")

	cfg, err := restdb.LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "accounts", cfg.Name)
	require.Equal(t, "http://localhost:8080", cfg.Endpoint)
	require.Equal(t, "abc", cfg.Token)
	require.Equal(t, 5*time.Second, cfg.Timeout)

	c, err := restdb.NewClient(cfg)
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, "abc", c.Token())
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "restdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: orders\nendpoint: http://db.internal:6543/\ntimeout: 2s\n"), 0o600))

	cfg, err := restdb.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "orders", cfg.Name)
	require.Equal(t, "http://db.internal:6543/", cfg.Endpoint)
	require.Empty(t, cfg.Token)
	require.Equal(t, 2*time.Second, cfg.Timeout)

	// The environment wins over the file.
	t.Setenv("RESTDB_NAME", "override")
	cfg, err = restdb.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "override", cfg.Name)

	_, err = restdb.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigIncomplete(t *testing.T) {
	clearEnv(t)

	cfg, err := restdb.LoadConfig("")
	require.NoError(t, err)

	_, err = restdb.NewClient(cfg)
	var ce *restdb.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "name", ce.Field)
}

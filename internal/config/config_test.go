package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3030", cfg.Addr, "loopback only without a configured port")
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 8*time.Second, cfg.ItemTime)
	assert.Equal(t, 2*time.Second, cfg.SlushTime)
	assert.False(t, cfg.ServeTLS())
}

func TestLoad_Port(t *testing.T) {
	t.Setenv("PKMNDRAFT_PORT", "8080")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr, "configured port binds all interfaces")
}

func TestLoad_BadPort(t *testing.T) {
	for _, port := range []string{"nope", "-1", "99999"} {
		t.Setenv("PKMNDRAFT_PORT", port)
		_, err := Load()
		assert.Error(t, err, "port %q", port)
	}
}

func TestLoad_TLS(t *testing.T) {
	t.Run("cert without key", func(t *testing.T) {
		t.Setenv("HTTPS_CERT", "/tmp/cert.pem")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("key without cert", func(t *testing.T) {
		t.Setenv("HTTPS_KEY", "/tmp/key.pem")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("both", func(t *testing.T) {
		t.Setenv("HTTPS_CERT", "/tmp/cert.pem")
		t.Setenv("HTTPS_KEY", "/tmp/key.pem")
		t.Setenv("PKMNDRAFT_HTTPS_HOST", "draft.example.com")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.ServeTLS())
		assert.Equal(t, "draft.example.com", cfg.HTTPSHost)
	})
}

func TestLoad_Timing(t *testing.T) {
	t.Setenv("PKMNDRAFT_PICK_SECONDS", "15")
	t.Setenv("PKMNDRAFT_SLUSH_SECONDS", "5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.ItemTime)
	assert.Equal(t, 5*time.Second, cfg.SlushTime)
}

func TestLoad_DataDir(t *testing.T) {
	t.Setenv("PKMNDRAFT_DATA", "/srv/draft-data")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/draft-data", cfg.DataDir)
}

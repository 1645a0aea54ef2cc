package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMustConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	yaml := `
env: "dev"
http_server:
  address: "0.0.0.0:8080"
  timeout: 2s
db_user: "svc"
db_name: "shop"
auth:
  jwt_secret: "from-file"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg := MustConfig()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 2, cfg.Lookup.MinLength)
	assert.False(t, cfg.MQTT.Enabled)
}

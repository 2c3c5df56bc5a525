package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesObservableSpecDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, "0.0.0.0:9000", c.Addr())
	assert.Equal(t, "/var/tmp/aesdsocketdata", c.StorePath)
	assert.Equal(t, 10*time.Second, c.TickerInterval)
}

func TestApplyYAMLOverlaysOnlyPresentKeys(t *testing.T) {
	c := Default()
	path := filepath.Join(t.TempDir(), "aesdsocket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9001
ticker_interval_seconds: 5
`), 0644))

	require.NoError(t, c.ApplyYAML(path))
	assert.Equal(t, 9001, c.Port)
	assert.Equal(t, "0.0.0.0", c.Host, "host absent from file must keep default")
	assert.Equal(t, 5*time.Second, c.TickerInterval)
}

func TestApplyYAMLMissingFileErrors(t *testing.T) {
	c := Default()
	err := c.ApplyYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

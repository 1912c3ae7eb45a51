package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/sidx/internal/ingest"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/geom"
)

type testConfig struct {
	Layer  layer.Config
	Ingest ingest.Config
}

func (c *testConfig) LayerConfig() *layer.Config {
	return &c.Layer
}

func (c *testConfig) IngestConfig() *ingest.Config {
	return &c.Ingest
}

const testFile = `
SIDX_LAYER_MAX_POINTS = 100
SIDX_LAYER_MAX_ENTRIES = 6
SIDX_INGEST_INTERVAL = "1m"
SIDX_INGEST_TARGETS = [
  { url = "http://feed.local/points", layer = "cities" },
]
`

// unsetAfter drops the variables LoadFile may export so tests stay isolated.
func unsetAfter(t *testing.T, keys ...string) {
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sidx.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSetup_Precedence(t *testing.T) {
	unsetAfter(t, "SIDX_LAYER_MAX_POINTS", "SIDX_INGEST_INTERVAL", "SIDX_INGEST_TARGETS")
	t.Setenv("SIDX_CONFIG_FILE", writeFile(t, testFile))
	t.Setenv("SIDX_LAYER_MAX_ENTRIES", "8")

	var cfg testConfig
	env, err := Setup(context.Background(), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Layer.MaxPoints, "file over default")
	assert.Equal(t, 8, cfg.Layer.MaxEntries, "environment over file")
	assert.False(t, cfg.Layer.ExactDelete, "default")
	assert.Equal(t, time.Minute, cfg.Ingest.Interval)
	assert.Equal(t, 30*time.Second, cfg.Ingest.RequestTimeout)
	assert.Equal(t, ingest.Targets{{URL: "http://feed.local/points", Layer: "cities"}}, cfg.Ingest.Targets)

	require.NotNil(t, env.ProvideLayer())
	require.NotNil(t, env.ProvideIngest())

	m, err := env.ProvideLayer()()
	require.NoError(t, err)
	assert.NoError(t, m.Insert(context.Background(), "l", geom.Point{X: 1, Y: 1}))
}

func TestSetup_NoTargets(t *testing.T) {
	var cfg testConfig
	env, err := Setup(context.Background(), &cfg)
	require.NoError(t, err)
	assert.NotNil(t, env.ProvideLayer())
	assert.Nil(t, env.ProvideIngest())
}

func TestSetup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "test_missing_file",
			env:  map[string]string{"SIDX_CONFIG_FILE": filepath.Join(t.TempDir(), "absent.toml")},
		},
		{
			name: "test_bad_toml",
			env:  map[string]string{"SIDX_CONFIG_FILE": writeFile(t, "SIDX_LAYER_MAX_POINTS = ")},
		},
		{
			name: "test_bad_number",
			env:  map[string]string{"SIDX_LAYER_MAX_ENTRIES": "four"},
		},
		{
			name: "test_bad_targets",
			env:  map[string]string{"SIDX_INGEST_TARGETS": "http://feed.local"},
		},
		{
			name: "test_ambiguous_auth",
			env: map[string]string{
				"SIDX_INGEST_TARGETS":      `[{"url":"http://feed.local"}]`,
				"SIDX_INGEST_BEARER_TOKEN": "t",
				"SIDX_INGEST_BASIC_USER":   "u",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			var cfg testConfig
			_, err := Setup(context.Background(), &cfg)
			assert.Error(t, err)
		})
	}
}

func TestProvideLayerFor(t *testing.T) {
	_, err := ProvideLayerFor(&testConfig{Layer: layer.Config{MaxPoints: -1}})()
	assert.Error(t, err)

	m, err := ProvideLayerFor(&testConfig{Layer: layer.Config{MaxPoints: 1, MaxEntries: 4}})()
	require.NoError(t, err)
	err = m.Insert(context.Background(), "l", geom.Point{}, geom.Point{X: 1})
	assert.ErrorIs(t, err, layer.ErrLayerFull)
}

func TestLoadFile_KeepsEnvironment(t *testing.T) {
	unsetAfter(t, "SIDX_INGEST_TARGETS", "SIDX_INGEST_INTERVAL", "SIDX_LAYER_MAX_ENTRIES")
	t.Setenv("SIDX_LAYER_MAX_POINTS", "7")

	require.NoError(t, LoadFile(writeFile(t, testFile)))
	assert.Equal(t, "7", os.Getenv("SIDX_LAYER_MAX_POINTS"))
	assert.Equal(t, "6", os.Getenv("SIDX_LAYER_MAX_ENTRIES"))
	assert.Equal(t, "1m", os.Getenv("SIDX_INGEST_INTERVAL"))
	assert.JSONEq(t, `[{"url":"http://feed.local/points","layer":"cities"}]`, os.Getenv("SIDX_INGEST_TARGETS"))
}

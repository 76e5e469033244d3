package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/teleprompter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teleprompter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(3000), cfg.StartDelayMs)
	assert.Equal(t, int64(2000), cfg.LoopDelayMs)
	assert.Equal(t, 1, cfg.Loops)
	assert.Equal(t, "messages.txt", cfg.MessagesFile)
	assert.Equal(t, "teleprompter.log", cfg.LogFile)
	assert.Equal(t, BackendNative, cfg.Backend)
	assert.Equal(t, int64(30), cfg.SettleMs)
	assert.Equal(t, int64(50), cfg.SliceMs)
	assert.Equal(t, 16, cfg.MaxSpliceDepth)
	assert.Equal(t, "127.0.0.1:7878", cfg.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
start_delay_ms: 500
loops: 4
backend: DRY
messages_file: /tmp/lines.txt
max_splice_depth: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.StartDelayMs)
	assert.Equal(t, int64(2000), cfg.LoopDelayMs, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Loops)
	assert.Equal(t, BackendDry, cfg.Backend)
	assert.Equal(t, "/tmp/lines.txt", cfg.MessagesFile)
	assert.Equal(t, 3, cfg.MaxSpliceDepth)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "loops: [not, a, number]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "loops: 4\nlisten: 0.0.0.0:9000\n")
	t.Setenv("TELEPROMPTER_LOOPS", "9")
	t.Setenv("TELEPROMPTER_SLICE_MS", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Loops)
	assert.Equal(t, int64(10), cfg.SliceMs)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("TELEPROMPTER_LOOPS", "many")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEPROMPTER_LOOPS")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TELEPROMPTER_START_DELAY_MS": "0",
		"TELEPROMPTER_LOG_FILE":       "",
		"TELEPROMPTER_BACKEND":        "dry",
		"UNRELATED":                   "x",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, int64(0), cfg.StartDelayMs)
	assert.Equal(t, "", cfg.LogFile, "empty values count as set")
	assert.Equal(t, BackendDry, cfg.Backend)
}

func TestNormalize(t *testing.T) {
	cfg := Config{
		Loops:        -2,
		StartDelayMs: -5,
		LoopDelayMs:  -1,
		SettleMs:     -3,
		Backend:      "  Native ",
	}.Normalize()

	assert.Equal(t, 1, cfg.Loops)
	assert.Equal(t, int64(0), cfg.StartDelayMs)
	assert.Equal(t, int64(0), cfg.LoopDelayMs)
	assert.Equal(t, int64(0), cfg.SettleMs)
	assert.Equal(t, int64(50), cfg.SliceMs)
	assert.Equal(t, 16, cfg.MaxSpliceDepth)
	assert.Equal(t, BackendNative, cfg.Backend)
}

func TestValidate_Backend(t *testing.T) {
	cfg := Default()
	cfg.Backend = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unknown backend")
}

func TestValidate_DelayRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"start delay", func(c *Config) { c.StartDelayMs = 18446744073710 }, "start delay must be at most"},
		{"loop delay", func(c *Config) { c.LoopDelayMs = teleprompter.MaxDelayMs + 1 }, "loop delay must be at most"},
		{"settle", func(c *Config) { c.SettleMs = teleprompter.MaxDelayMs + 1 }, "settle must be at most"},
		{"slice", func(c *Config) { c.SliceMs = teleprompter.MaxDelayMs + 1 }, "slice must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	cfg := Default()
	cfg.StartDelayMs = teleprompter.MaxDelayMs
	assert.NoError(t, cfg.Validate())
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.SettleMs = 5
	cfg.SliceMs = 20
	cfg.MaxSpliceDepth = 2

	dc := cfg.Director()
	assert.Equal(t, 5*time.Millisecond, dc.Settle)
	assert.Equal(t, 20*time.Millisecond, dc.Slice)
	assert.Equal(t, 2, dc.MaxSpliceDepth)

	run := cfg.Run("hi{enter}")
	assert.Equal(t, "hi{enter}", run.Script)
	assert.Equal(t, 1, run.Loops)
	assert.Equal(t, 3*time.Second, run.StartDelay)
	assert.Equal(t, 2*time.Second, run.LoopDelay)
	assert.NoError(t, run.Validate())
}

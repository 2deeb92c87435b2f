package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "execute"
	cfg.LogLevel = "verbose"
	cfg.Matching.ConfidenceThreshold = 1.5
	cfg.Pipeline.PollInterval = duration{0}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "confidence_threshold")
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidateStalenessWindowCoversPoll(t *testing.T) {
	cfg := Defaults()
	cfg.Pipeline.PollInterval = duration{time.Minute}
	cfg.Pipeline.StalenessWindow = duration{30 * time.Second}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staleness_window")
}

func TestValidateTelegramPair(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "123:abc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")

	cfg.Notify.TelegramChatID = "-100123"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
mode = "scan"

[matching]
confidence_threshold = 0.9

[matching.manual_mappings]
"0xdeadbeef" = "KXNBA-LAL"

[pipeline]
poll_interval = "45s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, 0.9, cfg.Matching.ConfidenceThreshold)
	assert.Equal(t, "KXNBA-LAL", cfg.Matching.ManualMappings["0xdeadbeef"])
	assert.Equal(t, 45*time.Second, cfg.Pipeline.PollInterval.Duration)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	assert.Equal(t, int64(7), cfg.Arbitrage.PerVenueFeeBps["kalshi"])
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`mode = "monitor"`), 0o600))

	t.Setenv("ARBSCAN_MODE", "scan")
	t.Setenv("ARBSCAN_PIPELINE_POLL_INTERVAL", "10s")
	t.Setenv("ARBSCAN_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.PollInterval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

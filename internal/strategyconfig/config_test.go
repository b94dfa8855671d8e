package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/selection"
)

func TestLoad(t *testing.T) {
	// 테스트용 YAML 경로
	path := "../../config/strategy/router_policy.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "thesis_router_v1", cfg.Meta.StrategyID)
	assert.Equal(t, selection.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, 30, cfg.Normalization.HoldingDays)
	assert.Empty(t, Warn(cfg))

	// 동일 설정 → 동일 해시
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2, "hash not deterministic")
}

func TestParse_PartialOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("meta:\n  strategy_id: tight\nscoring:\n  connection_floor: 0.75\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Scoring.ConnectionFloor)
	assert.Equal(t, 20.0, cfg.Scoring.ConvexityCap)
	assert.Equal(t, 5.0, cfg.Scoring.OverrideMultiple)
	assert.True(t, cfg.Rediscovery.Enabled)

	defHash, _ := Hash(Default())
	hash, _ := Hash(cfg)
	assert.NotEqual(t, defHash, hash)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("scoring:\n  convexity_cpa: 10\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"zero cap", func(c *Config) { c.Scoring.ConvexityCap = 0 }, "scoring.convexity_cap"},
		{"floor above one", func(c *Config) { c.Scoring.ConnectionFloor = 1.2 }, "scoring.connection_floor"},
		{"override below one", func(c *Config) { c.Scoring.OverrideMultiple = 0.5 }, "scoring.override_multiple"},
		{"priced in zero", func(c *Config) { c.Scoring.PricedInProbability = 0 }, "scoring.priced_in_probability"},
		{"negative notional", func(c *Config) { c.Normalization.ReferenceNotionalUSD = -1 }, "normalization.reference_notional_usd"},
		{"zero holding days", func(c *Config) { c.Normalization.HoldingDays = 0 }, "normalization.holding_days"},
		{"beta out of range", func(c *Config) { c.Judge.DefaultThesisBeta = -0.1 }, "judge.default_thesis_beta"},
		{"negative search limit", func(c *Config) { c.Rediscovery.SearchLimit = -1 }, "rediscovery.search_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Judge.DefaultThesisBeta = 0.7
	cfg.Scoring.ConvexityCap = 2

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	assert.True(t, codes["DEFAULT_BETA_PASSES_FLOOR"])
	assert.True(t, codes["LOW_CONVEXITY_CAP"])
	assert.False(t, codes["AGGRESSIVE_PRICED_IN"])
}

func TestLoadOrDefault(t *testing.T) {
	cfg, data, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Meta.StrategyID)

	// marshalled defaults round-trip through strict decoding
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	loaded, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	snap, err := NewDecisionSnapshot(loaded, data)
	require.NoError(t, err)
	assert.Len(t, snap.ConfigHash, 64)
	assert.Equal(t, "default", snap.StrategyID)
}

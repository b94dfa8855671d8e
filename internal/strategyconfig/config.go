package strategyconfig

import (
	"time"

	"github.com/wonny/thesisrouter/internal/selection"
)

// Config는 라우팅 정책의 전체 설정
type Config struct {
	Meta          Meta          `yaml:"meta" json:"meta"`
	Scoring       Scoring       `yaml:"scoring" json:"scoring"`
	Normalization Normalization `yaml:"normalization" json:"normalization"`
	Judge         Judge         `yaml:"judge" json:"judge"`
	Rediscovery   Rediscovery   `yaml:"rediscovery" json:"rediscovery"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Scoring 점수화 / 하드 룰 / 소프트 floor
type Scoring struct {
	ConvexityCap        float64 `yaml:"convexity_cap" json:"convexity_cap"`
	ConnectionFloor     float64 `yaml:"connection_floor" json:"connection_floor"`
	OverrideMultiple    float64 `yaml:"override_multiple" json:"override_multiple"`
	PricedInProbability float64 `yaml:"priced_in_probability" json:"priced_in_probability"`
}

// Normalization $100 기준 프로파일 산출 설정
type Normalization struct {
	ReferenceNotionalUSD float64 `yaml:"reference_notional_usd" json:"reference_notional_usd"`
	HoldingDays          int     `yaml:"holding_days" json:"holding_days"`
}

// Judge 테제 판단 기본값
type Judge struct {
	DefaultThesisBeta float64 `yaml:"default_thesis_beta" json:"default_thesis_beta"`
	UseLLM            bool    `yaml:"use_llm" json:"use_llm"`
}

// Rediscovery weak connection 재탐색
type Rediscovery struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	SearchLimit int  `yaml:"search_limit" json:"search_limit"`
}

// Default returns the built-in policy; a YAML file only overrides what it sets
func Default() *Config {
	p := selection.DefaultPolicy()
	return &Config{
		Meta: Meta{StrategyID: "default", Version: "1"},
		Scoring: Scoring{
			ConvexityCap:        p.ConvexityCap,
			ConnectionFloor:     p.ConnectionFloor,
			OverrideMultiple:    p.OverrideMultiple,
			PricedInProbability: p.PricedInProbability,
		},
		Normalization: Normalization{
			ReferenceNotionalUSD: 100_000,
			HoldingDays:          30,
		},
		Judge: Judge{
			DefaultThesisBeta: 0.5,
			UseLLM:            true,
		},
		Rediscovery: Rediscovery{
			Enabled:     true,
			SearchLimit: 5,
		},
	}
}

// Policy converts the scoring section for the selection engine
func (c *Config) Policy() selection.Policy {
	return selection.Policy{
		ConvexityCap:        c.Scoring.ConvexityCap,
		ConnectionFloor:     c.Scoring.ConnectionFloor,
		OverrideMultiple:    c.Scoring.OverrideMultiple,
		PricedInProbability: c.Scoring.PricedInProbability,
	}
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}

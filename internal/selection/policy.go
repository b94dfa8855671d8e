package selection

import "fmt"

// Policy holds the scoring constants shared by screener, ranker and floors
// SSOT: config/strategy/router_policy.yaml scoring
type Policy struct {
	ConvexityCap        float64 // convexity 상한 (기본: 20)
	ConnectionFloor     float64 // 승자 최소 thesis_beta (기본: 0.6, 경계 포함)
	OverrideMultiple    float64 // cross-class 교체 배수 (기본: 5, strict)
	PricedInProbability float64 // 테제 쪽 내재확률이 이 이상이면 already_priced_in (기본: 0.90)
}

// DefaultPolicy returns the default scoring policy
func DefaultPolicy() Policy {
	return Policy{
		ConvexityCap:        20,
		ConnectionFloor:     0.6,
		OverrideMultiple:    5,
		PricedInProbability: 0.90,
	}
}

// Validate checks the policy is usable
func (p Policy) Validate() error {
	if p.ConvexityCap <= 0 {
		return fmt.Errorf("convexity_cap must be > 0")
	}
	if p.ConnectionFloor < 0 || p.ConnectionFloor > 1 {
		return fmt.Errorf("connection_floor must be in [0, 1]")
	}
	if p.OverrideMultiple < 1 {
		return fmt.Errorf("override_multiple must be >= 1")
	}
	if p.PricedInProbability <= 0 || p.PricedInProbability > 1 {
		return fmt.Errorf("priced_in_probability must be in (0, 1]")
	}
	return nil
}

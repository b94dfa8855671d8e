package strategyconfig

import (
	"fmt"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Scoring ===
	if cfg.Scoring.ConvexityCap <= 0 {
		return ValidationError{"scoring.convexity_cap", "must be > 0"}
	}
	if err := validatePctRange(cfg.Scoring.ConnectionFloor, "scoring.connection_floor"); err != nil {
		return err
	}
	if cfg.Scoring.OverrideMultiple < 1 {
		return ValidationError{"scoring.override_multiple", "must be >= 1"}
	}
	if cfg.Scoring.PricedInProbability <= 0 || cfg.Scoring.PricedInProbability > 1 {
		return ValidationError{"scoring.priced_in_probability", "must be in (0, 1]"}
	}

	// === Normalization ===
	if cfg.Normalization.ReferenceNotionalUSD <= 0 {
		return ValidationError{"normalization.reference_notional_usd", "must be > 0"}
	}
	if cfg.Normalization.HoldingDays <= 0 || cfg.Normalization.HoldingDays > 3650 {
		return ValidationError{"normalization.holding_days", "must be in [1, 3650]"}
	}

	// === Judge ===
	if err := validatePctRange(cfg.Judge.DefaultThesisBeta, "judge.default_thesis_beta"); err != nil {
		return err
	}

	// === Rediscovery ===
	if cfg.Rediscovery.SearchLimit < 0 {
		return ValidationError{"rediscovery.search_limit", "must be >= 0"}
	}

	return cfg.Policy().Validate()
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 기본 beta가 floor 이상이면 hint 없는 후보도 floor 통과
	if cfg.Judge.DefaultThesisBeta >= cfg.Scoring.ConnectionFloor {
		warnings = append(warnings, Warning{
			Code:    "DEFAULT_BETA_PASSES_FLOOR",
			Message: "default_thesis_beta >= connection_floor: 연결성 약한 후보도 floor 통과",
		})
	}

	// cap이 낮으면 바이너리 간 차별화 사라짐
	if cfg.Scoring.ConvexityCap < 3 {
		warnings = append(warnings, Warning{
			Code:    "LOW_CONVEXITY_CAP",
			Message: "convexity_cap < 3: 대부분 후보가 cap에 걸려 beta만으로 순위 결정",
		})
	}

	if cfg.Scoring.PricedInProbability < 0.75 {
		warnings = append(warnings, Warning{
			Code:    "AGGRESSIVE_PRICED_IN",
			Message: "priced_in_probability < 0.75: 정상적인 favorite 시장도 실격",
		})
	}

	return warnings
}

// === Helper Functions ===

// validatePctRange는 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}

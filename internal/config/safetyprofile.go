package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/oldnordic/odincode/internal/safety"
)

// SafetyFileName is the optional project-level safety override file,
// read from the working directory. It is TOML rather than part of the
// settings.json chain so CI systems can pin safety knobs in one file
// without touching the merged JSON settings.
const SafetyFileName = "gencode.toml"

// safetyFile mirrors the [safety] table of gencode.toml.
type safetyFile struct {
	Safety safetyKnobs `toml:"safety"`
}

// safetyKnobs uses pointer fields so the file can override a single knob
// and leave the rest at the profile's values.
type safetyKnobs struct {
	Profile                        string `toml:"profile"`
	MaxToolCallsPerTurn            *int   `toml:"max_tool_calls_per_turn"`
	MaxIdenticalCalls              *int   `toml:"max_identical_calls"`
	ToolTimeoutMS                  *int64 `toml:"tool_timeout_ms"`
	SessionExecutionBudget         *int   `toml:"session_execution_budget"`
	StallThreshold                 *int   `toml:"stall_threshold"`
	OutputTruncateChars            *int   `toml:"output_truncate_chars"`
	CircuitBreakerFailureThreshold *int   `toml:"circuit_breaker_failure_threshold"`
	CircuitBreakerSuccessThreshold *int   `toml:"circuit_breaker_success_threshold"`
	CircuitBreakerOpenTimeoutMS    *int64 `toml:"circuit_breaker_open_timeout_ms"`
	CircuitBreakerHalfOpenMaxCalls *int   `toml:"circuit_breaker_half_open_max_calls"`
}

// SafetyProfile returns the named base safety profile. An empty name
// means "default".
func SafetyProfile(name string) (safety.Config, error) {
	switch name {
	case "", "default":
		return safety.DefaultConfig(), nil
	case "restrictive":
		return safety.RestrictiveConfig(), nil
	case "permissive":
		return safety.PermissiveConfig(), nil
	}
	return safety.Config{}, fmt.Errorf("unknown safety profile %q (want default, restrictive or permissive)", name)
}

// LoadSafetyConfig resolves the safety configuration for a run: the
// named base profile, overridden knob by knob by a gencode.toml in the
// working directory when one exists. A profile named on the command line
// wins over the file's own profile key; with no explicit profile, the
// file's profile key selects the base.
func LoadSafetyConfig(profile string) (safety.Config, error) {
	return loadSafetyConfigFrom(profile, SafetyFileName)
}

func loadSafetyConfigFrom(profile, path string) (safety.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SafetyProfile(profile)
		}
		return safety.Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	var file safetyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return safety.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	base := profile
	if base == "" {
		base = file.Safety.Profile
	}
	cfg, err := SafetyProfile(base)
	if err != nil {
		return safety.Config{}, fmt.Errorf("%s: %w", path, err)
	}

	k := file.Safety
	if k.MaxToolCallsPerTurn != nil {
		cfg.MaxToolCallsPerTurn = *k.MaxToolCallsPerTurn
	}
	if k.MaxIdenticalCalls != nil {
		cfg.MaxIdenticalCalls = *k.MaxIdenticalCalls
	}
	if k.ToolTimeoutMS != nil {
		cfg.ToolTimeoutMS = *k.ToolTimeoutMS
	}
	if k.SessionExecutionBudget != nil {
		cfg.SessionExecutionBudget = *k.SessionExecutionBudget
	}
	if k.StallThreshold != nil {
		cfg.StallThreshold = *k.StallThreshold
	}
	if k.OutputTruncateChars != nil {
		cfg.OutputTruncateChars = *k.OutputTruncateChars
	}
	if k.CircuitBreakerFailureThreshold != nil {
		cfg.CircuitBreakerFailureThreshold = *k.CircuitBreakerFailureThreshold
	}
	if k.CircuitBreakerSuccessThreshold != nil {
		cfg.CircuitBreakerSuccessThreshold = *k.CircuitBreakerSuccessThreshold
	}
	if k.CircuitBreakerOpenTimeoutMS != nil {
		cfg.CircuitBreakerOpenTimeoutMS = *k.CircuitBreakerOpenTimeoutMS
	}
	if k.CircuitBreakerHalfOpenMaxCalls != nil {
		cfg.CircuitBreakerHalfOpenMaxCalls = *k.CircuitBreakerHalfOpenMaxCalls
	}

	return cfg, nil
}

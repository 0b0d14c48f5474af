// Package safety implements the circuit breaker, execution budget and
// stall detector that guard the agent loop against runaway or stuck tool
// execution.
package safety

import "fmt"

// Config holds the limits and budgets that bound a session's tool
// execution. All limits are failsafe: when one is exceeded, execution
// stops with a clear error rather than degrading silently.
type Config struct {
	// MaxToolCallsPerTurn caps tool calls within a single turn.
	MaxToolCallsPerTurn int
	// MaxIdenticalCalls caps repeated calls to the same tool with the
	// same arguments before the stall detector trips.
	MaxIdenticalCalls int
	// ToolTimeoutMS bounds a single tool execution.
	ToolTimeoutMS int64
	// SessionExecutionBudget caps total tool calls for a session.
	SessionExecutionBudget int
	// StallThreshold is the number of steps without state change (or
	// the window size for loop detection) before a stall is reported.
	StallThreshold int
	// OutputTruncateChars caps a tool result before it is truncated.
	OutputTruncateChars int
	// CircuitBreakerFailureThreshold trips a tool's circuit to Open.
	CircuitBreakerFailureThreshold int
	// CircuitBreakerSuccessThreshold closes a HalfOpen circuit.
	CircuitBreakerSuccessThreshold int
	// CircuitBreakerOpenTimeoutMS is how long a circuit stays Open
	// before allowing a HalfOpen probe.
	CircuitBreakerOpenTimeoutMS int64
	// CircuitBreakerHalfOpenMaxCalls caps probe calls while HalfOpen.
	CircuitBreakerHalfOpenMaxCalls int
}

// DefaultConfig returns the baseline safety configuration.
func DefaultConfig() Config {
	return Config{
		MaxToolCallsPerTurn:            20,
		MaxIdenticalCalls:              2,
		ToolTimeoutMS:                  30_000,
		SessionExecutionBudget:         100,
		StallThreshold:                 5,
		OutputTruncateChars:            10_000,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerOpenTimeoutMS:    30_000,
		CircuitBreakerHalfOpenMaxCalls: 3,
	}
}

// PermissiveConfig loosens every limit, for tests and exploratory use.
func PermissiveConfig() Config {
	return Config{
		MaxToolCallsPerTurn:            1000,
		MaxIdenticalCalls:              100,
		ToolTimeoutMS:                  300_000,
		SessionExecutionBudget:         10_000,
		StallThreshold:                 100,
		OutputTruncateChars:            1_000_000,
		CircuitBreakerFailureThreshold: 100,
		CircuitBreakerSuccessThreshold: 1,
		CircuitBreakerOpenTimeoutMS:    1000,
		CircuitBreakerHalfOpenMaxCalls: 10,
	}
}

// RestrictiveConfig tightens every limit, for safety-critical contexts.
func RestrictiveConfig() Config {
	return Config{
		MaxToolCallsPerTurn:            10,
		MaxIdenticalCalls:              1,
		ToolTimeoutMS:                  10_000,
		SessionExecutionBudget:         50,
		StallThreshold:                 3,
		OutputTruncateChars:            5_000,
		CircuitBreakerFailureThreshold: 3,
		CircuitBreakerSuccessThreshold: 3,
		CircuitBreakerOpenTimeoutMS:    60_000,
		CircuitBreakerHalfOpenMaxCalls: 1,
	}
}

// NewConfig builds a Config from the four most commonly tuned knobs,
// leaving the rest at their default values. It errors instead of
// panicking on a zero limit, since a disabled safety knob should be a
// handled error, not a crash.
func NewConfig(maxToolCallsPerTurn, maxIdenticalCalls int, toolTimeoutMS int64, sessionExecutionBudget int) (Config, error) {
	if maxToolCallsPerTurn <= 0 {
		return Config{}, fmt.Errorf("safety: max_tool_calls_per_turn must be > 0")
	}
	if maxIdenticalCalls <= 0 {
		return Config{}, fmt.Errorf("safety: max_identical_calls must be > 0")
	}
	if toolTimeoutMS <= 0 {
		return Config{}, fmt.Errorf("safety: tool_timeout_ms must be > 0")
	}
	if sessionExecutionBudget <= 0 {
		return Config{}, fmt.Errorf("safety: session_execution_budget must be > 0")
	}

	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = maxToolCallsPerTurn
	cfg.MaxIdenticalCalls = maxIdenticalCalls
	cfg.ToolTimeoutMS = toolTimeoutMS
	cfg.SessionExecutionBudget = sessionExecutionBudget
	return cfg, nil
}

// Validate reports whether the configuration's values are within sane
// operating bounds.
func (c Config) Validate() error {
	if c.MaxToolCallsPerTurn > 100 {
		return fmt.Errorf("safety: max_tool_calls_per_turn (%d) exceeds recommended maximum (100)", c.MaxToolCallsPerTurn)
	}
	if c.ToolTimeoutMS > 300_000 {
		return fmt.Errorf("safety: tool_timeout_ms (%d) exceeds recommended maximum (300000 = 5 minutes)", c.ToolTimeoutMS)
	}
	if c.StallThreshold < 2 {
		return fmt.Errorf("safety: stall_threshold (%d) is too small (minimum 2)", c.StallThreshold)
	}
	if c.CircuitBreakerFailureThreshold < 2 {
		return fmt.Errorf("safety: circuit_breaker_failure_threshold (%d) is too small (minimum 2)", c.CircuitBreakerFailureThreshold)
	}
	return nil
}

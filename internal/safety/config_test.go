package safety

import "testing"

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxToolCallsPerTurn != 20 {
		t.Errorf("MaxToolCallsPerTurn = %d, want 20", c.MaxToolCallsPerTurn)
	}
	if c.MaxIdenticalCalls != 2 {
		t.Errorf("MaxIdenticalCalls = %d, want 2", c.MaxIdenticalCalls)
	}
	if c.ToolTimeoutMS != 30_000 {
		t.Errorf("ToolTimeoutMS = %d, want 30000", c.ToolTimeoutMS)
	}
	if c.SessionExecutionBudget != 100 {
		t.Errorf("SessionExecutionBudget = %d, want 100", c.SessionExecutionBudget)
	}
	if c.StallThreshold != 5 {
		t.Errorf("StallThreshold = %d, want 5", c.StallThreshold)
	}
}

func TestNewConfig(t *testing.T) {
	c, err := NewConfig(50, 3, 60_000, 200)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.MaxToolCallsPerTurn != 50 || c.MaxIdenticalCalls != 3 || c.ToolTimeoutMS != 60_000 || c.SessionExecutionBudget != 200 {
		t.Errorf("unexpected config: %+v", c)
	}
}

func TestNewConfigRejectsZeroLimits(t *testing.T) {
	cases := []struct {
		name                   string
		maxTurn                int
		maxIdentical           int
		timeoutMS              int64
		sessionExecutionBudget int
	}{
		{"zero turn limit", 0, 2, 30_000, 100},
		{"zero identical", 20, 0, 30_000, 100},
		{"zero timeout", 20, 2, 0, 100},
		{"zero budget", 20, 2, 30_000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.maxTurn, tc.maxIdentical, tc.timeoutMS, tc.sessionExecutionBudget)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestPermissiveConfig(t *testing.T) {
	c := PermissiveConfig()
	if c.MaxToolCallsPerTurn != 1000 || c.MaxIdenticalCalls != 100 || c.SessionExecutionBudget != 10_000 {
		t.Errorf("unexpected permissive config: %+v", c)
	}
}

func TestRestrictiveConfig(t *testing.T) {
	c := RestrictiveConfig()
	if c.MaxToolCallsPerTurn != 10 || c.MaxIdenticalCalls != 1 || c.SessionExecutionBudget != 50 {
		t.Errorf("unexpected restrictive config: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}

	cases := []Config{
		{MaxToolCallsPerTurn: 101, StallThreshold: 5, CircuitBreakerFailureThreshold: 5},
		{ToolTimeoutMS: 300_001, StallThreshold: 5, CircuitBreakerFailureThreshold: 5},
		{StallThreshold: 1, CircuitBreakerFailureThreshold: 5},
		{CircuitBreakerFailureThreshold: 1, StallThreshold: 5},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error, got nil", i)
		}
	}
}

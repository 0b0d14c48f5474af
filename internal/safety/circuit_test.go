package safety

import (
	"errors"
	"testing"
	"time"
)

func TestNewBreakerHasClosedState(t *testing.T) {
	cb := NewCircuitBreaker()
	if cb.State("file_read") != Closed {
		t.Errorf("State = %v, want Closed", cb.State("file_read"))
	}
	if cb.FailureCount("file_read") != 0 {
		t.Errorf("FailureCount = %d, want 0", cb.FailureCount("file_read"))
	}
}

func TestSuccessDoesNotOpenCircuit(t *testing.T) {
	cb := NewCircuitBreaker()
	if err := cb.TryExecute("test_tool", func() error { return nil }); err != nil {
		t.Fatalf("TryExecute returned error: %v", err)
	}
	if cb.State("test_tool") != Closed {
		t.Errorf("State = %v, want Closed", cb.State("test_tool"))
	}
}

func TestFailuresOpenCircuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 3
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }

	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Closed || cb.FailureCount("test_tool") != 1 {
		t.Fatalf("after 1 failure: state=%v count=%d", cb.State("test_tool"), cb.FailureCount("test_tool"))
	}

	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Closed || cb.FailureCount("test_tool") != 2 {
		t.Fatalf("after 2 failures: state=%v count=%d", cb.State("test_tool"), cb.FailureCount("test_tool"))
	}

	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open || cb.FailureCount("test_tool") != 3 {
		t.Fatalf("after 3 failures: state=%v count=%d", cb.State("test_tool"), cb.FailureCount("test_tool"))
	}
}

func TestOpenCircuitBlocksExecution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open {
		t.Fatalf("state = %v, want Open", cb.State("test_tool"))
	}

	err := cb.TryExecute("test_tool", func() error { return nil })
	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *CircuitOpenError, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 3
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)
	if cb.FailureCount("test_tool") != 2 {
		t.Fatalf("FailureCount = %d, want 2", cb.FailureCount("test_tool"))
	}

	_ = cb.TryExecute("test_tool", func() error { return nil })
	if cb.FailureCount("test_tool") != 0 {
		t.Fatalf("FailureCount = %d, want 0 after success", cb.FailureCount("test_tool"))
	}
}

func TestResetClearsCircuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open {
		t.Fatalf("state = %v, want Open", cb.State("test_tool"))
	}

	cb.Reset("test_tool")
	if cb.State("test_tool") != Closed || cb.FailureCount("test_tool") != 0 {
		t.Fatalf("after reset: state=%v count=%d", cb.State("test_tool"), cb.FailureCount("test_tool"))
	}
}

func TestResetAllClearsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("tool1", fail)
	_ = cb.TryExecute("tool1", fail)
	_ = cb.TryExecute("tool2", fail)
	_ = cb.TryExecute("tool2", fail)

	if cb.State("tool1") != Open || cb.State("tool2") != Open {
		t.Fatal("expected both tools Open before reset")
	}

	cb.ResetAll()
	if cb.State("tool1") != Closed || cb.State("tool2") != Closed {
		t.Fatal("expected both tools Closed after ResetAll")
	}
}

func TestHalfOpenToClosedOnSuccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cfg.CircuitBreakerSuccessThreshold = 2
	cfg.CircuitBreakerOpenTimeoutMS = 10
	cfg.CircuitBreakerHalfOpenMaxCalls = 10
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open {
		t.Fatalf("state = %v, want Open", cb.State("test_tool"))
	}

	time.Sleep(20 * time.Millisecond)

	ok := func() error { return nil }
	_ = cb.TryExecute("test_tool", ok)
	if cb.State("test_tool") != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen", cb.State("test_tool"))
	}

	_ = cb.TryExecute("test_tool", ok)
	if cb.State("test_tool") != Closed {
		t.Fatalf("state = %v, want Closed", cb.State("test_tool"))
	}
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cfg.CircuitBreakerOpenTimeoutMS = 10
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open {
		t.Fatalf("state = %v, want Open", cb.State("test_tool"))
	}

	time.Sleep(20 * time.Millisecond)

	_ = cb.TryExecute("test_tool", func() error { return nil })
	if cb.State("test_tool") != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen", cb.State("test_tool"))
	}

	_ = cb.TryExecute("test_tool", fail)
	if cb.State("test_tool") != Open {
		t.Fatalf("state = %v, want Open after HalfOpen failure", cb.State("test_tool"))
	}
}

func TestHalfOpenRespectsMaxCalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cfg.CircuitBreakerSuccessThreshold = 10
	cfg.CircuitBreakerOpenTimeoutMS = 10
	cfg.CircuitBreakerHalfOpenMaxCalls = 2
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("test_tool", fail)
	_ = cb.TryExecute("test_tool", fail)

	time.Sleep(20 * time.Millisecond)

	ok := func() error { return nil }
	_ = cb.TryExecute("test_tool", ok)
	if cb.State("test_tool") != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen after 1st probe", cb.State("test_tool"))
	}
	_ = cb.TryExecute("test_tool", ok)
	if cb.State("test_tool") != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen after 2nd probe", cb.State("test_tool"))
	}

	err := cb.TryExecute("test_tool", ok)
	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *CircuitOpenError on 3rd probe, got %v", err)
	}
}

func TestPerToolIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CircuitBreakerFailureThreshold = 2
	cb := NewCircuitBreakerWithConfig(cfg)

	fail := func() error { return errors.New("boom") }
	_ = cb.TryExecute("tool1", fail)
	_ = cb.TryExecute("tool1", fail)
	if cb.State("tool1") != Open {
		t.Fatalf("tool1 state = %v, want Open", cb.State("tool1"))
	}
	if cb.State("tool2") != Closed {
		t.Fatalf("tool2 state = %v, want Closed", cb.State("tool2"))
	}

	if err := cb.TryExecute("tool2", func() error { return nil }); err != nil {
		t.Fatalf("tool2 TryExecute failed: %v", err)
	}
}

func TestExecuteReturnsValue(t *testing.T) {
	cb := NewCircuitBreaker()
	result, err := Execute(cb, "test_tool", func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
}

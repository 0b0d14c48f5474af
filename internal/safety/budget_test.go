package safety

import (
	"errors"
	"testing"
)

func TestNewTracker(t *testing.T) {
	tr := NewBudgetTracker()
	if tr.SessionCalls() != 0 || tr.TurnCalls() != 0 {
		t.Fatalf("new tracker not zeroed: session=%d turn=%d", tr.SessionCalls(), tr.TurnCalls())
	}
	if tr.IsSessionExhausted() || tr.IsTurnExhausted() {
		t.Fatal("new tracker should not be exhausted")
	}
}

func TestCheckAndRecordCall(t *testing.T) {
	tr := NewBudgetTracker()
	if err := tr.CheckCall("file_read"); err != nil {
		t.Fatalf("CheckCall failed: %v", err)
	}
	tr.RecordCall("file_read")

	if tr.SessionCalls() != 1 || tr.TurnCalls() != 1 || tr.ToolCalls("file_read") != 1 {
		t.Fatalf("unexpected counters: session=%d turn=%d tool=%d",
			tr.SessionCalls(), tr.TurnCalls(), tr.ToolCalls("file_read"))
	}
}

func TestTurnLimitEnforcement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 2
	cfg.SessionExecutionBudget = 100
	tr := NewBudgetTrackerWithConfig(cfg)

	mustCheckRecord(t, tr, "file_read")
	mustCheckRecord(t, tr, "file_search")

	var budgetErr *BudgetExhaustedError
	if err := tr.CheckCall("file_glob"); !errors.As(err, &budgetErr) {
		t.Fatalf("expected *BudgetExhaustedError, got %v", err)
	}
}

func TestNewTurnResetsTurnCounter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 2
	cfg.SessionExecutionBudget = 100
	tr := NewBudgetTrackerWithConfig(cfg)

	mustCheckRecord(t, tr, "file_read")
	mustCheckRecord(t, tr, "file_search")
	if !tr.IsTurnExhausted() {
		t.Fatal("expected turn exhausted")
	}

	tr.NewTurn()
	if tr.IsTurnExhausted() || tr.TurnCalls() != 0 {
		t.Fatal("NewTurn should reset turn counter")
	}
	mustCheckRecord(t, tr, "file_glob")
}

func TestSessionLimitEnforcement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 100
	cfg.SessionExecutionBudget = 3
	tr := NewBudgetTrackerWithConfig(cfg)

	mustCheckRecord(t, tr, "file_read")
	mustCheckRecord(t, tr, "file_search")
	mustCheckRecord(t, tr, "file_glob")

	var sessionErr *SessionExhaustedError
	if err := tr.CheckCall("file_read"); !errors.As(err, &sessionErr) {
		t.Fatalf("expected *SessionExhaustedError, got %v", err)
	}
}

func TestNewSessionResetsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 5
	cfg.SessionExecutionBudget = 10
	tr := NewBudgetTrackerWithConfig(cfg)

	mustCheckRecord(t, tr, "file_read")
	mustCheckRecord(t, tr, "file_search")
	if tr.SessionCalls() != 2 {
		t.Fatalf("SessionCalls = %d, want 2", tr.SessionCalls())
	}

	tr.NewSession()
	if tr.SessionCalls() != 0 || tr.TurnCalls() != 0 || tr.ToolCalls("file_read") != 0 {
		t.Fatal("NewSession should reset all counters")
	}
}

func TestRemainingCalculations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 10
	cfg.SessionExecutionBudget = 50
	tr := NewBudgetTrackerWithConfig(cfg)

	if tr.SessionRemaining() != 50 || tr.TurnRemaining() != 10 {
		t.Fatal("unexpected initial remaining values")
	}

	mustCheckRecord(t, tr, "file_read")
	if tr.SessionRemaining() != 49 || tr.TurnRemaining() != 9 {
		t.Fatal("unexpected remaining values after one call")
	}
}

func TestMultipleToolsTrackedSeparately(t *testing.T) {
	tr := NewBudgetTracker()
	mustCheckRecord(t, tr, "file_read")
	mustCheckRecord(t, tr, "file_search")
	mustCheckRecord(t, tr, "file_read")

	if tr.ToolCalls("file_read") != 2 || tr.ToolCalls("file_search") != 1 || tr.SessionCalls() != 3 {
		t.Fatalf("unexpected per-tool counts: read=%d search=%d session=%d",
			tr.ToolCalls("file_read"), tr.ToolCalls("file_search"), tr.SessionCalls())
	}
}

func TestTurnCounterIndependentOfSession(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 2
	cfg.SessionExecutionBudget = 10
	tr := NewBudgetTrackerWithConfig(cfg)

	mustCheckRecord(t, tr, "tool1")
	mustCheckRecord(t, tr, "tool2")
	if !tr.IsTurnExhausted() || tr.IsSessionExhausted() {
		t.Fatal("expected turn exhausted, session not exhausted")
	}

	tr.NewTurn()
	mustCheckRecord(t, tr, "tool3")
}

func TestCheckWithoutRecordDoesntCount(t *testing.T) {
	tr := NewBudgetTracker()
	if err := tr.CheckCall("file_read"); err != nil {
		t.Fatalf("CheckCall failed: %v", err)
	}
	if tr.SessionCalls() != 0 || tr.ToolCalls("file_read") != 0 {
		t.Fatal("CheckCall alone should not increment any counter")
	}
	tr.RecordCall("file_read")
	if tr.SessionCalls() != 1 || tr.ToolCalls("file_read") != 1 {
		t.Fatal("RecordCall should increment session and per-tool counters")
	}
}

func TestToolBudgetIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxToolCallsPerTurn = 100
	cfg.SessionExecutionBudget = 100
	tr := NewBudgetTrackerWithConfig(cfg)

	for i := 0; i < 50; i++ {
		mustCheckRecord(t, tr, "file_read")
	}
	if tr.ToolCalls("file_read") != 50 {
		t.Fatalf("ToolCalls(file_read) = %d, want 50", tr.ToolCalls("file_read"))
	}

	mustCheckRecord(t, tr, "file_search")
	if tr.ToolCalls("file_search") != 1 {
		t.Fatalf("ToolCalls(file_search) = %d, want 1", tr.ToolCalls("file_search"))
	}
}

func mustCheckRecord(t *testing.T, tr *BudgetTracker, tool string) {
	t.Helper()
	if err := tr.CheckCall(tool); err != nil {
		t.Fatalf("CheckCall(%q) failed: %v", tool, err)
	}
	tr.RecordCall(tool)
}

package history

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndQueryAction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.RecordAction(ctx, Action{
		ID: "a1", Tool: "file_read", SessionID: "sess-1",
		Timestamp: 1000, Success: true, Result: "ok", DurationMS: 5,
	})
	if err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	actions, err := s.Query(ctx, QueryFilter{Tool: "file_read"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].ID != "a1" || !actions[0].Success {
		t.Errorf("unexpected action: %+v", actions[0])
	}
}

func TestQueryFiltersBySuccessOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordAction(ctx, Action{ID: "a1", Tool: "file_read", SessionID: "s", Timestamp: 1, Success: true})
	s.RecordAction(ctx, Action{ID: "a2", Tool: "file_read", SessionID: "s", Timestamp: 2, Success: false})

	actions, err := s.Query(ctx, QueryFilter{SuccessOnly: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(actions) != 1 || actions[0].ID != "a1" {
		t.Errorf("expected only successful action a1, got %+v", actions)
	}
}

func TestQueryOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordAction(ctx, Action{ID: "a1", Tool: "x", SessionID: "s", Timestamp: 1, Success: true})
	s.RecordAction(ctx, Action{ID: "a2", Tool: "x", SessionID: "s", Timestamp: 2, Success: true})

	actions, err := s.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(actions) != 2 || actions[0].ID != "a2" {
		t.Errorf("expected a2 first (most recent), got %+v", actions)
	}
}

func TestSummarizeComputesSuccessRate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordAction(ctx, Action{ID: "a1", Tool: "splice_patch", SessionID: "s", Timestamp: 1, Success: true, DurationMS: 10})
	s.RecordAction(ctx, Action{ID: "a2", Tool: "splice_patch", SessionID: "s", Timestamp: 2, Success: false, DurationMS: 20})
	s.RecordAction(ctx, Action{ID: "a3", Tool: "splice_patch", SessionID: "s", Timestamp: 3, Success: true, DurationMS: 30})

	sum, err := s.Summarize(ctx, "splice_patch", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Total != 3 || sum.Succeeded != 2 || sum.Failed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.SuccessRate < 0.66 || sum.SuccessRate > 0.67 {
		t.Errorf("expected success rate ~0.667, got %f", sum.SuccessRate)
	}
}

func TestSummarizeEmptyDefaultsToFullSuccessRate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sum, err := s.Summarize(ctx, "nonexistent_tool", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Total != 0 || sum.SuccessRate != 1.0 {
		t.Errorf("expected empty summary with success rate 1.0, got %+v", sum)
	}
}

func TestLastQueryTrackerGroundingWindow(t *testing.T) {
	tr := NewLastQueryTracker()

	if tr.IsGrounded("s1", 100) {
		t.Error("session with no memory_query should not be grounded")
	}

	tr.RecordQuery("s1", 1000)

	if !tr.IsGrounded("s1", 1000+GroundingWindowMS) {
		t.Error("should be grounded exactly at the window boundary")
	}
	if tr.IsGrounded("s1", 1000+GroundingWindowMS+1) {
		t.Error("should not be grounded just past the window boundary")
	}
	if !tr.IsGrounded("s1", 1500) {
		t.Error("should be grounded well within the window")
	}
}

func TestRecordFileSnapshotAndAIDecision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.RecordAction(ctx, Action{ID: "a1", Tool: "file_write", SessionID: "s", Timestamp: 1, Success: true}); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if err := s.RecordFileSnapshot(ctx, "snap1", "a1", "main.go", "package main", "deadbeef", 1); err != nil {
		t.Fatalf("RecordFileSnapshot: %v", err)
	}
	if err := s.RecordAIDecision(ctx, "dec1", "a1", "chose file_write because user asked to save", 0.9, 1); err != nil {
		t.Fatalf("RecordAIDecision: %v", err)
	}
}

package safety

import (
	"errors"
	"testing"
)

func argMap() map[string]string {
	return map[string]string{"path": "."}
}

func TestNewDetector(t *testing.T) {
	d := NewDetector()
	if d.StepNumber() != 0 || d.HistorySize() != 0 || d.CanDetect() {
		t.Fatal("new detector should be empty and unable to detect")
	}
}

func TestSingleStepNoStall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	d := NewDetectorWithConfig(cfg)

	if err := d.RecordStep("file_read", argMap(), nil); err != nil {
		t.Fatalf("unexpected stall: %v", err)
	}
	if d.StepNumber() != 1 {
		t.Fatalf("StepNumber = %d, want 1", d.StepNumber())
	}
	if d.CanDetect() {
		t.Fatal("should not be able to detect yet")
	}
}

func TestNoStateChangeDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	if err := d.RecordStep("file_read", args, nil); err != nil {
		t.Fatalf("unexpected stall at step 1: %v", err)
	}
	if d.CanDetect() {
		t.Fatal("should not detect yet")
	}
	if err := d.RecordStep("file_read", args, nil); err != nil {
		t.Fatalf("unexpected stall at step 2: %v", err)
	}
	if d.CanDetect() {
		t.Fatal("should not detect yet")
	}

	err := d.RecordStep("file_read", args, nil)
	var stallErr *StallError
	if !errors.As(err, &stallErr) || stallErr.Reason != NoStateChange {
		t.Fatalf("expected NoStateChange, got %v", err)
	}
	if !d.CanDetect() {
		t.Fatal("should be able to detect now")
	}
}

func TestDifferentToolsPreventStall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	_ = d.RecordStep("file_read", args, nil)
	_ = d.RecordStep("file_search", args, nil)
	if err := d.RecordStep("file_glob", args, nil); err != nil {
		t.Fatalf("expected no stall, got %v", err)
	}
}

func TestFileModificationPreventsStall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	_ = d.RecordStep("file_write", args, []string{"file1.txt"})
	_ = d.RecordStep("file_write", args, []string{"file2.txt"})
	if err := d.RecordStep("file_write", args, []string{"file3.txt"}); err != nil {
		t.Fatalf("expected no stall, got %v", err)
	}
}

func TestIdenticalCallDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIdenticalCalls = 2
	cfg.StallThreshold = 5
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	_ = d.RecordStep("file_read", args, nil)
	if err := d.RecordStep("file_read", args, nil); err != nil {
		t.Fatalf("second identical call should be ok, got %v", err)
	}

	err := d.RecordStep("file_read", args, nil)
	var stallErr *StallError
	if !errors.As(err, &stallErr) || stallErr.Reason != IdenticalCalls {
		t.Fatalf("expected IdenticalCalls, got %v", err)
	}
}

func TestDifferentArgsAllowSameTool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIdenticalCalls = 2
	cfg.StallThreshold = 5
	d := NewDetectorWithConfig(cfg)

	args1 := map[string]string{"path": "file1.txt"}
	args2 := map[string]string{"path": "file2.txt"}

	_ = d.RecordStep("file_read", args1, nil)
	_ = d.RecordStep("file_read", args2, nil)
	_ = d.RecordStep("file_read", args1, nil)
	_ = d.RecordStep("file_read", args2, nil)

	err := d.RecordStep("file_read", args1, nil)
	var stallErr *StallError
	if !errors.As(err, &stallErr) || stallErr.Reason != IdenticalCalls {
		t.Fatalf("expected IdenticalCalls on third (file1.txt) call, got %v", err)
	}
}

func TestResetClearsState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	_ = d.RecordStep("file_read", args, nil)
	_ = d.RecordStep("file_read", args, nil)
	_ = d.RecordStep("file_read", args, nil)

	if d.StepNumber() != 3 || !d.CanDetect() {
		t.Fatal("expected 3 steps recorded and detection possible")
	}

	d.Reset()
	if d.StepNumber() != 0 || d.HistorySize() != 0 || d.CanDetect() {
		t.Fatal("Reset should clear all state")
	}
}

func TestToolLoopDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 3
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	tools := []string{"file_read", "file_search", "file_read", "file_search", "file_read"}
	for _, tool := range tools {
		_ = d.RecordStep(tool, args, nil)
	}

	err := d.RecordStep("file_search", args, nil)
	var stallErr *StallError
	if !errors.As(err, &stallErr) || stallErr.Reason != ToolLoop {
		t.Fatalf("expected ToolLoop, got %v", err)
	}
}

func TestStallReasonString(t *testing.T) {
	cases := map[StallReason]string{
		NoStateChange:  "no state change across multiple steps",
		ToolLoop:       "repeated tool call sequence detected",
		IdenticalCalls: "identical tool calls detected",
	}
	for reason, want := range cases {
		if got := reason.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", reason, got, want)
		}
	}
}

func TestConfigRespected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StallThreshold = 5
	cfg.MaxIdenticalCalls = 10
	d := NewDetectorWithConfig(cfg)

	args := argMap()
	for i := 0; i < 4; i++ {
		_ = d.RecordStep("file_read", args, nil)
	}
	if d.CanDetect() {
		t.Fatal("should not detect yet after 4 steps with threshold 5")
	}

	_ = d.RecordStep("file_read", args, nil)
	if !d.CanDetect() {
		t.Fatal("should detect after 5th step")
	}

	err := d.RecordStep("file_read", args, nil)
	var stallErr *StallError
	if !errors.As(err, &stallErr) || stallErr.Reason != NoStateChange {
		t.Fatalf("expected NoStateChange, got %v", err)
	}
}

func TestEmptyStepSucceeds(t *testing.T) {
	d := NewDetector()
	if err := d.RecordStep("file_read", map[string]string{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

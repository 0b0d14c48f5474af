package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oldnordic/odincode/internal/approval"
	"github.com/oldnordic/odincode/internal/client"
	"github.com/oldnordic/odincode/internal/executor"
	"github.com/oldnordic/odincode/internal/frame"
	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/message"
	"github.com/oldnordic/odincode/internal/mode"
	"github.com/oldnordic/odincode/internal/registry"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/safety"
	"github.com/oldnordic/odincode/internal/symbols"
)

// testHarness wires a real Executor/Registry/Router over a temp root and
// an in-memory action-history/symbol-index store, matching the way
// internal/executor's own tests build their collaborators.
type testHarness struct {
	loop *AgentLoop
	root string
}

func newTestHarness(t *testing.T, responses []message.CompletionResponse, userMessage string) *testHarness {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	sym, err := symbols.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("symbols.Open: %v", err)
	}
	t.Cleanup(func() { sym.Close() })

	hist, err := history.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	tracker := history.NewLastQueryTracker()
	reg := registry.New()
	exec := executor.New(reg, sym, hist, tracker, root)
	rt := router.NewWithRegistry(reg)

	fake := &client.FakeClient{Responses: responses}

	loop := NewAgentLoop("sess-1", fake, userMessage, reg, exec, rt, hist)
	return &testHarness{loop: loop, root: root}
}

func respond(text string) message.CompletionResponse {
	return message.CompletionResponse{Content: text, StopReason: "end_turn"}
}

func toolCallText(tool string, args map[string]string) string {
	s := fmt.Sprintf("TOOL_CALL:\n  tool: %s\n  args:\n", tool)
	for k, v := range args {
		s += fmt.Sprintf("    %s: %s\n", k, v)
	}
	return s
}

func TestStartReadOnlyLoopSuccess(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("file_read", map[string]string{"path": "config.go"})),
		respond("The config file declares package config."),
	}, "find the config file")

	if err := os.WriteFile(filepath.Join(h.root, "config.go"), []byte("package config\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	res, err := h.loop.Start(context.Background(), "find the config file")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done || res.Paused {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if res.FinalText != "The config file declares package config." {
		t.Errorf("FinalText = %q, want the second response's text", res.FinalText)
	}
	if h.loop.Step != 1 {
		t.Errorf("Step = %d, want 1 (one tool execution)", h.loop.Step)
	}
	if h.loop.CurrentMode != mode.Explore {
		t.Errorf("CurrentMode = %v, want Explore", h.loop.CurrentMode)
	}
}

func TestModeQuotaExhaustionForcesPresentation(t *testing.T) {
	glob := toolCallText("file_glob", map[string]string{"pattern": "*.go"})
	h := newTestHarness(t, []message.CompletionResponse{
		respond(glob), // 1/3
		respond(glob), // 2/3
		respond(glob), // 3/3 -> quota exhausted, switches to Presentation
		respond(glob), // rejected: file_glob not allowed in Presentation
		respond("Based on what I found, here is the summary."),
	}, "find every Go file")

	res, err := h.loop.Start(context.Background(), "find every Go file")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if h.loop.CurrentMode != mode.Presentation {
		t.Errorf("CurrentMode = %v, want Presentation", h.loop.CurrentMode)
	}
	if h.loop.Step != 3 {
		t.Errorf("Step = %d, want 3 (only the allowed calls executed)", h.loop.Step)
	}
	if res.FinalText != "Based on what I found, here is the summary." {
		t.Errorf("FinalText = %q", res.FinalText)
	}
}

func TestGatedToolPausesForApprovalThenRuns(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("git_status", map[string]string{"repo_root": "."})),
		respond("Your working tree is clean."),
	}, "find the status of this repo")

	res, err := h.loop.Start(context.Background(), "find the status of this repo")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Paused || res.Pending == nil {
		t.Fatalf("expected a paused GATED approval, got %+v", res)
	}
	if res.Pending.Tool != "git_status" {
		t.Errorf("Pending.Tool = %q, want git_status", res.Pending.Tool)
	}

	res, err = h.loop.Resolve(context.Background(), approval.Response{Kind: approval.ApproveOnce})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Done || res.Paused {
		t.Fatalf("expected a finished run after approval, got %+v", res)
	}
	if res.FinalText != "Your working tree is clean." {
		t.Errorf("FinalText = %q", res.FinalText)
	}
	if h.loop.Step != 1 {
		t.Errorf("Step = %d, want 1", h.loop.Step)
	}
}

func TestGatedToolDeniedSkipsExecution(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("git_status", map[string]string{"repo_root": "."})),
		respond("Understood, I will not check status."),
	}, "find the status of this repo")

	res, err := h.loop.Start(context.Background(), "find the status of this repo")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Paused {
		t.Fatalf("expected a paused approval, got %+v", res)
	}

	res, err = h.loop.Resolve(context.Background(), approval.Response{Kind: approval.Deny})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run after denial, got %+v", res)
	}
	if h.loop.Step != 0 {
		t.Errorf("Step = %d, want 0 (denied call never executes)", h.loop.Step)
	}
}

func TestApprovedGatedToolStillChecksBudget(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("git_status", map[string]string{"repo_root": "."})),
		respond("I cannot check status within this budget."),
	}, "find the status of this repo")

	// Exhaust the session budget before the user responds to the
	// approval prompt: the approved call must still be rejected.
	cfg := safety.DefaultConfig()
	cfg.SessionExecutionBudget = 1
	h.loop.Budget = safety.NewBudgetTrackerWithConfig(cfg)
	h.loop.Budget.RecordCall("file_read")

	res, err := h.loop.Start(context.Background(), "find the status of this repo")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Paused {
		t.Fatalf("expected a paused approval, got %+v", res)
	}

	res, err = h.loop.Resolve(context.Background(), approval.Response{Kind: approval.ApproveOnce})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if h.loop.Step != 0 {
		t.Errorf("Step = %d, want 0 (approved call rejected by exhausted budget)", h.loop.Step)
	}
	if h.loop.CurrentMode != mode.Presentation {
		t.Errorf("CurrentMode = %v, want Presentation after budget exhaustion", h.loop.CurrentMode)
	}
	for _, f := range h.loop.Frames.Frames() {
		if f.Kind == frame.Tool && f.ToolName == "git_status" {
			t.Fatal("git_status must not produce a tool frame when the budget is exhausted")
		}
	}
}

func TestGroundingViolationThenRetryAfterMemoryQuery(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("file_create", map[string]string{"path": "new.txt", "contents": "hi"})),
		respond(toolCallText("memory_query", map[string]string{})),
		respond(toolCallText("file_create", map[string]string{"path": "new.txt", "contents": "hi"})),
		respond("Created new.txt."),
	}, "edit the file new.txt")

	res, err := h.loop.Start(context.Background(), "edit the file new.txt")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if res.FinalText != "Created new.txt." {
		t.Errorf("FinalText = %q", res.FinalText)
	}

	if _, err := os.Stat(filepath.Join(h.root, "new.txt")); err != nil {
		t.Errorf("expected new.txt to exist after grounded retry: %v", err)
	}

	found := false
	for _, f := range h.loop.Frames.Frames() {
		if f.Kind == frame.Tool && f.ToolName == "file_create" && !f.ToolSuccess {
			found = true
		}
	}
	if !found {
		t.Error("expected a failed file_create tool frame recording the grounding violation")
	}
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	read := toolCallText("file_read", map[string]string{"path": "missing.txt"})
	responses := []message.CompletionResponse{
		respond(read), respond(read), respond(read), respond(read), respond(read),
		respond("Giving up on reading that file."),
	}
	// A Mutation-mode prompt (quota 5) lets the 4th and 5th calls reach
	// the open circuit instead of being rejected by the mode quota.
	h := newTestHarness(t, responses, "fix the contents of missing.txt")

	// Isolate the circuit breaker: use a low failure threshold and
	// disable the stall detector's window checks so only the circuit
	// breaker's own threshold governs this scenario.
	cbCfg := safety.DefaultConfig()
	cbCfg.CircuitBreakerFailureThreshold = 3
	h.loop.Circuit = safety.NewCircuitBreakerWithConfig(cbCfg)
	h.loop.Stall = safety.NewDetectorWithConfig(safety.PermissiveConfig())

	res, err := h.loop.Start(context.Background(), "fix the contents of missing.txt")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if h.loop.Circuit.State("file_read") != safety.Open {
		t.Errorf("file_read circuit state = %v, want Open", h.loop.Circuit.State("file_read"))
	}

	sawCircuitOpen := false
	for _, f := range h.loop.Frames.Frames() {
		if f.ToolName == "system" && strings.Contains(f.Text, "circuit breaker OPEN") {
			sawCircuitOpen = true
		}
	}
	if !sawCircuitOpen {
		t.Error("expected a system frame once the circuit opened and rejected further calls")
	}
}

func TestStallDetectorCatchesAlternatingToolLoop(t *testing.T) {
	a := toolCallText("file_glob", map[string]string{"pattern": "*.go"})
	b := toolCallText("file_search", map[string]string{"pattern": "TODO"})
	responses := []message.CompletionResponse{
		respond(a), respond(b), respond(a), respond(b), respond(a),
		respond("Done looking around."),
	}
	// Mutation mode's quota is exactly 5, matching the 5 tool calls below,
	// so the mode-quota switch to Presentation never preempts the 5th
	// call before the stall detector's window fills.
	h := newTestHarness(t, responses, "fix every TODO")

	// Isolate the stall detector from the circuit breaker for this
	// scenario: a permissive circuit never opens on its own.
	h.loop.Circuit = safety.NewCircuitBreakerWithConfig(safety.PermissiveConfig())
	// file_glob(*.go) repeats three times, which the default identical-call
	// limit of 2 would report before the alternating-pattern check runs.
	stallCfg := safety.DefaultConfig()
	stallCfg.MaxIdenticalCalls = 10
	h.loop.Stall = safety.NewDetectorWithConfig(stallCfg)

	res, err := h.loop.Start(context.Background(), "fix every TODO")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}

	sawStall := false
	for _, f := range h.loop.Frames.Frames() {
		if f.ToolName == "system" && strings.Contains(f.Text, safety.ToolLoop.String()) {
			sawStall = true
		}
	}
	if !sawStall {
		t.Error("expected a system frame once the alternating tool-call pattern was detected")
	}
}

func TestNewAgentLoopWithConfigAppliesProfile(t *testing.T) {
	h := newTestHarness(t, []message.CompletionResponse{
		respond(toolCallText("file_glob", map[string]string{"pattern": "*.go"})),
		respond(toolCallText("file_glob", map[string]string{"pattern": "*.md"})),
		respond("That is all I can look at."),
	}, "find every Go file")

	cfg := safety.DefaultConfig()
	cfg.SessionExecutionBudget = 1
	loop := NewAgentLoopWithConfig("sess-cfg", h.loop.Adapter, "find every Go file",
		h.loop.Registry, h.loop.Executor, h.loop.Router, h.loop.History, cfg)

	res, err := loop.Start(context.Background(), "find every Go file")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected a finished run, got %+v", res)
	}
	if loop.Step != 1 {
		t.Errorf("Step = %d, want 1 (second call rejected by the 1-call session budget)", loop.Step)
	}
	if loop.CurrentMode != mode.Presentation {
		t.Errorf("CurrentMode = %v, want Presentation after budget exhaustion", loop.CurrentMode)
	}
}

func TestResolveWithoutPendingApprovalErrors(t *testing.T) {
	h := newTestHarness(t, nil, "find something")
	if _, err := h.loop.Resolve(context.Background(), approval.Response{Kind: approval.ApproveOnce}); err == nil {
		t.Fatal("expected an error resolving with no pending approval")
	}
}

func TestMaxAutoStepsTerminatesRun(t *testing.T) {
	read := toolCallText("file_glob", map[string]string{"pattern": "*.go"})
	responses := make([]message.CompletionResponse, 10)
	for i := range responses {
		responses[i] = respond(read)
	}
	h := newTestHarness(t, responses, "find every Go file")
	h.loop.Circuit = safety.NewCircuitBreakerWithConfig(safety.PermissiveConfig())
	h.loop.Stall = safety.NewDetectorWithConfig(safety.PermissiveConfig())
	h.loop.Budget = safety.NewBudgetTrackerWithConfig(safety.PermissiveConfig())
	h.loop.MaxAutoSteps = 3

	res, err := h.loop.Start(context.Background(), "find every Go file")
	if err == nil {
		t.Fatal("expected ErrMaxStepsExceeded")
	}
	if !res.Terminal {
		t.Error("expected a terminal result once the step ceiling is hit")
	}
	if h.loop.Step != 3 {
		t.Errorf("Step = %d, want 3", h.loop.Step)
	}
}

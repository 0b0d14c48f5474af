package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oldnordic/odincode/internal/approval"
	"github.com/oldnordic/odincode/internal/executor"
	"github.com/oldnordic/odincode/internal/frame"
	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/log"
	"github.com/oldnordic/odincode/internal/message"
	"github.com/oldnordic/odincode/internal/mode"
	"github.com/oldnordic/odincode/internal/registry"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/safety"
	"github.com/oldnordic/odincode/internal/toolcall"
)

// DefaultMaxAutoSteps bounds how many tool-execution steps a single
// AgentLoop run may take before it is forced to stop and report back,
// independent of any mode quota — a hard backstop against a safety
// substrate that is itself misconfigured.
const DefaultMaxAutoSteps = 50

// ErrMaxStepsExceeded is returned (and also set on the RunResult) when a
// run hits DefaultMaxAutoSteps without reaching a final prose reply.
var ErrMaxStepsExceeded = errors.New("agent loop: max auto steps exceeded")

// RunResult is what Start/Resolve return to the caller: either the loop
// paused for a GATED approval decision, or it finished (with a final
// reply, possibly after a hard or soft termination).
type RunResult struct {
	// Paused is true when the loop is waiting on Resolve with a user
	// decision for Pending.
	Paused  bool
	Pending *approval.Pending

	// Done is true when the loop produced a final answer (or gave up).
	Done      bool
	FinalText string

	// Terminal marks a Done result the caller should not casually
	// restart (session budget exhausted, quit requested, max steps).
	Terminal bool
	Err      error
}

// AgentLoop is the main-thread loop driver: a single-threaded state
// machine that spawns a background LLM I/O thread for each round trip,
// classifies and routes any TOOL_CALL the reply contains against the
// safety substrate, executes AUTO tools and gates GATED ones behind
// user approval, and re-prompts the LLM with the result appended to the
// conversation record.
//
// AgentLoop is not safe for concurrent use: exactly one goroutine should
// drive Start/Resolve for a given session at a time. All loop state is
// owned by that goroutine; the only cross-thread traffic is the event
// channel from the I/O thread.
type AgentLoop struct {
	SessionID string
	Adapter   ChatAdapter

	Frames   *frame.Stack
	Registry *registry.Registry
	Executor *executor.Executor
	Router   *router.Router
	History  *history.Store

	Circuit  *safety.CircuitBreaker
	Budget   *safety.BudgetTracker
	Stall    *safety.Detector
	Approval *approval.State

	MaxAutoSteps int           // 0 means DefaultMaxAutoSteps
	Clock        func() int64  // nil means history.NowMS; overridable for tests
	OnUIEvent    func(UIEvent) // optional observer for the UI event stream

	CurrentMode      mode.PromptMode
	Step             int
	ToolCallsInMode  int
	LastResponse     string
	Active           bool
	sessionExhausted bool

	shutdown *shutdownFlag
}

// NewAgentLoop builds an AgentLoop over its required collaborators,
// classifying userMessage's PromptMode to seed the loop.
func NewAgentLoop(sessionID string, adapter ChatAdapter, userMessage string,
	reg *registry.Registry, exec *executor.Executor, rt *router.Router, hist *history.Store) *AgentLoop {
	return &AgentLoop{
		SessionID:    sessionID,
		Adapter:      adapter,
		Frames:       frame.NewStack(),
		Registry:     reg,
		Executor:     exec,
		Router:       rt,
		History:      hist,
		Circuit:      safety.NewCircuitBreaker(),
		Budget:       safety.NewBudgetTracker(),
		Stall:        safety.NewDetector(),
		Approval:     approval.New(),
		MaxAutoSteps: DefaultMaxAutoSteps,
		CurrentMode:  mode.Classify(userMessage),
	}
}

// NewAgentLoopWithConfig is NewAgentLoop with the safety substrate built
// from cfg instead of safety.DefaultConfig, for callers that resolve a
// profile (--safety-profile, gencode.toml) before starting a session.
// The router's fallback truncation threshold is aligned with the
// profile's OutputTruncateChars so one knob governs both.
func NewAgentLoopWithConfig(sessionID string, adapter ChatAdapter, userMessage string,
	reg *registry.Registry, exec *executor.Executor, rt *router.Router, hist *history.Store,
	cfg safety.Config) *AgentLoop {
	a := NewAgentLoop(sessionID, adapter, userMessage, reg, exec, rt, hist)
	a.Circuit = safety.NewCircuitBreakerWithConfig(cfg)
	a.Budget = safety.NewBudgetTrackerWithConfig(cfg)
	a.Stall = safety.NewDetectorWithConfig(cfg)
	if cfg.OutputTruncateChars > 0 {
		rc := rt.Config()
		rc.MaxOutputSize = cfg.OutputTruncateChars
		rt.SetConfig(rc)
	}
	return a
}

func (a *AgentLoop) clock() int64 {
	if a.Clock != nil {
		return a.Clock()
	}
	return history.NowMS()
}

func (a *AgentLoop) maxAutoSteps() int {
	if a.MaxAutoSteps <= 0 {
		return DefaultMaxAutoSteps
	}
	return a.MaxAutoSteps
}

func (a *AgentLoop) emit(ev UIEvent) {
	ev.SessionID = a.SessionID
	if a.OnUIEvent != nil {
		a.OnUIEvent(ev)
	}
}

// Cancel raises the in-flight LLM thread's shutdown flag: chunks
// streamed after this point are dropped, though the thread still emits
// its terminal event. Safe to call when no round trip is in flight.
func (a *AgentLoop) Cancel() {
	if a.shutdown != nil {
		a.shutdown.Signal()
	}
}

// Start begins the loop for userMessage: appends it as the anchoring
// User frame and drives LLM round trips until the loop pauses for
// approval or produces a final answer.
func (a *AgentLoop) Start(ctx context.Context, userMessage string) (*RunResult, error) {
	a.Active = true
	a.Frames.AddUser(userMessage)
	return a.runLoop(ctx, userMessage)
}

// Resolve applies the user's decision on the currently pending GATED
// approval and resumes the loop. It is an error to call Resolve when no
// approval is pending.
func (a *AgentLoop) Resolve(ctx context.Context, resp approval.Response) (*RunResult, error) {
	pending := a.Approval.PendingApproval()
	if pending == nil {
		return nil, fmt.Errorf("agent loop: Resolve called with no pending approval")
	}

	switch resp.Kind {
	case approval.Quit:
		a.Approval.ClearPending()
		a.Active = false
		a.emit(UIEvent{Kind: UILoopComplete, Step: a.Step, Text: a.LastResponse})
		return &RunResult{Done: true, Terminal: true, FinalText: a.LastResponse}, nil

	case approval.Deny:
		a.Approval.ClearPending()
		a.Active = true
		a.Frames.AddTool(frame.ToolResult{Tool: pending.Tool, Success: false, Output: "denied by user"})
		a.emit(UIEvent{Kind: UIToolResult, Step: a.Step, Tool: pending.Tool, Success: false, ErrorMessage: "denied by user"})
		return a.runLoop(ctx, "")

	case approval.ApproveOnce:
		a.Approval.Grant(approval.Once(pending.Tool))
	case approval.ApproveSessionAllGated:
		a.Approval.Grant(approval.SessionAllGated())
	default:
		return nil, fmt.Errorf("agent loop: unknown approval response kind %d", resp.Kind)
	}

	a.Approval.ClearPending()
	a.Active = true

	// Gated execution bypass: an approved GATED call skips the
	// forbidden/mode/classification checks (it already passed them once
	// to become Pending) but still runs through the circuit breaker,
	// budget tracker and stall detector, exactly like an AUTO call.
	if budgetErr := a.Budget.CheckCall(pending.Tool); budgetErr != nil {
		a.injectSystemError(budgetErr.Error())
		a.onBudgetExhausted(budgetErr)
		return a.runLoop(ctx, "")
	}

	res, err := a.executeAndContinue(ctx, toolcall.Call{Tool: pending.Tool, Args: pending.Args})
	if res != nil {
		return res, err
	}
	return a.runLoop(ctx, "")
}

// runLoop drives LLM round trips until a tool call pauses for approval,
// a terminal condition is reached, or the LLM stops issuing tool calls.
// userMessage is the text to echo on the Started UI event for the first
// iteration only; pass "" when resuming after a tool result.
func (a *AgentLoop) runLoop(ctx context.Context, userMessage string) (*RunResult, error) {
	for {
		if a.Step >= a.maxAutoSteps() {
			a.Active = false
			a.emit(UIEvent{Kind: UILoopComplete, Step: a.Step, Text: a.LastResponse})
			return &RunResult{Done: true, Terminal: true, FinalText: a.LastResponse, Err: ErrMaxStepsExceeded}, ErrMaxStepsExceeded
		}

		messages := toProviderMessages(a.Frames.BuildMessages())
		sysPrompt := buildAgentSystemPrompt(a.CurrentMode, a.Registry)

		shutdown := newShutdownFlag()
		a.shutdown = shutdown
		ch := spawnLLM(ctx, a.Adapter, a.SessionID, userMessage, sysPrompt, messages, shutdown)

		res, err, keepGoing := a.drainRoundTrip(ch)
		if !keepGoing {
			return res, err
		}
		userMessage = ""
	}
}

// drainRoundTrip consumes one LLM I/O Thread channel to completion,
// reporting whether the caller should loop again (tool executed, loop
// continues) or return the given result/error to its own caller.
func (a *AgentLoop) drainRoundTrip(ch <-chan Event) (*RunResult, error, bool) {
	for ev := range ch {
		if ev.SessionID != a.SessionID {
			// A late event from a previous session's thread; drop it.
			continue
		}
		switch ev.Kind {
		case EvStarted:
			a.emit(UIEvent{Kind: UIStarted, Step: a.Step, Text: ev.UserMessage})
		case EvChunk:
			a.emit(UIEvent{Kind: UIChunk, Step: a.Step, Text: ev.Text})
		case EvComplete:
			res, err := a.onComplete(ev.FullResponse)
			if res != nil {
				return res, err, false
			}
			return nil, nil, true
		case EvError:
			a.Active = false
			a.emit(UIEvent{Kind: UIError, Step: a.Step, ErrorMessage: ev.Err.Error()})
			return &RunResult{Done: true, Terminal: true, Err: ev.Err}, ev.Err, false
		}
	}
	// Channel closed without a terminal event; treat as a benign finish.
	a.Active = false
	return &RunResult{Done: true, FinalText: a.LastResponse}, nil, false
}

// onComplete processes one full LLM reply: records it as an Assistant
// frame, then either dispatches its TOOL_CALL (returning nil to tell the
// caller to keep looping) or treats it as a final answer.
func (a *AgentLoop) onComplete(fullResponse string) (*RunResult, error) {
	a.Frames.AddAssistant(fullResponse)

	// Each LLM reply opens a new turn: the turn budget counts only the
	// tool calls this reply triggers, while session and per-tool
	// counters keep accumulating.
	a.Budget.NewTurn()

	call, remaining, ok := toolcall.Extract(fullResponse)
	if !ok {
		a.Active = false
		final := remaining
		if final == "" {
			final = fullResponse
		}
		a.LastResponse = final
		a.emit(UIEvent{Kind: UILoopComplete, Step: a.Step, Text: final})
		return &RunResult{Done: true, FinalText: final, Terminal: a.sessionExhausted}, nil
	}

	a.emit(UIEvent{Kind: UIToolCallDetected, Step: a.Step, Tool: call.Tool, Args: call.Args})

	class := a.Registry.Classification(call.Tool)
	if class == registry.Forbidden {
		a.injectSystemError(fmt.Sprintf("tool %q is forbidden and may not be called", call.Tool))
		return nil, nil
	}
	if !mode.ToolAllowed(a.CurrentMode, call.Tool) {
		a.injectSystemError(fmt.Sprintf("tool %q is not permitted in %s mode", call.Tool, a.CurrentMode))
		return nil, nil
	}

	if class == registry.Gated && !a.Approval.IsApproved(call.Tool) {
		pending := approval.NewPending(a.SessionID, call.Tool, call.Args, a.Step, affectedPathHint(call.Args), a.clock())
		a.Approval.SetPending(pending)
		a.Active = false
		a.emit(UIEvent{Kind: UIApprovalRequired, Step: a.Step, Tool: call.Tool, AffectedPath: pending.AffectedPath})
		return &RunResult{Paused: true, Pending: &pending}, nil
	}

	if budgetErr := a.Budget.CheckCall(call.Tool); budgetErr != nil {
		a.injectSystemError(budgetErr.Error())
		a.onBudgetExhausted(budgetErr)
		return nil, nil
	}

	return a.executeAndContinue(context.Background(), call)
}

// executeAndContinue runs an AUTO (or approval-bypassed GATED) call
// through the circuit breaker, records budget/stall state, appends the
// result frame and checks the mode quota. It always returns (nil, nil)
// to tell the caller to keep looping — execution never itself ends a
// run; only the next LLM reply (or a budget/step ceiling) can.
func (a *AgentLoop) executeAndContinue(ctx context.Context, call toolcall.Call) (*RunResult, error) {
	a.Step++
	a.ToolCallsInMode++
	a.emit(UIEvent{Kind: UILoopStepStarted, Step: a.Step, Tool: call.Tool})
	log.Logger().Debug("Agent step started",
		zap.Int("step", a.Step),
		zap.String("tool", call.Tool),
		zap.String("mode", a.CurrentMode.String()),
	)

	var inv executor.Invocation
	ranTool := false

	circuitErr := a.Circuit.TryExecute(call.Tool, func() error {
		ranTool = true
		raw, err := a.Executor.InvokeTool(ctx, executor.Call{
			SessionID: a.SessionID,
			Tool:      call.Tool,
			Args:      call.Args,
			Step:      a.Step,
		}, a.clock())
		inv = normalizeInvocation(raw, err)
		if !inv.Success {
			msg := inv.ErrorMessage
			if msg == "" {
				msg = "tool execution failed"
			}
			return errors.New(msg)
		}
		return nil
	})

	if !ranTool {
		// CircuitOpenError: the call was rejected before it ran, so it
		// never consumes budget, never feeds the stall detector, and
		// the circuit breaker's own state already reflects the
		// rejection — nothing further to record.
		log.Logger().Debug("Circuit rejected call",
			zap.String("tool", call.Tool),
			zap.Error(circuitErr),
		)
		a.injectSystemError(circuitErr.Error())
		a.checkModeQuota()
		return nil, nil
	}

	a.Budget.RecordCall(call.Tool)

	var filesModified []string
	if inv.AffectedPath != "" {
		filesModified = []string{inv.AffectedPath}
	}
	stallErr := a.Stall.RecordStep(call.Tool, call.Args, filesModified)

	execID := uuid.NewString()
	outputText := a.formatToolOutput(call.Tool, inv)
	a.Frames.AddTool(frame.ToolResult{Tool: call.Tool, Success: inv.Success, Output: outputText})
	a.emit(UIEvent{
		Kind:         UIToolResult,
		Step:         a.Step,
		Tool:         call.Tool,
		Success:      inv.Success,
		ErrorMessage: inv.ErrorMessage,
		AffectedPath: inv.AffectedPath,
		OutputKind:   inv.Kind.String(),
		ExecutionID:  execID,
	})

	if stallErr != nil {
		log.Logger().Debug("Stall detected",
			zap.Int("step", a.Step),
			zap.String("tool", call.Tool),
			zap.Error(stallErr),
		)
		a.Stall.Reset()
		a.injectSystemError(stallErr.Error())
	}

	a.checkModeQuota()
	return nil, nil
}

// checkModeQuota forces a switch to Presentation once the current
// mode's tool-call quota is exhausted, announcing the switch as a
// system frame so the LLM understands why further tool calls fail.
func (a *AgentLoop) checkModeQuota() {
	if a.CurrentMode == mode.Presentation {
		return
	}
	if a.ToolCallsInMode >= a.CurrentMode.MaxToolCalls() {
		a.switchToPresentation(fmt.Sprintf(
			"tool-call quota for %s mode exhausted (%d/%d); switch to presentation and answer from what you have",
			a.CurrentMode, a.ToolCallsInMode, a.CurrentMode.MaxToolCalls()))
	}
}

func (a *AgentLoop) onBudgetExhausted(err error) {
	if _, ok := err.(*safety.SessionExhaustedError); ok {
		a.sessionExhausted = true
	}
	if a.CurrentMode != mode.Presentation {
		a.switchToPresentation("tool-call budget exhausted; switch to presentation and answer from what you have")
	}
}

func (a *AgentLoop) switchToPresentation(reason string) {
	log.Logger().Debug("Mode switched to presentation",
		zap.Int("step", a.Step),
		zap.String("reason", reason),
	)
	a.CurrentMode = mode.Presentation
	a.ToolCallsInMode = 0
	a.Frames.AddSystem(reason)
	a.emit(UIEvent{Kind: UIComplete, Step: a.Step, Mode: a.CurrentMode.String(), Text: reason})
}

func (a *AgentLoop) injectSystemError(msg string) {
	a.Frames.AddSystem("[SYSTEM ERROR] " + msg)
}

// formatToolOutput renders an Invocation's output for chat injection: an
// error surfaces its message, a Void (successful write/edit) result
// surfaces a short acknowledgement instead of nothing, and everything
// else surfaces its stdout, truncated per the router's rules.
func (a *AgentLoop) formatToolOutput(tool string, inv executor.Invocation) string {
	text := inv.Stdout
	switch {
	case !inv.Success:
		text = inv.ErrorMessage
		if text == "" {
			text = "tool execution failed"
		}
	case !inv.Kind.ShouldInjectIntoChat():
		text = fmt.Sprintf("%s completed", tool)
	}
	return a.Router.TruncateOutput(tool, text)
}

// normalizeInvocation folds Executor.InvokeTool's two failure shapes
// (the Invocation.Success==false business failures its tool
// implementations return, and the real Go errors InvokeTool itself
// returns for an unknown tool, a missing argument, or a grounding
// violation) into a single Invocation the rest of the loop can treat
// uniformly.
func normalizeInvocation(inv executor.Invocation, err error) executor.Invocation {
	if err != nil {
		return executor.Invocation{Success: false, ErrorMessage: err.Error(), Kind: router.Error}
	}
	return inv
}

// affectedPathHint picks the argument most likely to name the file or
// path a GATED call would touch, for display in the approval prompt.
func affectedPathHint(args map[string]string) string {
	for _, key := range []string{"path", "file", "plan_file"} {
		if v, ok := args[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// toProviderMessages rewrites RoleToolResult frames to RoleUser before
// handing messages to a ChatAdapter: frame.Stack.BuildMessages()
// deliberately renders tool/system frames as RoleToolResult for
// frame-level tests, but the Anthropic provider client's role switch has
// no default case and silently drops any message whose role it does not
// recognize, so it must never see RoleToolResult directly.
func toProviderMessages(msgs []message.Message) []message.Message {
	out := make([]message.Message, len(msgs))
	for i, m := range msgs {
		if m.Role == message.RoleToolResult {
			m.Role = message.RoleUser
		}
		out[i] = m
	}
	return out
}

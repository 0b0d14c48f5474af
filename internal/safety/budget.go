package safety

import "fmt"

// BudgetExhaustedError reports that a per-tool or per-turn budget has
// been used up.
type BudgetExhaustedError struct {
	Scope string // "tool" or "turn"
	Limit int
	Used  int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("%s budget exhausted: %d/%d calls used", e.Scope, e.Used, e.Limit)
}

// SessionExhaustedError reports that the whole-session budget is used up.
type SessionExhaustedError struct {
	Limit int
	Used  int
}

func (e *SessionExhaustedError) Error() string {
	return fmt.Sprintf("session budget exhausted: %d/%d calls used", e.Used, e.Limit)
}

type toolBudget struct {
	calls int
	limit int
}

func (b *toolBudget) remaining() int {
	if b.limit <= b.calls {
		return 0
	}
	return b.limit - b.calls
}

func (b *toolBudget) isExhausted() bool { return b.calls >= b.limit }

// BudgetTracker enforces per-session, per-turn and per-tool limits on
// tool execution, to bound resource usage and cost from a runaway or
// misbehaving LLM.
type BudgetTracker struct {
	tools        map[string]*toolBudget
	sessionCalls int
	sessionLimit int
	turnLimit    int
	turnCalls    int
}

// NewBudgetTracker creates a tracker with the default config.
func NewBudgetTracker() *BudgetTracker {
	return NewBudgetTrackerWithConfig(DefaultConfig())
}

// NewBudgetTrackerWithConfig creates a tracker with a custom config.
func NewBudgetTrackerWithConfig(config Config) *BudgetTracker {
	return &BudgetTracker{
		tools:        make(map[string]*toolBudget),
		sessionLimit: config.SessionExecutionBudget,
		turnLimit:    config.MaxToolCallsPerTurn,
	}
}

// CheckCall reports whether tool may be called, checking session budget,
// then turn budget, then the tool's own budget, in that order. It never
// records the call (RecordCall does that after the tool actually runs),
// so the caller is free to reject the call for other reasons after the
// budget check passes without a phantom call accruing anywhere.
func (t *BudgetTracker) CheckCall(tool string) error {
	if t.sessionCalls >= t.sessionLimit {
		return &SessionExhaustedError{Limit: t.sessionLimit, Used: t.sessionCalls}
	}
	if t.turnCalls >= t.turnLimit {
		return &BudgetExhaustedError{Scope: "turn", Limit: t.turnLimit, Used: t.turnCalls}
	}

	if b := t.budgetFor(tool); b.isExhausted() {
		return &BudgetExhaustedError{Scope: "tool", Limit: b.limit, Used: b.calls}
	}
	return nil
}

// RecordCall records a successful tool call against the session, turn and
// per-tool counters. Call this only after CheckCall succeeds and the tool
// actually executes, so a rejected or failed call never consumes budget.
// The session counter always equals the sum of the per-tool counters.
func (t *BudgetTracker) RecordCall(tool string) {
	t.sessionCalls++
	t.turnCalls++
	t.budgetFor(tool).calls++
}

// budgetFor returns tool's budget, creating it at the default per-tool
// limit on first use.
func (t *BudgetTracker) budgetFor(tool string) *toolBudget {
	b, ok := t.tools[tool]
	if !ok {
		limit := t.sessionLimit
		if limit < 10 {
			limit = 10
		}
		b = &toolBudget{limit: limit}
		t.tools[tool] = b
	}
	return b
}

// NewTurn resets the turn counter, keeping session and per-tool state.
func (t *BudgetTracker) NewTurn() {
	t.turnCalls = 0
}

// NewSession resets every counter, including per-tool budgets.
func (t *BudgetTracker) NewSession() {
	t.tools = make(map[string]*toolBudget)
	t.sessionCalls = 0
	t.turnCalls = 0
}

// SessionCalls returns the total calls made this session.
func (t *BudgetTracker) SessionCalls() int { return t.sessionCalls }

// TurnCalls returns calls made in the current turn.
func (t *BudgetTracker) TurnCalls() int { return t.turnCalls }

// SessionRemaining returns the remaining session budget.
func (t *BudgetTracker) SessionRemaining() int {
	if t.sessionLimit < t.sessionCalls {
		return 0
	}
	return t.sessionLimit - t.sessionCalls
}

// TurnRemaining returns the remaining turn budget.
func (t *BudgetTracker) TurnRemaining() int {
	if t.turnLimit < t.turnCalls {
		return 0
	}
	return t.turnLimit - t.turnCalls
}

// ToolCalls returns the number of calls recorded for tool.
func (t *BudgetTracker) ToolCalls(tool string) int {
	if b, ok := t.tools[tool]; ok {
		return b.calls
	}
	return 0
}

// IsSessionExhausted reports whether the session budget is used up.
func (t *BudgetTracker) IsSessionExhausted() bool { return t.sessionCalls >= t.sessionLimit }

// IsTurnExhausted reports whether the turn budget is used up.
func (t *BudgetTracker) IsTurnExhausted() bool { return t.turnCalls >= t.turnLimit }

// Package approval tracks session-scoped user approval of GATED tools:
// the scope a grant covers, the tool call currently paused awaiting a
// decision, and the accumulated state the loop driver consults before
// re-attempting a GATED invocation.
package approval

import "fmt"

// Scope is the breadth of a single approval grant.
type Scope struct {
	// allSession is true for SessionAllGated; otherwise this scope covers
	// only the named tool (Once).
	allSession bool
	tool       string
}

// Once scopes an approval to a single tool for a single invocation.
func Once(tool string) Scope { return Scope{tool: tool} }

// SessionAllGated scopes an approval to every GATED tool for the rest of
// the session.
func SessionAllGated() Scope { return Scope{allSession: true} }

// Covers reports whether this scope authorizes running tool.
func (s Scope) Covers(tool string) bool {
	if s.allSession {
		return true
	}
	return s.tool == tool
}

// DisplayText renders the scope for UI prompts.
func (s Scope) DisplayText() string {
	if s.allSession {
		return "session (all gated)"
	}
	return "once (this tool)"
}

// Pending is a GATED tool call awaiting the user's approval decision.
type Pending struct {
	SessionID    string
	Tool         string
	Args         map[string]string
	Step         int
	AffectedPath string // empty means none
	RequestedAt  int64  // unix millis
}

// NewPending builds a Pending approval request, stamping RequestedAt with
// the caller-supplied timestamp (the loop driver's clock, not
// time.Now(), to keep this package deterministic and testable).
func NewPending(sessionID, tool string, args map[string]string, step int, affectedPath string, requestedAtMS int64) Pending {
	return Pending{
		SessionID:    sessionID,
		Tool:         tool,
		Args:         args,
		Step:         step,
		AffectedPath: affectedPath,
		RequestedAt:  requestedAtMS,
	}
}

// FormatPrompt renders the approval prompt shown to the user.
func (p Pending) FormatPrompt() string {
	prompt := fmt.Sprintf("GATED Tool: %s\n", p.Tool)
	if p.AffectedPath != "" {
		prompt += fmt.Sprintf("  File: %s\n", p.AffectedPath)
	}
	prompt += "  [y=once, a=session, n=deny, q=quit]"
	return prompt
}

// State is session-scoped approval tracking: which tools are approved,
// and the currently pending request (if any).
type State struct {
	approvedAllGated bool
	approvedOnce     map[string]bool
	pending          *Pending
}

// New builds an empty State.
func New() *State {
	return &State{approvedOnce: map[string]bool{}}
}

// IsApproved reports whether tool may run without requesting approval
// again: either the whole session approved all GATED tools, or this
// specific tool was approved once.
func (s *State) IsApproved(tool string) bool {
	return s.approvedAllGated || s.approvedOnce[tool]
}

// Grant records an approval under the given scope.
func (s *State) Grant(scope Scope) {
	if scope.allSession {
		s.approvedAllGated = true
		return
	}
	s.approvedOnce[scope.tool] = true
}

// SetPending records a new pending approval request.
func (s *State) SetPending(p Pending) {
	pCopy := p
	s.pending = &pCopy
}

// ClearPending drops the current pending approval request.
func (s *State) ClearPending() {
	s.pending = nil
}

// PendingApproval returns the current pending request, or nil if none.
func (s *State) PendingApproval() *Pending {
	return s.pending
}

// Reset clears all approvals and any pending request, for a new session.
func (s *State) Reset() {
	s.approvedAllGated = false
	s.approvedOnce = map[string]bool{}
	s.pending = nil
}

// ResponseKind is the shape of a user's reply to a pending approval.
type ResponseKind int

const (
	ApproveOnce ResponseKind = iota
	ApproveSessionAllGated
	Deny
	Quit
)

// Response is the user's decision on a pending approval. Tool is set for
// ApproveOnce and Deny; it is the empty string for
// ApproveSessionAllGated and Quit.
type Response struct {
	Kind ResponseKind
	Tool string
}

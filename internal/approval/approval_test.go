package approval

import (
	"strings"
	"testing"
)

func TestScopeOnceCoversOnlyItsTool(t *testing.T) {
	scope := Once("file_write")

	if !scope.Covers("file_write") {
		t.Error("Once(file_write) should cover file_write")
	}
	if scope.Covers("file_create") {
		t.Error("Once(file_write) should not cover file_create")
	}
}

func TestScopeSessionAllCoversAll(t *testing.T) {
	scope := SessionAllGated()

	if !scope.Covers("file_write") || !scope.Covers("file_create") {
		t.Error("SessionAllGated should cover every tool")
	}
}

func TestStateEmptyInitially(t *testing.T) {
	s := New()

	if s.approvedAllGated {
		t.Error("new state should not have approved_all_gated set")
	}
	if s.IsApproved("file_write") {
		t.Error("new state should not approve any tool")
	}
	if s.PendingApproval() != nil {
		t.Error("new state should have no pending approval")
	}
}

func TestStateGrantOnce(t *testing.T) {
	s := New()
	s.Grant(Once("file_write"))

	if !s.IsApproved("file_write") {
		t.Error("file_write should be approved")
	}
	if s.IsApproved("file_create") {
		t.Error("file_create should not be approved")
	}
}

func TestStateGrantSessionAll(t *testing.T) {
	s := New()
	s.Grant(SessionAllGated())

	if !s.approvedAllGated {
		t.Error("approvedAllGated should be true")
	}
	if !s.IsApproved("file_write") || !s.IsApproved("file_create") {
		t.Error("every tool should be approved")
	}
}

func TestStateReset(t *testing.T) {
	s := New()
	s.Grant(SessionAllGated())
	s.SetPending(NewPending("session", "file_write", map[string]string{}, 1, "", 0))

	if !s.approvedAllGated || s.PendingApproval() == nil {
		t.Fatal("expected state to have a grant and a pending approval before reset")
	}

	s.Reset()

	if s.approvedAllGated {
		t.Error("approvedAllGated should be false after reset")
	}
	if s.PendingApproval() != nil {
		t.Error("pending should be nil after reset")
	}
	if s.IsApproved("file_write") {
		t.Error("no tool should be approved after reset")
	}
}

func TestPendingFormatPrompt(t *testing.T) {
	p := NewPending("session-123", "file_write", map[string]string{}, 1, "/path/to/file.txt", 0)

	prompt := p.FormatPrompt()

	for _, want := range []string{"GATED Tool", "file_write", "/path/to/file.txt", "[y=once, a=session, n=deny, q=quit]"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}

func TestPendingFormatPromptNoPath(t *testing.T) {
	p := NewPending("session-123", "file_create", map[string]string{}, 1, "", 0)

	prompt := p.FormatPrompt()

	if !strings.Contains(prompt, "file_create") {
		t.Errorf("prompt missing tool name: %s", prompt)
	}
	if strings.Contains(prompt, "File:") {
		t.Errorf("prompt should not mention a file when AffectedPath is empty: %s", prompt)
	}
}

func TestClearPending(t *testing.T) {
	s := New()
	s.SetPending(NewPending("session", "file_write", map[string]string{}, 1, "", 0))
	if s.PendingApproval() == nil {
		t.Fatal("expected pending approval to be set")
	}

	s.ClearPending()

	if s.PendingApproval() != nil {
		t.Error("expected pending approval to be cleared")
	}
}


package toolcall

import (
	"strings"
	"testing"
)

func TestHasToolCallTrue(t *testing.T) {
	response := "I'll search for that.\n\nTOOL_CALL:\n  tool: file_search\n  args:\n    pattern: main\n\nDone."
	if !HasToolCall(response) {
		t.Fatal("expected HasToolCall to be true")
	}
}

func TestHasToolCallFalse(t *testing.T) {
	if HasToolCall("This is just regular text with no tool calls.") {
		t.Fatal("expected HasToolCall to be false")
	}
}

func TestExtractSimple(t *testing.T) {
	response := "TOOL_CALL:\n  tool: file_read\n  args:\n    path: src/lib.rs"
	call, remaining, ok := Extract(response)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if call.Tool != "file_read" {
		t.Errorf("Tool = %q, want file_read", call.Tool)
	}
	if call.Args["path"] != "src/lib.rs" {
		t.Errorf("Args[path] = %q, want src/lib.rs", call.Args["path"])
	}
	if remaining != "" {
		t.Errorf("remaining = %q, want empty", remaining)
	}
}

func TestExtractWithProse(t *testing.T) {
	response := "I'll read that file for you.\n\nTOOL_CALL:\n  tool: file_read\n  args:\n    path: src/lib.rs\n\nDone!"
	call, remaining, ok := Extract(response)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if call.Tool != "file_read" {
		t.Errorf("Tool = %q, want file_read", call.Tool)
	}
	if !containsAll(remaining, "I'll read that file", "Done!") {
		t.Errorf("remaining = %q, missing expected prose", remaining)
	}
}

func TestExtractMultipleArgs(t *testing.T) {
	response := "TOOL_CALL:\n  tool: file_search\n  args:\n    pattern: main\n    root: ."
	call, _, ok := Extract(response)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if call.Tool != "file_search" {
		t.Errorf("Tool = %q, want file_search", call.Tool)
	}
	if call.Args["pattern"] != "main" || call.Args["root"] != "." {
		t.Errorf("unexpected args: %+v", call.Args)
	}
}

func TestExtractNoneProseOnly(t *testing.T) {
	_, _, ok := Extract("This is just regular text without any tool calls.")
	if ok {
		t.Fatal("expected no tool call to be extracted")
	}
}

func TestExtractMissingToolName(t *testing.T) {
	_, _, ok := Extract("TOOL_CALL:\n  args:\n    path: src/lib.rs")
	if ok {
		t.Fatal("missing tool name should fail to extract")
	}
}

func TestExtractEmptyToolName(t *testing.T) {
	_, _, ok := Extract("TOOL_CALL:\n  tool: \n  args:\n    path: src/lib.rs")
	if ok {
		t.Fatal("empty tool name should fail to extract")
	}
}

func TestParseBlockValid(t *testing.T) {
	call, err := parseBlock("  tool: file_read\n  args:\n    path: src/lib.rs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.Tool != "file_read" || call.Args["path"] != "src/lib.rs" {
		t.Errorf("unexpected call: %+v", call)
	}
}

func TestParseBlockNoArgs(t *testing.T) {
	call, err := parseBlock("  tool: go_vet_check\n  args:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.Tool != "go_vet_check" {
		t.Errorf("Tool = %q, want go_vet_check", call.Tool)
	}
	if len(call.Args) != 0 {
		t.Errorf("expected no args, got %+v", call.Args)
	}
}

func TestTruncateOutputShort(t *testing.T) {
	if got := TruncateOutput("Short output"); got != "Short output" {
		t.Errorf("got %q", got)
	}
}

func TestTruncateOutputLong(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	result := TruncateOutput(string(long))
	if !containsAll(result, "(truncated") {
		t.Errorf("expected truncation marker, got %q", result)
	}
	if len(result) >= 350 {
		t.Errorf("result too long: %d bytes", len(result))
	}
}

func TestFormatResultSuccess(t *testing.T) {
	result := FormatResult("file_read", true, "File content here")
	if !containsAll(result, "[SYSTEM TOOL RESULT]", "Tool: file_read", "Status: success", "Output: File content here") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestFormatResultError(t *testing.T) {
	result := FormatResult("file_read", false, "File not found")
	if !containsAll(result, "Status: error", "File not found") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestExtractWithSpacesInArgs(t *testing.T) {
	response := "TOOL_CALL:\n  tool: file_search\n  args:\n    pattern: fn main\n    root: /home/user/project"
	call, _, ok := Extract(response)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if call.Args["pattern"] != "fn main" {
		t.Errorf("Args[pattern] = %q, want %q", call.Args["pattern"], "fn main")
	}
	if call.Args["root"] != "/home/user/project" {
		t.Errorf("Args[root] = %q, want %q", call.Args["root"], "/home/user/project")
	}
}

func TestFindBlockEndWithNextToolCall(t *testing.T) {
	section := "  tool: file_read\n  args:\n    path: a.rs\n\nTOOL_CALL:\n  tool: file_read\n  args:\n    path: b.rs"
	end := findBlockEnd(section)
	if end >= len(section) {
		t.Fatal("expected block to end before second TOOL_CALL")
	}
	extracted := section[:end]
	if !containsAll(extracted, "path: a.rs") {
		t.Errorf("extracted block missing first path: %q", extracted)
	}
	remaining := section[end:]
	if !containsAll(remaining, "TOOL_CALL:") {
		t.Errorf("remaining missing second TOOL_CALL: %q", remaining)
	}
}

func TestRenderExtractRoundTrip(t *testing.T) {
	original := Call{
		Tool: "file_edit",
		Args: map[string]string{
			"path":     "src/main.go",
			"old_text": "foo",
			"new_text": "bar",
		},
	}

	call, remaining, ok := Extract(original.Render())
	if !ok {
		t.Fatal("expected rendered call to extract")
	}
	if remaining != "" {
		t.Errorf("remaining = %q, want empty", remaining)
	}
	if call.Tool != original.Tool {
		t.Errorf("Tool = %q, want %q", call.Tool, original.Tool)
	}
	if len(call.Args) != len(original.Args) {
		t.Fatalf("Args = %v, want %v", call.Args, original.Args)
	}
	for k, v := range original.Args {
		if call.Args[k] != v {
			t.Errorf("Args[%s] = %q, want %q", k, call.Args[k], v)
		}
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

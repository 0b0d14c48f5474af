package router

import (
	"strings"
	"testing"
)

func TestForToolDefaults(t *testing.T) {
	cases := map[string]OutputKind{
		"file_read":   FileContent,
		"file_write":  Void,
		"file_create": Void,
		"file_search": Structural,
		"file_glob":   Structural,
		"count_files": NumericSummary,
		"count_lines": NumericSummary,
		"fs_stats":    NumericSummary,
		"unknown_xyz": Textual,
	}
	for tool, want := range cases {
		if got := ForTool(tool); got != want {
			t.Errorf("ForTool(%q) = %v, want %v", tool, got, want)
		}
	}
}

func TestShouldInjectIntoChat(t *testing.T) {
	for _, k := range []OutputKind{Textual, FileContent, NumericSummary, Error} {
		if !k.ShouldInjectIntoChat() {
			t.Errorf("%v should inject into chat", k)
		}
	}
	for _, k := range []OutputKind{Structural, Void} {
		if k.ShouldInjectIntoChat() {
			t.Errorf("%v should not inject into chat", k)
		}
	}
}

func TestHasStructuredData(t *testing.T) {
	for _, k := range []OutputKind{Structural, NumericSummary} {
		if !k.HasStructuredData() {
			t.Errorf("%v should have structured data", k)
		}
	}
	for _, k := range []OutputKind{Textual, FileContent, Error, Void} {
		if k.HasStructuredData() {
			t.Errorf("%v should not have structured data", k)
		}
	}
}

func TestRouteFileOperationsToChat(t *testing.T) {
	r := New()
	if got := r.Route("file_read", Textual, IntentRead); got != Chat {
		t.Errorf("Route(file_read) = %v, want Chat", got)
	}
}

func TestRouteSpliceToBoth(t *testing.T) {
	r := New()
	if got := r.Route("splice_patch", Textual, IntentModify); got != Both {
		t.Errorf("Route(splice_patch) = %v, want Both", got)
	}
}

func TestRouteGoVetCheckToBoth(t *testing.T) {
	r := New()
	if got := r.Route("go_vet_check", Error, IntentDebug); got != Both {
		t.Errorf("Route(go_vet_check) = %v, want Both", got)
	}
}

func TestRouteGitToChat(t *testing.T) {
	r := New()
	if got := r.Route("git_status", Textual, IntentRead); got != Chat {
		t.Errorf("Route(git_status) = %v, want Chat", got)
	}
}

func TestRouteUnknownToolUsesDefault(t *testing.T) {
	r := New()
	if got := r.Route("unknown_tool", Textual, IntentRead); got != Chat {
		t.Errorf("Route(unknown_tool) = %v, want Chat (default)", got)
	}
}

func TestShouldTruncateLargeOutput(t *testing.T) {
	r := New()
	large := make([]byte, 20000)
	if !r.ShouldTruncate("file_read", len(large)) {
		t.Error("expected large file_read output to require truncation")
	}
}

func TestShouldNotTruncateSmallOutput(t *testing.T) {
	r := New()
	if r.ShouldTruncate("file_read", len("hello")) {
		t.Error("expected small output to not require truncation")
	}
}

func TestTruncateOutputAddsMarker(t *testing.T) {
	r := New()
	output := make([]byte, 20000)
	for i := range output {
		output[i] = 'x'
	}
	truncated := r.TruncateOutput("file_read", string(output))
	if !contains(truncated, "truncated") || !contains(truncated, "20000") {
		t.Errorf("expected truncation marker with length, got %q", truncated[len(truncated)-40:])
	}
}

func TestTruncateSmallOutputUnchanged(t *testing.T) {
	r := New()
	if got := r.TruncateOutput("file_read", "hello world"); got != "hello world" {
		t.Errorf("expected unchanged output, got %q", got)
	}
}

func TestAddCustomRule(t *testing.T) {
	r := Empty()
	r.AddRule(newRule("custom_*", Textual, Diagnostics))
	if got := r.Route("custom_tool", Textual, IntentRead); got != Diagnostics {
		t.Errorf("Route(custom_tool) = %v, want Diagnostics", got)
	}
}

func TestToolPatternMatchesWildcard(t *testing.T) {
	rule := newRule("file_*", Textual, Chat)
	if !rule.Matches("file_read", Textual, IntentRead) {
		t.Error("expected file_* to match file_read")
	}
	if rule.Matches("git_status", Textual, IntentRead) {
		t.Error("expected file_* to not match git_status")
	}
}

func TestBuildStructuralSummaryNeverEmpty(t *testing.T) {
	if s := BuildStructuralSummary("file_search", []any{}); s == "" {
		t.Error("summary should never be empty")
	}
}

func TestSummarizeSearchResultsWithData(t *testing.T) {
	data := []any{
		map[string]any{"file": "src/main.go", "line": int64(42)},
		map[string]any{"file": "src/lib.go", "line": int64(10)},
	}
	s := BuildStructuralSummary("file_search", data)
	if !contains(s, "2 matches found") || !contains(s, "src/main.go:42") || !contains(s, "Explorer") {
		t.Errorf("unexpected summary: %q", s)
	}
}

func TestSummarizeSymbols(t *testing.T) {
	data := []any{
		map[string]any{"name": "main", "kind": "func"},
		map[string]any{"name": "Config", "kind": "type"},
	}
	s := BuildStructuralSummary("symbols_in_file", data)
	if !contains(s, "2 symbols") || !contains(s, "main (func)") {
		t.Errorf("unexpected summary: %q", s)
	}
}

func TestSummarizeDiagnosticsClean(t *testing.T) {
	s := BuildStructuralSummary("go_vet_check", []any{})
	if !contains(s, "no errors") {
		t.Errorf("unexpected summary: %q", s)
	}
}

func TestSummarizeReferences(t *testing.T) {
	data := []any{
		map[string]any{"file_path": "a.go", "symbol_name": "Foo"},
	}
	s := BuildStructuralSummary("references_to_symbol", data)
	if !contains(s, "1 found") || !contains(s, "Foo → a.go") {
		t.Errorf("unexpected summary: %q", s)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

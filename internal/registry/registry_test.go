package registry

import "testing"

func TestNewContainsCoreTools(t *testing.T) {
	r := New()

	for _, name := range []string{"file_read", "file_edit", "splice_patch", "go_vet_check", "memory_query"} {
		if !r.Contains(name) {
			t.Errorf("expected registry to contain %q", name)
		}
	}
}

func TestClassificationDefaultsForbiddenOnUnknownTool(t *testing.T) {
	r := New()

	if got := r.Classification("nonexistent_tool"); got != Forbidden {
		t.Errorf("Classification(unknown) = %v, want Forbidden", got)
	}
}

func TestClassificationMatchesCatalog(t *testing.T) {
	r := New()

	cases := map[string]Classification{
		"file_read":    Auto,
		"file_edit":    Auto,
		"splice_patch": Gated,
		"git_commit":   Gated,
		"bash_execute": Forbidden,
		"web_fetch":    Forbidden,
	}

	for name, want := range cases {
		if got := r.Classification(name); got != want {
			t.Errorf("Classification(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestForbiddenToolsAreNotAvailable(t *testing.T) {
	r := New()

	for _, m := range r.ByClassification(Forbidden) {
		t.Errorf("ByClassification(Forbidden) should be empty (unavailable), got %q", m.Name)
	}

	for _, name := range []string{"bash_execute", "http_request", "web_fetch"} {
		m, ok := r.Get(name)
		if !ok {
			t.Fatalf("expected %q to be registered", name)
		}
		if m.Available {
			t.Errorf("%q: Available = true, want false", name)
		}
	}
}

func TestIsMutatingAndIsReadOnly(t *testing.T) {
	r := New()

	read, _ := r.Get("file_read")
	if !read.IsReadOnly() {
		t.Error("file_read should be read-only")
	}
	if read.IsMutating() {
		t.Error("file_read should not be mutating")
	}

	edit, _ := r.Get("file_edit")
	if !edit.IsMutating() {
		t.Error("file_edit should be mutating")
	}
	if edit.IsReadOnly() {
		t.Error("file_edit should not be read-only")
	}
}

func TestByCapabilityFindsNetworkTools(t *testing.T) {
	r := New()

	networked := r.ByCapability(Network)
	if len(networked) == 0 {
		t.Fatal("expected at least one networked tool")
	}
	for _, m := range networked {
		if m.SideEffect != SideEffectExternal {
			t.Errorf("%q: network tool should have SideEffectExternal, got %v", m.Name, m.SideEffect)
		}
	}
}

func TestAvailableToolNamesExcludesForbidden(t *testing.T) {
	r := New()

	names := make(map[string]bool)
	for _, n := range r.AvailableToolNames() {
		names[n] = true
	}

	if names["bash_execute"] {
		t.Error("AvailableToolNames should not include bash_execute")
	}
	if !names["file_read"] {
		t.Error("AvailableToolNames should include file_read")
	}
}

func TestEmptyRegistryHasNoTools(t *testing.T) {
	r := Empty()

	if r.Contains("file_read") {
		t.Error("Empty registry should not contain any tools")
	}
	if r.Classification("file_read") != Forbidden {
		t.Error("Empty registry should classify unknown tools as Forbidden")
	}
}

func TestRegisterOverridesExistingEntry(t *testing.T) {
	r := Empty()
	r.Register(Metadata{Name: "custom_tool", Classification: Gated, Available: true})

	if got := r.Classification("custom_tool"); got != Gated {
		t.Errorf("Classification(custom_tool) = %v, want Gated", got)
	}

	r.Register(Metadata{Name: "custom_tool", Classification: Auto, Available: true})
	if got := r.Classification("custom_tool"); got != Auto {
		t.Errorf("after re-register, Classification(custom_tool) = %v, want Auto", got)
	}
}

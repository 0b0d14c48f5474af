package mode

import "testing"

func TestClassifyQuery(t *testing.T) {
	if got := Classify("How many files are in src?"); got != Query {
		t.Errorf("Classify = %v, want Query", got)
	}
}

func TestClassifyExplore(t *testing.T) {
	if got := Classify("Where is the main function?"); got != Explore {
		t.Errorf("Classify = %v, want Explore", got)
	}
	if got := Classify("Find all uses of Symbol"); got != Explore {
		t.Errorf("Classify = %v, want Explore", got)
	}
}

func TestClassifyMutation(t *testing.T) {
	if got := Classify("Edit the main function"); got != Mutation {
		t.Errorf("Classify = %v, want Mutation", got)
	}
	if got := Classify("Fix this bug"); got != Mutation {
		t.Errorf("Classify = %v, want Mutation", got)
	}
}

func TestClassifyDefaultsToExplore(t *testing.T) {
	if got := Classify("hello world"); got != Explore {
		t.Errorf("Classify = %v, want Explore (default)", got)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Explore beats Mutation
	if got := Classify("Where is the file to edit?"); got != Explore {
		t.Errorf("Classify = %v, want Explore (explore beats mutation)", got)
	}
	// Mutation beats Query
	if got := Classify("How many files should I edit?"); got != Mutation {
		t.Errorf("Classify = %v, want Mutation (mutation beats query)", got)
	}
	// Query wins when nothing else matches
	if got := Classify("What is the total count of items?"); got != Query {
		t.Errorf("Classify = %v, want Query", got)
	}
}

func TestMaxToolCallsPerMode(t *testing.T) {
	cases := map[PromptMode]int{
		Query:        2,
		Explore:      3,
		Mutation:     5,
		Presentation: 0,
	}
	for m, want := range cases {
		if got := m.MaxToolCalls(); got != want {
			t.Errorf("%v.MaxToolCalls() = %d, want %d", m, got, want)
		}
	}
}

func TestToolAllowedInQueryMode(t *testing.T) {
	for _, tool := range []string{"wc", "memory_query"} {
		if !ToolAllowed(Query, tool) {
			t.Errorf("expected %q allowed in Query mode", tool)
		}
	}
	for _, tool := range []string{"file_read", "file_search", "splice_patch"} {
		if ToolAllowed(Query, tool) {
			t.Errorf("expected %q forbidden in Query mode", tool)
		}
	}
}

func TestToolAllowedInExploreMode(t *testing.T) {
	for _, tool := range []string{"file_read", "file_search", "symbols_in_file"} {
		if !ToolAllowed(Explore, tool) {
			t.Errorf("expected %q allowed in Explore mode", tool)
		}
	}
	for _, tool := range []string{"splice_patch", "file_write"} {
		if ToolAllowed(Explore, tool) {
			t.Errorf("expected %q forbidden in Explore mode", tool)
		}
	}
}

func TestToolAllowedInMutationMode(t *testing.T) {
	for _, tool := range []string{"splice_patch", "file_edit", "go_vet_check"} {
		if !ToolAllowed(Mutation, tool) {
			t.Errorf("expected %q allowed in Mutation mode", tool)
		}
	}
}

func TestPresentationModeForbidsAllTools(t *testing.T) {
	for _, tool := range []string{"file_read", "file_search", "splice_patch"} {
		if ToolAllowed(Presentation, tool) {
			t.Errorf("expected %q forbidden in Presentation mode", tool)
		}
	}
}

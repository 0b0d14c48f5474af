package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/registry"
	"github.com/oldnordic/odincode/internal/symbols"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
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

	return New(reg, sym, hist, tracker, root), root
}

func TestInvokeToolRejectsUnknownTool(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestExecutor(t)

	_, err := e.InvokeTool(ctx, Call{Tool: "not_a_real_tool"}, 0)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestInvokeToolEnforcesGroundingWindowOnMutationTools(t *testing.T) {
	ctx := context.Background()
	e, root := newTestExecutor(t)

	path := filepath.Join(root, "new.txt")
	_, err := e.InvokeTool(ctx, Call{
		SessionID: "s1", Tool: "file_create",
		Args: map[string]string{"path": "new.txt", "contents": "hi"},
	}, 20000)
	if err == nil {
		t.Fatal("expected grounding error without a prior memory_query")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Fatal("file should not have been created")
	}
}

func TestInvokeToolAllowsMutationAfterMemoryQuery(t *testing.T) {
	ctx := context.Background()
	e, root := newTestExecutor(t)

	if _, err := e.InvokeTool(ctx, Call{SessionID: "s1", Tool: "memory_query", Args: map[string]string{}}, 1000); err != nil {
		t.Fatalf("memory_query: %v", err)
	}

	inv, err := e.InvokeTool(ctx, Call{
		SessionID: "s1", Tool: "file_create",
		Args: map[string]string{"path": "new.txt", "contents": "hi"},
	}, 2000)
	if err != nil {
		t.Fatalf("file_create: %v", err)
	}
	if !inv.Success {
		t.Fatalf("expected success, got %+v", inv)
	}
	if _, statErr := os.Stat(filepath.Join(root, "new.txt")); statErr != nil {
		t.Fatalf("expected file to exist: %v", statErr)
	}
}

func TestInvokeFileReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, root := newTestExecutor(t)

	if err := os.WriteFile(filepath.Join(root, "existing.txt"), []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	inv, err := e.InvokeTool(ctx, Call{Tool: "file_read", Args: map[string]string{"path": "existing.txt"}}, 0)
	if err != nil {
		t.Fatalf("file_read: %v", err)
	}
	if inv.Stdout == "" {
		t.Fatal("expected file contents")
	}
}

func TestInvokeFileGlobFindsFiles(t *testing.T) {
	ctx := context.Background()
	e, root := newTestExecutor(t)

	if err := os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.go"), []byte("package b\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inv, err := e.InvokeTool(ctx, Call{Tool: "file_glob", Args: map[string]string{"pattern": "*.go"}}, 0)
	if err != nil {
		t.Fatalf("file_glob: %v", err)
	}
	data, ok := inv.StructuredData.([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 matches, got %+v", inv.StructuredData)
	}
}

func TestInvokeCountFilesAndFSStats(t *testing.T) {
	ctx := context.Background()
	e, root := newTestExecutor(t)

	if err := os.WriteFile(filepath.Join(root, "x.go"), []byte("package x\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inv, err := e.InvokeTool(ctx, Call{Tool: "count_files", Args: map[string]string{}}, 0)
	if err != nil {
		t.Fatalf("count_files: %v", err)
	}
	if !inv.Success {
		t.Fatalf("expected success: %+v", inv)
	}

	inv, err = e.InvokeTool(ctx, Call{Tool: "fs_stats", Args: map[string]string{}}, 0)
	if err != nil {
		t.Fatalf("fs_stats: %v", err)
	}
	if !inv.Success {
		t.Fatalf("expected success: %+v", inv)
	}
}

func TestInvokeGitStatusOnNonRepoFails(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestExecutor(t)

	inv, err := e.InvokeTool(ctx, Call{Tool: "git_status", Args: map[string]string{}}, 0)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if inv.Success {
		t.Fatal("expected failure outside a git repository")
	}
}

func TestMissingArgumentErrorOnFileRead(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestExecutor(t)

	_, err := e.InvokeTool(ctx, Call{Tool: "file_read", Args: map[string]string{}}, 0)
	if err == nil {
		t.Fatal("expected missing-argument error")
	}
	if _, ok := err.(*MissingArgumentError); !ok {
		t.Fatalf("expected *MissingArgumentError, got %T: %v", err, err)
	}
}

func TestIsMutationToolClassifiesCorrectly(t *testing.T) {
	if !IsMutationTool("file_write") {
		t.Error("file_write should be a mutation tool")
	}
	if !IsMutationTool("splice_plan") {
		t.Error("splice_plan should be a mutation tool")
	}
	if IsMutationTool("file_read") {
		t.Error("file_read should not be a mutation tool")
	}
	if IsMutationTool("git_status") {
		t.Error("git_status should not be a mutation tool")
	}
}

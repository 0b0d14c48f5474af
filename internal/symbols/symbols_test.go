package symbols

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

const helperSrc = `package sample

func Helper() int {
	return 1
}

type Config struct {
	Name string
}
`

const mainSrc = `package sample

func Run() {
	c := Config{Name: "x"}
	_ = Helper()
	_ = c
}
`

func TestIndexDirFindsTopLevelSymbols(t *testing.T) {
	dir := t.TempDir()
	helperPath := writeTestFile(t, dir, "helper.go", helperSrc)
	writeTestFile(t, dir, "main.go", mainSrc)

	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexDir(ctx, dir); err != nil {
		t.Fatalf("IndexDir: %v", err)
	}

	syms, err := idx.SymbolsInFile(ctx, helperPath)
	if err != nil {
		t.Fatalf("SymbolsInFile: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("expected 2 symbols in helper.go, got %d: %+v", len(syms), syms)
	}
	names := map[string]string{}
	for _, s := range syms {
		names[s.Name] = s.Kind
	}
	if names["Helper"] != "func" {
		t.Errorf("expected Helper to be a func, got %q", names["Helper"])
	}
	if names["Config"] != "type" {
		t.Errorf("expected Config to be a type, got %q", names["Config"])
	}
}

func TestReferencesToSymbolFindsUsageAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "helper.go", helperSrc)
	mainPath := writeTestFile(t, dir, "main.go", mainSrc)

	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexDir(ctx, dir); err != nil {
		t.Fatalf("IndexDir: %v", err)
	}

	refs, err := idx.ReferencesToSymbol(ctx, "Helper")
	if err != nil {
		t.Fatalf("ReferencesToSymbol: %v", err)
	}
	if len(refs) == 0 {
		t.Fatal("expected at least one reference to Helper")
	}
	found := false
	for _, r := range refs {
		if r.FromFilePath == mainPath {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a reference from %s, got %+v", mainPath, refs)
	}
}

func TestReferencesFromFileToSymbolScoped(t *testing.T) {
	dir := t.TempDir()
	helperPath := writeTestFile(t, dir, "helper.go", helperSrc)
	mainPath := writeTestFile(t, dir, "main.go", mainSrc)

	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexDir(ctx, dir); err != nil {
		t.Fatalf("IndexDir: %v", err)
	}

	refs, err := idx.ReferencesFromFileToSymbol(ctx, mainPath, "Config")
	if err != nil {
		t.Fatalf("ReferencesFromFileToSymbol: %v", err)
	}
	if len(refs) == 0 {
		t.Fatal("expected at least one reference from main.go to Config")
	}

	refsFromHelper, err := idx.ReferencesFromFileToSymbol(ctx, helperPath, "Config")
	if err != nil {
		t.Fatalf("ReferencesFromFileToSymbol: %v", err)
	}
	if len(refsFromHelper) != 0 {
		t.Errorf("expected no references from helper.go to Config (declared there, not used), got %+v", refsFromHelper)
	}
}

func TestStatusReportsCounts(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "helper.go", helperSrc)
	writeTestFile(t, dir, "main.go", mainSrc)

	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexDir(ctx, dir); err != nil {
		t.Fatalf("IndexDir: %v", err)
	}

	status, err := idx.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Files != 2 {
		t.Errorf("expected 2 files, got %d", status.Files)
	}
	if status.Symbols < 3 {
		t.Errorf("expected at least 3 symbols (Helper, Config, Run), got %d", status.Symbols)
	}
	if status.References == 0 {
		t.Error("expected at least one reference")
	}
}

func TestIndexDirSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "helper.go", helperSrc)
	writeTestFile(t, dir, "broken.go", "package sample\nfunc broken( {\n")

	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexDir(ctx, dir); err != nil {
		t.Fatalf("IndexDir should skip unparsable files, not fail: %v", err)
	}

	status, err := idx.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Symbols == 0 {
		t.Error("expected helper.go's symbols to still be indexed")
	}
}

package executor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oldnordic/odincode/internal/router"
)

// invokeGoVetCheck is the compiler-diagnostics surface for a Go tree,
// run via `go vet`.
func (e *Executor) invokeGoVetCheck(ctx context.Context, call Call) (Invocation, error) {
	dir := e.Root
	if p, ok := call.Args["path"]; ok && p != "" {
		dir = resolveUnder(e.Root, p)
	}

	pkg := "./..."
	if p, ok := call.Args["package"]; ok && p != "" {
		pkg = p
	}

	cmd := exec.CommandContext(ctx, "go", "vet", pkg)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err == nil {
		return Invocation{Success: true, Stdout: "go_vet_check: no errors - all clean!", Kind: router.Error}, nil
	}

	if _, ok := err.(*exec.ExitError); !ok {
		return errorInvocation(fmt.Errorf("go_vet_check: %w", err)), nil
	}

	var data []any
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		data = append(data, map[string]any{"message": line})
	}
	summary := router.BuildStructuralSummary("go_vet_check", data)
	return Invocation{Success: false, Stdout: summary, ErrorMessage: string(out), Kind: router.Error, StructuredData: data}, nil
}

func (e *Executor) invokeWC(call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "path")
	if err != nil {
		return Invocation{}, err
	}

	f, openErr := os.Open(path)
	if openErr != nil {
		return errorInvocation(fmt.Errorf("wc: %w", openErr)), nil
	}
	defer f.Close()

	lines, words, bytes := 0, 0, 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lines++
		words += len(strings.Fields(line))
		bytes += len(line) + 1
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return errorInvocation(fmt.Errorf("wc: %w", scanErr)), nil
	}

	summary := fmt.Sprintf("wc: %s — %d lines, %d words, %d bytes", path, lines, words, bytes)
	data := map[string]any{"lines": int64(lines), "words": int64(words), "bytes": int64(bytes)}
	return Invocation{Success: true, Stdout: summary, Kind: router.NumericSummary, StructuredData: data}, nil
}

func (e *Executor) invokeCountFiles(call Call) (Invocation, error) {
	root := e.Root
	if r, ok := call.Args["root"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}
	pattern := call.Args["pattern"]

	count := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			if ignoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if pattern != "" {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
				return nil
			}
		}
		count++
		return nil
	})
	if err != nil {
		return errorInvocation(fmt.Errorf("count_files: %w", err)), nil
	}

	summary := fmt.Sprintf("count_files: %d files total", count)
	return Invocation{Success: true, Stdout: summary, Kind: router.NumericSummary, StructuredData: map[string]any{"count": int64(count)}}, nil
}

func (e *Executor) invokeCountLines(call Call) (Invocation, error) {
	root := e.Root
	if r, ok := call.Args["root"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}
	ext := call.Args["extension"]
	pattern := call.Args["pattern"]

	totalLines := 0
	filesCounted := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			if ignoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ext != "" && filepath.Ext(path) != ext {
			return nil
		}
		if pattern != "" {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
				return nil
			}
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil || isBinary(data) {
			return nil
		}
		totalLines += strings.Count(string(data), "\n") + 1
		filesCounted++
		return nil
	})
	if err != nil {
		return errorInvocation(fmt.Errorf("count_lines: %w", err)), nil
	}

	summary := fmt.Sprintf("count_lines: %d total lines in %d files", totalLines, filesCounted)
	data := map[string]any{"lines": int64(totalLines), "files": int64(filesCounted)}
	return Invocation{Success: true, Stdout: summary, Kind: router.NumericSummary, StructuredData: data}, nil
}

func (e *Executor) invokeFSStats(call Call) (Invocation, error) {
	root := e.Root
	if r, ok := call.Args["path"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}

	var fileCount, dirCount int64
	var totalBytes int64
	byExt := map[string]int64{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			if ignoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}
		fileCount++
		totalBytes += info.Size()
		ext := filepath.Ext(path)
		if ext == "" {
			ext = "(none)"
		}
		byExt[ext]++
		return nil
	})
	if err != nil {
		return errorInvocation(fmt.Errorf("fs_stats: %w", err)), nil
	}

	summary := fmt.Sprintf("fs_stats: %d files, %d dirs, %d bytes under %s", fileCount, dirCount, totalBytes, root)
	data := map[string]any{
		"files": fileCount, "dirs": dirCount, "bytes": totalBytes, "by_extension": byExt,
	}
	return Invocation{Success: true, Stdout: summary, Kind: router.NumericSummary, StructuredData: data}, nil
}

package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oldnordic/odincode/internal/router"
)

// maxReadLines bounds how much of a file file_read returns inline.
const maxReadLines = 2000

// ignoredDirs are skipped by glob/search/stats walks, the same
// skip-list tool.ignoredDirs uses.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".svn":         true,
	".hg":          true,
	"vendor":       true,
	"__pycache__":  true,
	".cache":       true,
	"dist":         true,
	"build":        true,
}

func resolveUnder(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func isBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

func (e *Executor) invokeFileRead(call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "path")
	if err != nil {
		return Invocation{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorInvocation(fmt.Errorf("file_read: %w", err)), nil
	}
	if isBinary(data) {
		return errorInvocation(fmt.Errorf("file_read: %s appears to be a binary file", path)), nil
	}

	lines := strings.Split(string(data), "\n")
	truncated := false
	if len(lines) > maxReadLines {
		lines = lines[:maxReadLines]
		truncated = true
	}
	content := strings.Join(lines, "\n")
	if truncated {
		content += fmt.Sprintf("\n... [truncated, %d lines total]", len(strings.Split(string(data), "\n")))
	}

	return Invocation{Success: true, Stdout: content, AffectedPath: path, Kind: router.FileContent}, nil
}

func (e *Executor) invokeFileWrite(call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "path")
	if err != nil {
		return Invocation{}, err
	}
	contents := call.Args["contents"]

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return errorInvocation(fmt.Errorf("file_write: %w", err)), nil
	}

	return Invocation{Success: true, Stdout: fmt.Sprintf("File written: %s", path), AffectedPath: path, Kind: router.Void}, nil
}

func (e *Executor) invokeFileCreate(call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "path")
	if err != nil {
		return Invocation{}, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return errorInvocation(fmt.Errorf("file_create: %s already exists", path)), nil
	}

	contents := call.Args["contents"]
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errorInvocation(fmt.Errorf("file_create: %w", err)), nil
		}
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return errorInvocation(fmt.Errorf("file_create: %w", err)), nil
	}

	return Invocation{Success: true, Stdout: fmt.Sprintf("File created: %s", path), AffectedPath: path, Kind: router.Void}, nil
}

func (e *Executor) invokeFileEdit(call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "path")
	if err != nil {
		return Invocation{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorInvocation(fmt.Errorf("file_edit: %w", err)), nil
	}
	lines := strings.Split(string(data), "\n")
	changed, inserted, deleted := 0, 0, 0

	if lineNumStr, ok := call.Args["line_number"]; ok {
		lineNum, convErr := strconv.Atoi(lineNumStr)
		if convErr != nil || lineNum < 1 || lineNum > len(lines) {
			return errorInvocation(fmt.Errorf("file_edit: invalid line_number %q", lineNumStr)), nil
		}
		lines[lineNum-1] = call.Args["new_content"]
		changed = 1
	} else if pattern, ok := call.Args["pattern"]; ok {
		re, reErr := regexp.Compile(pattern)
		if reErr != nil {
			return errorInvocation(fmt.Errorf("file_edit: invalid pattern: %w", reErr)), nil
		}
		replaceAll := call.Args["replace_all"] == "true"
		newContent := call.Args["new_content"]
		for i, line := range lines {
			if re.MatchString(line) {
				lines[i] = re.ReplaceAllString(line, newContent)
				changed++
				if !replaceAll {
					break
				}
			}
		}
	} else if insertAfterStr, ok := call.Args["insert_after"]; ok {
		insertAfter, convErr := strconv.Atoi(insertAfterStr)
		if convErr != nil || insertAfter < 0 || insertAfter > len(lines) {
			return errorInvocation(fmt.Errorf("file_edit: invalid insert_after %q", insertAfterStr)), nil
		}
		newLines := make([]string, 0, len(lines)+1)
		newLines = append(newLines, lines[:insertAfter]...)
		newLines = append(newLines, call.Args["content"])
		newLines = append(newLines, lines[insertAfter:]...)
		lines = newLines
		inserted = 1
	} else if deleteLineStr, ok := call.Args["delete_line"]; ok {
		deleteLine, convErr := strconv.Atoi(deleteLineStr)
		if convErr != nil || deleteLine < 1 || deleteLine > len(lines) {
			return errorInvocation(fmt.Errorf("file_edit: invalid delete_line %q", deleteLineStr)), nil
		}
		lines = append(lines[:deleteLine-1], lines[deleteLine:]...)
		deleted = 1
	} else {
		return errorInvocation(fmt.Errorf("file_edit: must specify line_number, pattern, insert_after or delete_line")), nil
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return errorInvocation(fmt.Errorf("file_edit: %w", err)), nil
	}

	summary := fmt.Sprintf("file_edit: %s modified (%d lines changed, %d inserted, %d deleted)", path, changed, inserted, deleted)
	return Invocation{Success: true, Stdout: summary, AffectedPath: path, Kind: router.Void}, nil
}

func (e *Executor) invokeFileGlob(call Call) (Invocation, error) {
	pattern, ok := call.Args["pattern"]
	if !ok || pattern == "" {
		return Invocation{}, &MissingArgumentError{Tool: call.Tool, Argument: "pattern"}
	}
	root := e.Root
	if r, ok := call.Args["root"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}

	matches, err := globUnder(root, pattern)
	if err != nil {
		return errorInvocation(fmt.Errorf("file_glob: %w", err)), nil
	}

	var data []any
	for _, m := range matches {
		data = append(data, m)
	}
	summary := router.BuildStructuralSummary("file_glob", data)
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

func globUnder(root, pattern string) ([]string, error) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, m := range matches {
		if pathUnderIgnoredDir(m) {
			continue
		}
		out = append(out, filepath.Join(root, m))
	}
	sort.Strings(out)
	if len(out) > maxGlobResults {
		out = out[:maxGlobResults]
	}
	return out, nil
}

const maxGlobResults = 100

func pathUnderIgnoredDir(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

const maxSearchMatches = 50

func (e *Executor) invokeFileSearch(call Call) (Invocation, error) {
	pattern, ok := call.Args["pattern"]
	if !ok || pattern == "" {
		return Invocation{}, &MissingArgumentError{Tool: call.Tool, Argument: "pattern"}
	}
	root := e.Root
	if r, ok := call.Args["root"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return errorInvocation(fmt.Errorf("file_search: invalid pattern: %w", err)), nil
	}

	var data []any
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			if ignoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(data) >= maxSearchMatches {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil || isBinary(content) {
			return nil
		}
		for i, line := range strings.Split(string(content), "\n") {
			if re.MatchString(line) {
				data = append(data, map[string]any{"file": path, "line": int64(i + 1)})
				if len(data) >= maxSearchMatches {
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return errorInvocation(fmt.Errorf("file_search: %w", err)), nil
	}

	summary := router.BuildStructuralSummary("file_search", data)
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

package router

import (
	"fmt"
	"strings"
)

// MaxExamples bounds how many representative entries a structural summary
// includes before pointing the reader at the full result set.
const MaxExamples = 5

// BuildStructuralSummary renders a chat-safe summary of a tool's
// structured output: a count plus up to MaxExamples representative
// entries, never an empty string. data is the decoded JSON payload the
// tool produced — typically []map[string]any, []string or a scalar.
func BuildStructuralSummary(tool string, data any) string {
	switch tool {
	case "file_search":
		return summarizeSearchResults(data)
	case "file_glob":
		return summarizePathList(data, "files matched")
	case "symbols_in_file":
		return summarizeSymbols(data)
	case "references_to_symbol", "references_from_file_to_symbol":
		return summarizeReferences(data)
	case "go_vet_check":
		return summarizeDiagnostics(data)
	default:
		return fmt.Sprintf("%s: completed", tool)
	}
}

func asSlice(data any) ([]any, bool) {
	s, ok := data.([]any)
	return s, ok
}

func asObject(item any) (map[string]any, bool) {
	m, ok := item.(map[string]any)
	return m, ok
}

func strField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return "?"
}

func intField(obj map[string]any, key string) int64 {
	v, ok := obj[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func summarizeSearchResults(data any) string {
	arr, ok := asSlice(data)
	if !ok {
		return "file_search: completed"
	}
	count := len(arr)
	if count == 0 {
		return "file_search: no matches found"
	}

	var examples []string
	for i, item := range arr {
		if i >= MaxExamples {
			break
		}
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		examples = append(examples, fmt.Sprintf("%s:%d", strField(obj, "file"), intField(obj, "line")))
	}

	return fmt.Sprintf("file_search: %d matches found\nExamples:\n  - %s\n(Full results in Explorer)",
		count, strings.Join(examples, "\n  - "))
}

func summarizePathList(data any, label string) string {
	if arr, ok := asSlice(data); ok {
		count := len(arr)
		if count == 0 {
			return fmt.Sprintf("file_glob: no %s", label)
		}

		var examples []string
		for i, v := range arr {
			if i >= MaxExamples {
				break
			}
			if s, ok := v.(string); ok {
				examples = append(examples, s)
			}
		}

		return fmt.Sprintf("file_glob: %d %s\nExamples:\n  - %s\n(Full results in Explorer)",
			count, label, strings.Join(examples, "\n  - "))
	}
	if s, ok := data.(string); ok {
		return fmt.Sprintf("file_glob: %s\n(Full results in Explorer)", s)
	}
	return fmt.Sprintf("file_glob: %s", label)
}

func summarizeSymbols(data any) string {
	arr, ok := asSlice(data)
	if !ok {
		return "symbols_in_file: completed"
	}
	count := len(arr)
	if count == 0 {
		return "symbols_in_file: no symbols found"
	}

	var examples []string
	for i, item := range arr {
		if i >= MaxExamples {
			break
		}
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		name := strField(obj, "name")
		kind := strField(obj, "kind")
		if kind != "" && kind != "?" {
			examples = append(examples, fmt.Sprintf("%s (%s)", name, kind))
		} else {
			examples = append(examples, name)
		}
	}

	return fmt.Sprintf("symbols_in_file: %d symbols\nExamples:\n  - %s\n(Full results in Explorer)",
		count, strings.Join(examples, "\n  - "))
}

func summarizeReferences(data any) string {
	arr, ok := asSlice(data)
	if !ok {
		return "references: completed"
	}
	count := len(arr)
	if count == 0 {
		return "references: none found"
	}

	var examples []string
	for i, item := range arr {
		if i >= MaxExamples {
			break
		}
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		file := strField(obj, "file_path", "from_file_path", "file")
		symbol := strField(obj, "symbol_name", "name")
		examples = append(examples, fmt.Sprintf("%s → %s", symbol, file))
	}

	return fmt.Sprintf("references: %d found\nExamples:\n  - %s\n(Full results in Explorer)",
		count, strings.Join(examples, "\n  - "))
}

func summarizeDiagnostics(data any) string {
	arr, ok := asSlice(data)
	if !ok {
		return "go_vet_check: completed"
	}
	count := len(arr)
	if count == 0 {
		return "go_vet_check: no errors - all clean!"
	}

	var examples []string
	for i, item := range arr {
		if i >= MaxExamples {
			break
		}
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		file := strField(obj, "file_name", "file")
		msg := strField(obj, "message")
		line := intField(obj, "line_start")
		examples = append(examples, fmt.Sprintf("%s:%d - %s", file, line, msg))
	}

	return fmt.Sprintf("go_vet_check: %d diagnostics\nExamples:\n  - %s\n(Full results in Explorer)",
		count, strings.Join(examples, "\n  - "))
}

package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/oldnordic/odincode/internal/router"
)

// findSymbolSpan locates the byte range of a top-level declaration named
// symbol in src: from the line starting the declaration (a `func`,
// `type`, `var` or `const` keyword followed by symbol) to the matching
// close brace, found by counting braces. This replaces the original
// implementation's external tree-sitter-backed splice binary with a
// same-process, dependency-free span finder — see DESIGN.md for the
// Open Question resolution.
func findSymbolSpan(src, symbol string) (start, end int, err error) {
	lines := strings.Split(src, "\n")
	offset := 0
	declLine := -1
	declOffset := 0

	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		for _, kw := range []string{"func ", "type ", "var ", "const "} {
			if !strings.HasPrefix(trimmed, kw) {
				continue
			}
			rest := strings.TrimPrefix(trimmed, kw)
			name := rest
			if idx := strings.IndexAny(rest, " ([\t"); idx >= 0 {
				name = rest[:idx]
			}
			if kw == "func " && strings.HasPrefix(rest, "(") {
				// method receiver: func (r *T) Name(...) — find Name after ")"
				if closeParen := strings.Index(rest, ")"); closeParen >= 0 {
					methodRest := strings.TrimLeft(rest[closeParen+1:], " ")
					if idx := strings.IndexAny(methodRest, "("); idx >= 0 {
						name = methodRest[:idx]
					}
				}
			}
			if name == symbol {
				declLine = i
				declOffset = offset
			}
		}
		offset += len(line) + 1
	}

	if declLine < 0 {
		return 0, 0, fmt.Errorf("symbol %q not found", symbol)
	}

	// Scan from the declaration line forward, counting braces, to find the
	// matching close. Declarations with no body (e.g. `var x = 1`) end at
	// the first newline with no open brace encountered.
	depth := 0
	sawBrace := false
	pos := declOffset
	for pos < len(src) {
		switch src[pos] {
		case '{':
			depth++
			sawBrace = true
		case '}':
			depth--
			if sawBrace && depth == 0 {
				return declOffset, pos + 1, nil
			}
		case '\n':
			if !sawBrace {
				return declOffset, pos, nil
			}
		}
		pos++
	}

	return declOffset, len(src), nil
}

func (e *Executor) invokeSplicePatch(call Call) (Invocation, error) {
	filePath, err := call.resolvePath(e, "file")
	if err != nil {
		return Invocation{}, err
	}
	symbol, ok := call.Args["symbol"]
	if !ok || symbol == "" {
		return Invocation{}, &MissingArgumentError{Tool: call.Tool, Argument: "symbol"}
	}
	withPath, err := call.resolvePath(e, "with")
	if err != nil {
		return Invocation{}, err
	}

	src, err := os.ReadFile(filePath)
	if err != nil {
		return errorInvocation(fmt.Errorf("splice_patch: %w", err)), nil
	}
	replacement, err := os.ReadFile(withPath)
	if err != nil {
		return errorInvocation(fmt.Errorf("splice_patch: %w", err)), nil
	}

	start, end, spanErr := findSymbolSpan(string(src), symbol)
	if spanErr != nil {
		return errorInvocation(fmt.Errorf("splice_patch: %w", spanErr)), nil
	}

	patched := string(src[:start]) + strings.TrimRight(string(replacement), "\n") + string(src[end:])
	if err := os.WriteFile(filePath, []byte(patched), 0o644); err != nil {
		return errorInvocation(fmt.Errorf("splice_patch: %w", err)), nil
	}

	summary := fmt.Sprintf("Patched: replaced %q in %s\nChanged files: %s", symbol, filePath, filePath)
	return Invocation{Success: true, Stdout: summary, AffectedPath: filePath, Kind: router.Textual}, nil
}

// splicePlanStep is one entry in a splice_plan JSON file.
type splicePlanStep struct {
	File   string `json:"file"`
	Symbol string `json:"symbol"`
	With   string `json:"with"`
}

func (e *Executor) invokeSplicePlan(call Call) (Invocation, error) {
	planPath, err := call.resolvePath(e, "plan_file")
	if err != nil {
		return Invocation{}, err
	}

	data, err := os.ReadFile(planPath)
	if err != nil {
		return errorInvocation(fmt.Errorf("splice_plan: %w", err)), nil
	}

	var steps []splicePlanStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return errorInvocation(fmt.Errorf("splice_plan: invalid plan JSON: %w", err)), nil
	}

	var changedFiles []string
	applied := 0
	for _, step := range steps {
		result, err := e.invokeSplicePatch(Call{Tool: "splice_patch", Args: map[string]string{
			"file": step.File, "symbol": step.Symbol, "with": step.With,
		}})
		if err != nil || !result.Success {
			msg := ""
			if err != nil {
				msg = err.Error()
			} else {
				msg = result.ErrorMessage
			}
			return errorInvocation(fmt.Errorf("splice_plan: step %d (%s/%s) failed: %s", applied+1, step.File, step.Symbol, msg)), nil
		}
		applied++
		changedFiles = append(changedFiles, result.AffectedPath)
	}

	summary := fmt.Sprintf("Plan executed: %d patches applied\nChanged files: %s", applied, strings.Join(changedFiles, ", "))
	return Invocation{Success: true, Stdout: summary, Kind: router.Textual}, nil
}

// Package toolcall parses the TOOL_CALL text block the agent loop expects
// an LLM to emit when it wants to invoke a tool, instead of a structured
// function-calling payload:
//
//	TOOL_CALL:
//	  tool: <tool_name>
//	  args:
//	    <key>: <value>
//
// The parser is a deterministic, line-based scanner: no YAML dependency,
// no structured tool-calling API on the client side.
package toolcall

import (
	"fmt"
	"sort"
	"strings"
)

// MaxToolOutputPreview bounds a tool output preview before truncation.
const MaxToolOutputPreview = 200

// Call is a tool invocation extracted from an LLM response.
type Call struct {
	Tool string
	Args map[string]string
}

// ParseError reports why a TOOL_CALL block failed to parse.
type ParseError struct {
	Reason string
	Arg    string // set for MissingArgument
}

func (e *ParseError) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Arg)
	}
	return e.Reason
}

var (
	errMissingToolName = &ParseError{Reason: "missing tool name"}
	errEmptyToolName   = &ParseError{Reason: "empty tool name"}
)

// MissingArgument builds a ParseError reporting that a required argument
// was absent from the block.
func MissingArgument(arg string) error {
	return &ParseError{Reason: "missing required argument", Arg: arg}
}

const marker = "TOOL_CALL:"

// Extract finds the first TOOL_CALL block in response and parses it.
// It returns the parsed Call and the remaining prose (everything before
// and after the block, concatenated and trimmed), or ok=false if no
// TOOL_CALL block is present or the block fails to parse — a parse
// failure degrades to "no tool call, keep the prose" rather than
// surfacing an error to the caller.
func Extract(response string) (call Call, remaining string, ok bool) {
	markerPos := strings.Index(response, marker)
	if markerPos < 0 {
		return Call{}, "", false
	}

	toolSection := response[markerPos+len(marker):]
	remainingBefore := response[:markerPos]

	end := findBlockEnd(toolSection)
	blockText := toolSection[:end]
	remainingAfter := toolSection[end:]

	parsed, err := parseBlock(blockText)
	if err != nil {
		return Call{}, "", false
	}

	remaining = strings.TrimSpace(remainingBefore) + strings.TrimSpace(remainingAfter)
	return parsed, remaining, true
}

// findBlockEnd returns the byte offset in section where the tool call
// block ends: end of string, the start of a second "TOOL_CALL:" marker,
// or a blank line followed by non-indented prose.
func findBlockEnd(section string) int {
	pos := 0
	hasBlankLine := false

	lines := splitLinesKeepEnds(section)
	for _, rawLine := range lines {
		lineStart := pos
		line := strings.TrimRight(rawLine.text, " \t\r")

		pos += rawLine.consumedLen

		if strings.TrimSpace(line) == "TOOL_CALL:" {
			return lineStart
		}

		if line == "" {
			hasBlankLine = true
			continue
		}

		if hasBlankLine && !strings.HasPrefix(line, "  ") {
			return lineStart
		}

		if strings.HasPrefix(line, "  ") {
			hasBlankLine = false
		}
	}

	return len(section)
}

type rawLine struct {
	text        string
	consumedLen int // bytes consumed from the section, including the newline
}

// splitLinesKeepEnds splits s the way Rust's str::lines() does: on '\n',
// stripping a trailing '\r', without a trailing empty line for a string
// that doesn't end in '\n'.
func splitLinesKeepEnds(s string) []rawLine {
	if s == "" {
		return nil
	}

	var out []rawLine
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, rawLine{text: s[start:i], consumedLen: i - start + 1})
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, rawLine{text: s[start:], consumedLen: len(s) - start})
	}
	return out
}

// parseBlock parses the body of a TOOL_CALL block (the text after the
// "TOOL_CALL:" line itself).
func parseBlock(block string) (Call, error) {
	var toolName string
	haveTool := false
	args := make(map[string]string)
	var currentKey string

	for _, raw := range splitLinesKeepEnds(block) {
		line := strings.TrimSpace(raw.text)

		if line == "" {
			continue
		}

		if rest, found := strings.CutPrefix(line, "tool:"); found {
			tool := strings.TrimSpace(rest)
			if tool == "" {
				return Call{}, errEmptyToolName
			}
			toolName = tool
			haveTool = true
			continue
		}

		if line == "args:" {
			continue
		}

		if colonPos := strings.Index(line, ":"); colonPos >= 0 {
			key := strings.TrimSpace(line[:colonPos])
			value := strings.TrimSpace(line[colonPos+1:])
			currentKey = key
			args[key] = value
		} else if currentKey != "" {
			args[currentKey] = args[currentKey] + " " + line
		}
	}

	if !haveTool {
		return Call{}, errMissingToolName
	}
	if toolName == "" {
		return Call{}, errEmptyToolName
	}

	return Call{Tool: toolName, Args: args}, nil
}

// Render writes the call back out in the TOOL_CALL wire format, args in
// sorted key order. Extract on the rendered text yields an equal Call, so
// a call survives a round trip through the format unchanged.
func (c Call) Render() string {
	var b strings.Builder
	b.WriteString(marker)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  tool: %s\n", c.Tool)
	b.WriteString("  args:\n")

	keys := make([]string, 0, len(c.Args))
	for k := range c.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s: %s\n", k, c.Args[k])
	}
	return b.String()
}

// HasToolCall reports whether response contains a TOOL_CALL marker.
func HasToolCall(response string) bool {
	return strings.Contains(response, marker)
}

// TruncateOutput truncates output to MaxToolOutputPreview characters,
// appending a note of the original length when truncated.
func TruncateOutput(output string) string {
	if len(output) <= MaxToolOutputPreview {
		return output
	}
	return fmt.Sprintf("%s... (truncated, %d total chars)", output[:MaxToolOutputPreview], len(output))
}

// FormatResult formats a tool result for injection back into the
// conversation as a system-authored message.
func FormatResult(tool string, success bool, output string) string {
	status := "success"
	if !success {
		status = "error"
	}
	return fmt.Sprintf("[SYSTEM TOOL RESULT]\nTool: %s\nStatus: %s\nOutput: %s\n", tool, status, TruncateOutput(output))
}

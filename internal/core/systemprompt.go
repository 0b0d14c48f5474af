package core

import (
	"fmt"
	"strings"

	"github.com/oldnordic/odincode/internal/mode"
	"github.com/oldnordic/odincode/internal/registry"
)

// buildAgentSystemPrompt assembles the system prompt for the TOOL_CALL
// text-wire-format loop: identity, the wire format itself, and a
// mode-scoped tool inventory. This is distinct from system.BuildPrompt,
// which serves the legacy Loop's native/structured tool-calling and
// therefore has no use for a TOOL_CALL grammar description.
func buildAgentSystemPrompt(m mode.PromptMode, reg *registry.Registry) string {
	var b strings.Builder

	b.WriteString("You are an autonomous coding agent operating against a real repository.\n")
	b.WriteString("You investigate and act by calling tools; you do not have direct shell access.\n\n")

	fmt.Fprintf(&b, "Current mode: %s (up to %d tool calls before you must answer from what you have).\n\n",
		m, m.MaxToolCalls())

	b.WriteString("To call a tool, emit exactly one TOOL_CALL block and nothing else:\n\n")
	b.WriteString("TOOL_CALL:\n")
	b.WriteString("  tool: <tool_name>\n")
	b.WriteString("  args:\n")
	b.WriteString("    <key>: <value>\n\n")
	b.WriteString("Only one TOOL_CALL block is honored per reply. When you have enough\n")
	b.WriteString("information to answer, reply in plain prose with no TOOL_CALL block.\n\n")

	tools := mode.AllowedTools(m)
	if len(tools) == 0 {
		b.WriteString("No tools are available in this mode; answer from the conversation so far.\n")
		return b.String()
	}

	b.WriteString("Tools available in this mode:\n")
	for _, name := range tools {
		meta, ok := reg.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", meta.Name, meta.Description)
		for _, arg := range meta.Arguments {
			required := "optional"
			if arg.Required {
				required = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s): %s\n", arg.Name, arg.Type, required, arg.Description)
		}
	}

	b.WriteString("\nBefore editing or writing any file, call memory_query first: edits are\n")
	b.WriteString("rejected unless a memory_query happened within the last 10 seconds.\n")

	return b.String()
}

// Package mode classifies a user's message into a PromptMode and
// enforces the per-mode tool allow-list and tool-call quota the agent
// loop uses to bound how much a single turn can do.
package mode

import (
	"sort"
	"strings"
)

// PromptMode buckets a user turn by the kind of work it implies, so the
// loop can restrict which tools are reachable and how many calls a turn
// may spend.
type PromptMode int

const (
	// Query expects a short factual answer (counts, summaries) with
	// minimal tool use.
	Query PromptMode = iota
	// Explore is read-only investigation: search, read, inspect.
	Explore
	// Mutation edits the codebase.
	Mutation
	// Presentation is a terminal mode with no further tool calls — the
	// loop has spent its quota and must answer from what it already has.
	Presentation
)

func (m PromptMode) String() string {
	switch m {
	case Query:
		return "query"
	case Explore:
		return "explore"
	case Mutation:
		return "mutation"
	case Presentation:
		return "presentation"
	default:
		return "unknown"
	}
}

// MaxToolCalls returns the tool-call quota for the mode.
func (m PromptMode) MaxToolCalls() int {
	switch m {
	case Query:
		return 2
	case Explore:
		return 3
	case Mutation:
		return 5
	case Presentation:
		return 0
	default:
		return 0
	}
}

// exploreKeywords, mutationKeywords and queryKeywords are checked in
// that priority order: Explore beats Mutation beats Query, and an
// unmatched message defaults to Explore.
var (
	exploreKeywords  = []string{"where is", "where's", "find", "search", "locate", "look for", "show me"}
	mutationKeywords = []string{
		"edit", "fix", "change", "update", "modify", "refactor", "rename",
		"delete", "remove", "add", "write", "create", "implement", "patch",
	}
	queryKeywords = []string{
		"how many", "count", "total", "what is", "what's", "list", "summarize", "explain",
	}
)

// Classify derives a PromptMode from the text of a user message, using
// fixed keyword priority: Explore > Mutation > Query > default Explore.
func Classify(message string) PromptMode {
	lower := strings.ToLower(message)

	for _, kw := range exploreKeywords {
		if strings.Contains(lower, kw) {
			return Explore
		}
	}
	for _, kw := range mutationKeywords {
		if strings.Contains(lower, kw) {
			return Mutation
		}
	}
	for _, kw := range queryKeywords {
		if strings.Contains(lower, kw) {
			return Query
		}
	}

	return Explore
}

// allowLists maps each mode to the set of tools reachable within it.
// Presentation allows none — its quota is zero and it exists only to
// let the loop produce a final answer without further tool access.
var allowLists = map[PromptMode]map[string]bool{
	Query: set(
		"wc", "count_files", "count_lines", "memory_query", "execution_summary", "fs_stats",
	),
	Explore: set(
		"file_read", "file_glob", "file_search", "symbols_in_file",
		"references_to_symbol", "references_from_file_to_symbol",
		"wc", "count_files", "count_lines", "fs_stats",
		"memory_query", "execution_summary",
		"git_status", "git_diff", "git_log",
	),
	Mutation: set(
		"file_read", "file_create", "file_write", "file_edit",
		"file_glob", "file_search", "symbols_in_file",
		"references_to_symbol", "references_from_file_to_symbol",
		"splice_patch", "splice_plan", "go_vet_check",
		"git_status", "git_diff", "git_log", "git_commit",
		"memory_query", "execution_summary",
		"wc", "count_files", "count_lines", "fs_stats",
	),
	Presentation: set(),
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// ToolAllowed reports whether tool may be called while in mode.
func ToolAllowed(mode PromptMode, tool string) bool {
	return allowLists[mode][tool]
}

// AllowedTools returns the tools reachable in mode, sorted for stable
// prompt rendering. The loop driver uses this to describe a mode-scoped
// tool inventory to the LLM instead of the whole registry.
func AllowedTools(mode PromptMode) []string {
	list := allowLists[mode]
	out := make([]string, 0, len(list))
	for tool := range list {
		out = append(out, tool)
	}
	sort.Strings(out)
	return out
}

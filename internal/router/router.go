package router

import (
	"fmt"
	"strings"

	"github.com/oldnordic/odincode/internal/registry"
)

// Destination is where a tool's output is routed.
type Destination int

const (
	// Chat injects the output into the conversation, visible to the user.
	Chat Destination = iota
	// Diagnostics logs the output but keeps it out of the conversation.
	Diagnostics
	// Both routes to chat and diagnostics.
	Both
	// None suppresses the output entirely.
	None
)

func (d Destination) String() string {
	switch d {
	case Chat:
		return "chat"
	case Diagnostics:
		return "diagnostics"
	case Both:
		return "both"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// UserIntent is the purpose behind a tool invocation, used by rules that
// route differently depending on why a tool was called.
type UserIntent int

const (
	IntentRead UserIntent = iota
	IntentModify
	IntentAnalyze
	IntentDebug
)

// Rule matches a tool/output-kind/intent combination and says where its
// output goes and whether it should be truncated. ToolPattern may end in
// "*" for a prefix match, or be empty to match any tool.
type Rule struct {
	ToolPattern       string
	OutputKind        OutputKind
	RequiredIntent    *UserIntent
	TruncateThreshold int // 0 means "no rule-level truncation"
	Destination       Destination
}

func newRule(pattern string, kind OutputKind, dest Destination) Rule {
	return Rule{ToolPattern: pattern, OutputKind: kind, Destination: dest}
}

func (r Rule) withTruncation(threshold int) Rule {
	r.TruncateThreshold = threshold
	return r
}

func (r Rule) toolMatches(tool string) bool {
	if r.ToolPattern == "" {
		return true
	}
	if strings.HasSuffix(r.ToolPattern, "*") {
		return strings.HasPrefix(tool, strings.TrimSuffix(r.ToolPattern, "*"))
	}
	return tool == r.ToolPattern
}

// Matches reports whether the rule applies to the given tool/kind/intent.
func (r Rule) Matches(tool string, kind OutputKind, intent UserIntent) bool {
	if !r.toolMatches(tool) {
		return false
	}
	if r.OutputKind != kind {
		return false
	}
	if r.RequiredIntent != nil && *r.RequiredIntent != intent {
		return false
	}
	return true
}

// Config holds the router's fallback behavior for tools with no matching
// rule.
type Config struct {
	MaxOutputSize      int
	ShowToolNames      bool
	ShowTiming         bool
	DefaultDestination Destination
}

// DefaultConfig is the baseline: 10,000-char truncation
// threshold, tool names shown, timing hidden, unmatched tools go to chat.
func DefaultConfig() Config {
	return Config{
		MaxOutputSize:      10000,
		ShowToolNames:      true,
		ShowTiming:         false,
		DefaultDestination: Chat,
	}
}

// Router decides where a tool's output is routed and whether it needs
// truncation, consulting custom rules first and falling back to the
// tool's registry classification.
type Router struct {
	registry *registry.Registry
	rules    []Rule
	config   Config
}

// New builds a Router with the default tool registry and routing rules.
func New() *Router {
	return &Router{registry: registry.New(), rules: defaultRules(), config: DefaultConfig()}
}

// NewWithRegistry builds a Router over a caller-supplied registry, for
// tests.
func NewWithRegistry(reg *registry.Registry) *Router {
	return &Router{registry: reg, rules: defaultRules(), config: DefaultConfig()}
}

// Empty builds a Router with no rules and an empty registry, for tests.
func Empty() *Router {
	return &Router{registry: registry.Empty(), rules: nil, config: DefaultConfig()}
}

func defaultRules() []Rule {
	return []Rule{
		newRule("file_*", Textual, Chat),
		newRule("file_*", FileContent, Chat),
		newRule("file_*", Void, Diagnostics),

		newRule("file_search", Structural, Chat),
		newRule("file_glob", Structural, Chat),

		newRule("splice_*", Textual, Both).withTruncation(5000),

		newRule("symbols_*", Structural, Chat),
		newRule("references_*", Structural, Chat),

		newRule("go_vet_check", Error, Both),

		newRule("git_*", Textual, Chat),
		newRule("git_*", Structural, Chat),
	}
}

// AddRule appends a custom routing rule, checked before the default
// registry-classification fallback.
func (r *Router) AddRule(rule Rule) {
	r.rules = append(r.rules, rule)
}

// SetConfig replaces the router's fallback configuration.
func (r *Router) SetConfig(c Config) { r.config = c }

// Config returns the router's current fallback configuration.
func (r *Router) Config() Config { return r.config }

// Route returns the destination for a tool's output of the given kind,
// under the given intent: custom rules are checked first, in order; if
// none match, the tool's registry classification decides (Auto→Chat,
// Gated→Both, Forbidden→None), and an unregistered tool falls back to
// the router's default destination.
func (r *Router) Route(tool string, kind OutputKind, intent UserIntent) Destination {
	for _, rule := range r.rules {
		if rule.Matches(tool, kind, intent) {
			return rule.Destination
		}
	}

	if meta, ok := r.registry.Get(tool); ok {
		switch meta.Classification {
		case registry.Auto:
			return Chat
		case registry.Gated:
			return Both
		case registry.Forbidden:
			return None
		}
	}

	return r.config.DefaultDestination
}

// ShouldTruncate reports whether an output of the given size should be
// truncated before injection, using the first matching rule's threshold
// or the router's default max output size.
func (r *Router) ShouldTruncate(tool string, outputSize int) bool {
	for _, rule := range r.rules {
		if rule.toolMatches(tool) && rule.TruncateThreshold > 0 {
			return outputSize > rule.TruncateThreshold
		}
	}
	return outputSize > r.config.MaxOutputSize
}

func (r *Router) truncationThreshold(tool string) int {
	for _, rule := range r.rules {
		if rule.toolMatches(tool) && rule.TruncateThreshold > 0 {
			return rule.TruncateThreshold
		}
	}
	return r.config.MaxOutputSize
}

// TruncateOutput truncates output to the tool's threshold, appending a
// marker noting the original length, or returns it unchanged if it does
// not need truncation.
func (r *Router) TruncateOutput(tool, output string) string {
	if !r.ShouldTruncate(tool, len(output)) {
		return output
	}

	threshold := r.truncationThreshold(tool)
	if threshold > len(output) {
		threshold = len(output)
	}

	return fmt.Sprintf("%s... [truncated, %d chars total]", output[:threshold], len(output))
}

// IsVisible reports whether output of this kind/intent is shown in chat.
func (r *Router) IsVisible(tool string, kind OutputKind, intent UserIntent) bool {
	dest := r.Route(tool, kind, intent)
	return dest == Chat || dest == Both
}

// ShouldLog reports whether output of this kind/intent goes to
// diagnostics.
func (r *Router) ShouldLog(tool string, kind OutputKind, intent UserIntent) bool {
	dest := r.Route(tool, kind, intent)
	return dest == Diagnostics || dest == Both
}

// ChatRoutedTools returns every available registry tool whose Textual
// output (under Read intent) routes to chat.
func (r *Router) ChatRoutedTools() map[string]bool {
	out := map[string]bool{}
	for _, name := range r.registry.AvailableToolNames() {
		if r.IsVisible(name, Textual, IntentRead) {
			out[name] = true
		}
	}
	return out
}

// DiagnosticOnlyTools returns every available registry tool whose
// Textual output (under Read intent) routes to diagnostics only.
func (r *Router) DiagnosticOnlyTools() map[string]bool {
	out := map[string]bool{}
	for _, name := range r.registry.AvailableToolNames() {
		if r.Route(name, Textual, IntentRead) == Diagnostics {
			out[name] = true
		}
	}
	return out
}

// Package executor is the tool execution facade: given a parsed
// tool call, it checks the call is for a known tool, enforces the
// temporal-grounding invariant on mutation tools, checks any
// precondition the caller declares, dispatches to the concrete
// implementation, and returns a routing-ready Invocation.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/registry"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/symbols"
)

// Invocation is the result of running one tool call, carrying enough
// information for both chat injection and the structured-data side
// channel.
type Invocation struct {
	Success        bool
	Stdout         string
	Stderr         string
	ErrorMessage   string
	AffectedPath   string
	DurationMS     int64
	Kind           router.OutputKind
	StructuredData any // typically []map[string]any or a scalar
}

// Call is a tool invocation request: the tool name and its string
// arguments, as parsed off the TOOL_CALL wire format.
type Call struct {
	SessionID string
	Tool      string
	Args      map[string]string
	Step      int
}

// ErrToolNotFound is returned when Call.Tool is not in the registry.
var ErrToolNotFound = errors.New("tool not found")

// GroundingError is returned when a mutation tool runs without a recent
// enough memory_query call.
type GroundingError struct {
	Tool           string
	TimeSinceMS    int64
	RequiredWindow int64
}

func (e *GroundingError) Error() string {
	return fmt.Sprintf(
		"last memory_query was %dms ago (max allowed: %dms); must call memory_query before %s",
		e.TimeSinceMS, e.RequiredWindow, e.Tool,
	)
}

// MissingArgumentError is returned when a required tool argument is absent.
type MissingArgumentError struct {
	Tool     string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q", e.Tool, e.Argument)
}

// mutationTools require a recent memory_query before they may run, so
// the agent is grounded in current state before editing it.
var mutationTools = map[string]bool{
	"file_edit":    true,
	"file_write":   true,
	"file_create":  true,
	"splice_patch": true,
	"splice_plan":  true,
}

// IsMutationTool reports whether tool requires temporal grounding.
func IsMutationTool(tool string) bool { return mutationTools[tool] }

// Executor wires the registry, symbol index and action history together
// to run concrete tool implementations.
type Executor struct {
	Registry  *registry.Registry
	Symbols   *symbols.Index
	History   *history.Store
	LastQuery *history.LastQueryTracker
	Root      string // project root tools resolve relative paths against
}

// New builds an Executor over the given collaborators.
func New(reg *registry.Registry, sym *symbols.Index, hist *history.Store, lastQuery *history.LastQueryTracker, root string) *Executor {
	return &Executor{Registry: reg, Symbols: sym, History: hist, LastQuery: lastQuery, Root: root}
}

// InvokeTool runs call, enforcing registry membership and, for mutation
// tools, the temporal-grounding invariant, before dispatching to the
// concrete tool implementation.
func (e *Executor) InvokeTool(ctx context.Context, call Call, nowMS int64) (Invocation, error) {
	if !e.Registry.Contains(call.Tool) {
		return Invocation{}, fmt.Errorf("%w: %s", ErrToolNotFound, call.Tool)
	}

	if IsMutationTool(call.Tool) {
		delta := e.LastQuery.TimeSinceQueryMS(call.SessionID, nowMS)
		if delta < 0 {
			delta = nowMS
		}
		if delta > history.GroundingWindowMS {
			return Invocation{}, &GroundingError{Tool: call.Tool, TimeSinceMS: delta, RequiredWindow: history.GroundingWindowMS}
		}
	}

	start := time.Now()
	inv, err := e.dispatch(ctx, call, nowMS)
	inv.DurationMS = time.Since(start).Milliseconds()
	return inv, err
}

func (e *Executor) dispatch(ctx context.Context, call Call, nowMS int64) (Invocation, error) {
	switch call.Tool {
	case "file_read":
		return e.invokeFileRead(call)
	case "file_write":
		return e.invokeFileWrite(call)
	case "file_create":
		return e.invokeFileCreate(call)
	case "file_edit":
		return e.invokeFileEdit(call)
	case "file_glob":
		return e.invokeFileGlob(call)
	case "file_search":
		return e.invokeFileSearch(call)
	case "splice_patch":
		return e.invokeSplicePatch(call)
	case "splice_plan":
		return e.invokeSplicePlan(call)
	case "symbols_in_file":
		return e.invokeSymbolsInFile(ctx, call)
	case "references_to_symbol":
		return e.invokeReferencesToSymbol(ctx, call)
	case "references_from_file_to_symbol":
		return e.invokeReferencesFromFileToSymbol(ctx, call)
	case "go_vet_check":
		return e.invokeGoVetCheck(ctx, call)
	case "git_status":
		return e.invokeGitStatus(ctx, call)
	case "git_diff":
		return e.invokeGitDiff(ctx, call)
	case "git_log":
		return e.invokeGitLog(ctx, call)
	case "git_commit":
		return e.invokeGitCommit(ctx, call)
	case "memory_query":
		return e.invokeMemoryQuery(ctx, call, nowMS)
	case "execution_summary":
		return e.invokeExecutionSummary(ctx, call)
	case "wc":
		return e.invokeWC(call)
	case "count_files":
		return e.invokeCountFiles(call)
	case "count_lines":
		return e.invokeCountLines(call)
	case "fs_stats":
		return e.invokeFSStats(call)
	default:
		return Invocation{}, fmt.Errorf("%w: %s (registered but unimplemented)", ErrToolNotFound, call.Tool)
	}
}

func errorInvocation(err error) Invocation {
	return Invocation{Success: false, ErrorMessage: err.Error(), Kind: router.Error}
}

func (c Call) resolvePath(base *Executor, key string) (string, error) {
	v, ok := c.Args[key]
	if !ok || v == "" {
		return "", &MissingArgumentError{Tool: c.Tool, Argument: key}
	}
	return resolveUnder(base.Root, v), nil
}

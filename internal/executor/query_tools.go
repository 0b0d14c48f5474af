package executor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/symbols"
)

func (e *Executor) invokeSymbolsInFile(ctx context.Context, call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "file_path")
	if err != nil {
		return Invocation{}, err
	}

	rows, qErr := e.Symbols.SymbolsInFile(ctx, path)
	if qErr != nil {
		return errorInvocation(fmt.Errorf("symbols_in_file: %w", qErr)), nil
	}

	var data []any
	for _, r := range rows {
		data = append(data, map[string]any{
			"name": r.Name, "kind": r.Kind, "file_path": r.FilePath,
			"byte_start": int64(r.ByteStart), "byte_end": int64(r.ByteEnd),
		})
	}
	summary := router.BuildStructuralSummary("symbols_in_file", data)
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

func (e *Executor) invokeReferencesToSymbol(ctx context.Context, call Call) (Invocation, error) {
	name, ok := call.Args["symbol"]
	if !ok || name == "" {
		return Invocation{}, &MissingArgumentError{Tool: call.Tool, Argument: "symbol"}
	}

	rows, qErr := e.Symbols.ReferencesToSymbol(ctx, name)
	if qErr != nil {
		return errorInvocation(fmt.Errorf("references_to_symbol: %w", qErr)), nil
	}

	data := referenceRowsToData(rows)
	summary := router.BuildStructuralSummary("references_to_symbol", data)
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

func (e *Executor) invokeReferencesFromFileToSymbol(ctx context.Context, call Call) (Invocation, error) {
	path, err := call.resolvePath(e, "file_path")
	if err != nil {
		return Invocation{}, err
	}
	name, ok := call.Args["symbol"]
	if !ok || name == "" {
		return Invocation{}, &MissingArgumentError{Tool: call.Tool, Argument: "symbol"}
	}

	rows, qErr := e.Symbols.ReferencesFromFileToSymbol(ctx, path, name)
	if qErr != nil {
		return errorInvocation(fmt.Errorf("references_from_file_to_symbol: %w", qErr)), nil
	}

	data := referenceRowsToData(rows)
	summary := router.BuildStructuralSummary("references_from_file_to_symbol", data)
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

func referenceRowsToData(rows []symbols.ReferenceRow) []any {
	var data []any
	for _, r := range rows {
		data = append(data, map[string]any{
			"from_file_path": r.FromFilePath, "symbol_name": r.SymbolName,
			"byte_start": int64(r.ByteStart), "byte_end": int64(r.ByteEnd),
		})
	}
	return data
}

func (e *Executor) invokeMemoryQuery(ctx context.Context, call Call, nowMS int64) (Invocation, error) {
	filter := history.QueryFilter{
		Tool:      call.Args["tool"],
		SessionID: call.SessionID,
	}
	if s := call.Args["session_id"]; s != "" {
		filter.SessionID = s
	}
	if call.Args["success_only"] == "true" {
		filter.SuccessOnly = true
	}
	if n, convErr := strconv.Atoi(call.Args["limit"]); convErr == nil && n > 0 {
		filter.Limit = n
	}

	actions, err := e.History.Query(ctx, filter)
	if err != nil {
		return errorInvocation(fmt.Errorf("memory_query: %w", err)), nil
	}

	e.LastQuery.RecordQuery(call.SessionID, nowMS)

	var data []any
	for _, a := range actions {
		data = append(data, map[string]any{
			"tool": a.Tool, "timestamp": a.Timestamp, "success": a.Success,
			"duration_ms": a.DurationMS,
		})
	}
	summary := fmt.Sprintf("memory_query: %d actions found", len(data))
	return Invocation{Success: true, Stdout: summary, Kind: router.Structural, StructuredData: data}, nil
}

func (e *Executor) invokeExecutionSummary(ctx context.Context, call Call) (Invocation, error) {
	sessionID := call.SessionID
	if s := call.Args["session_id"]; s != "" {
		sessionID = s
	}
	summary, err := e.History.Summarize(ctx, call.Args["tool"], sessionID)
	if err != nil {
		return errorInvocation(fmt.Errorf("execution_summary: %w", err)), nil
	}

	text := fmt.Sprintf(
		"execution_summary: %d total, %d succeeded, %d failed (%.1f%% success rate), avg %dms",
		summary.Total, summary.Succeeded, summary.Failed, summary.SuccessRate*100, summary.AvgDurationMS,
	)
	return Invocation{Success: true, Stdout: text, Kind: router.NumericSummary, StructuredData: summary}, nil
}

// Package history persists every tool invocation the agent loop makes
// to a SQLite-backed action log, backing the memory_query and
// execution_summary tools and the temporal-grounding check mutation
// tools must satisfy.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Action is one recorded tool invocation.
type Action struct {
	ID         string
	Tool       string
	SessionID  string
	Timestamp  int64 // unix millis
	ArgsJSON   string
	Success    bool
	Result     string
	ErrorMsg   string
	DurationMS int64
}

// Store is a SQLite-backed action log. One Store is shared by a whole
// process; SessionID filtering happens at query time.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. path may be ":memory:" for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open action history db: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer discipline

	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			tool_name TEXT NOT NULL,
			session_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			args_json TEXT,
			success BOOLEAN NOT NULL,
			result TEXT,
			error_message TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_tool ON actions(tool_name)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id)`,
		`CREATE TABLE IF NOT EXISTS file_snapshots (
			id TEXT PRIMARY KEY,
			action_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			hash TEXT NOT NULL,
			FOREIGN KEY (action_id) REFERENCES actions (id)
		)`,
		`CREATE TABLE IF NOT EXISTS ai_decisions (
			id TEXT PRIMARY KEY,
			action_id TEXT NOT NULL,
			reasoning_chain TEXT NOT NULL,
			confidence_score REAL,
			timestamp INTEGER NOT NULL,
			FOREIGN KEY (action_id) REFERENCES actions (id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init action history schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordAction inserts a completed tool invocation into the log.
func (s *Store) RecordAction(ctx context.Context, a Action) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, tool_name, session_id, timestamp, args_json, success, result, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Tool, a.SessionID, a.Timestamp, a.ArgsJSON, a.Success, a.Result, a.ErrorMsg, a.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// RecordFileSnapshot stores the content of a file as it stood right
// after actionID mutated it, for later diff/undo support.
func (s *Store) RecordFileSnapshot(ctx context.Context, id, actionID, filePath, content, hash string, timestampMS int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_snapshots (id, action_id, file_path, content, timestamp, hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, actionID, filePath, content, timestampMS, hash,
	)
	if err != nil {
		return fmt.Errorf("record file snapshot: %w", err)
	}
	return nil
}

// RecordAIDecision stores the reasoning chain behind an assistant's
// tool-call decision, for later ML feedback analysis.
func (s *Store) RecordAIDecision(ctx context.Context, id, actionID, reasoningChain string, confidence float64, timestampMS int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_decisions (id, action_id, reasoning_chain, confidence_score, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		id, actionID, reasoningChain, confidence, timestampMS,
	)
	if err != nil {
		return fmt.Errorf("record ai decision: %w", err)
	}
	return nil
}

// QueryFilter narrows a memory_query call. Zero values mean "no filter".
type QueryFilter struct {
	Tool        string
	SessionID   string
	SuccessOnly bool
	Limit       int
}

// Query returns actions matching filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Action, error) {
	var conds []string
	var args []any

	if filter.Tool != "" {
		conds = append(conds, "tool_name = ?")
		args = append(args, filter.Tool)
	}
	if filter.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.SuccessOnly {
		conds = append(conds, "success = ?")
		args = append(args, true)
	}

	query := "SELECT id, tool_name, session_id, timestamp, args_json, success, result, error_message, duration_ms FROM actions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var argsJSON, result, errMsg sql.NullString
		if err := rows.Scan(&a.ID, &a.Tool, &a.SessionID, &a.Timestamp, &argsJSON, &a.Success, &result, &errMsg, &a.DurationMS); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		a.ArgsJSON = argsJSON.String
		a.Result = result.String
		a.ErrorMsg = errMsg.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}
	return out, nil
}

// Summary is the aggregated execution_summary result.
type Summary struct {
	Total        int
	Succeeded    int
	Failed       int
	SuccessRate  float64
	AvgDurationMS int64
}

// Summarize aggregates executions matching tool/session filters (empty
// string means "any").
func (s *Store) Summarize(ctx context.Context, tool, sessionID string) (Summary, error) {
	var conds []string
	var args []any
	if tool != "" {
		conds = append(conds, "tool_name = ?")
		args = append(args, tool)
	}
	if sessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, sessionID)
	}

	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(duration_ms), 0)
		FROM actions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var total, succeeded int
	var avgDuration float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total, &succeeded, &avgDuration); err != nil {
		return Summary{}, fmt.Errorf("summarize actions: %w", err)
	}

	sum := Summary{
		Total:         total,
		Succeeded:     succeeded,
		Failed:        total - succeeded,
		AvgDurationMS: int64(avgDuration),
	}
	if total > 0 {
		sum.SuccessRate = float64(succeeded) / float64(total)
	} else {
		sum.SuccessRate = 1.0
	}
	return sum, nil
}

// LastQueryTracker caches the timestamp of the most recent memory_query
// call per session in RAM. It is deliberately not persisted to the
// database, since it is only ever consulted within the lifetime of one
// running process.
type LastQueryTracker struct {
	lastQueryMS map[string]int64
}

// NewLastQueryTracker builds an empty in-memory tracker.
func NewLastQueryTracker() *LastQueryTracker {
	return &LastQueryTracker{lastQueryMS: map[string]int64{}}
}

// RecordQuery stamps sessionID's last memory_query time to nowMS.
func (t *LastQueryTracker) RecordQuery(sessionID string, nowMS int64) {
	t.lastQueryMS[sessionID] = nowMS
}

// TimeSinceQueryMS returns how long it has been, in milliseconds, since
// sessionID last called memory_query, or -1 if it never has.
func (t *LastQueryTracker) TimeSinceQueryMS(sessionID string, nowMS int64) int64 {
	last, ok := t.lastQueryMS[sessionID]
	if !ok {
		return -1
	}
	return nowMS - last
}

// GroundingWindowMS is the temporal-grounding window: a mutation tool
// may only run if memory_query was called within this many milliseconds.
const GroundingWindowMS = 10000

// IsGrounded reports whether sessionID satisfies the temporal-grounding
// invariant at time nowMS.
func (t *LastQueryTracker) IsGrounded(sessionID string, nowMS int64) bool {
	delta := t.TimeSinceQueryMS(sessionID, nowMS)
	return delta >= 0 && delta <= GroundingWindowMS
}

// NowMS is a small helper so callers that do not otherwise need the
// time package can stamp actions consistently.
func NowMS() int64 { return time.Now().UnixMilli() }

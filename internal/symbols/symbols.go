// Package symbols is a read-write, SQLite-backed index of top-level Go
// declarations and their references, used by the symbols_in_file,
// references_to_symbol and references_from_file_to_symbol tools. The
// graph_entities/graph_edges schema is populated in-process with Go's
// own go/parser and go/ast rather than by an external indexer, so the
// index is always built with the same toolchain that compiles the code
// it describes.
package symbols

import (
	"context"
	"database/sql"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SymbolRow is one top-level declaration.
type SymbolRow struct {
	SymbolID  int64
	Name      string
	Kind      string // "func", "type", "var", "const"
	FilePath  string
	ByteStart int
	ByteEnd   int
}

// ReferenceRow is one identifier usage that resolves to a declared
// symbol by name.
type ReferenceRow struct {
	ReferenceID  int64
	FromFilePath string
	SymbolID     int64
	SymbolName   string
	ByteStart    int
	ByteEnd      int
}

// Index is a SQLite-backed symbol/reference graph for a Go source tree.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the index database at path and
// ensures its schema exists. path may be ":memory:" for tests.
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open symbol index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	idx := &Index{db: db}
	if err := idx.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS graph_entities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT NOT NULL,
			byte_start INTEGER NOT NULL,
			byte_end INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_file ON graph_entities(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_name ON graph_entities(name)`,
		`CREATE TABLE IF NOT EXISTS graph_edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_file_path TEXT NOT NULL,
			to_symbol_id INTEGER NOT NULL,
			to_symbol_name TEXT NOT NULL,
			byte_start INTEGER NOT NULL,
			byte_end INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_symbol_name ON graph_edges(to_symbol_name)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_from_file ON graph_edges(from_file_path)`,
	}
	for _, stmt := range stmts {
		if _, err := idx.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init symbol index schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (idx *Index) Close() error { return idx.db.Close() }

// Reset clears every entity and edge, for a full re-index.
func (idx *Index) Reset(ctx context.Context) error {
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM graph_edges`); err != nil {
		return fmt.Errorf("reset edges: %w", err)
	}
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM graph_entities`); err != nil {
		return fmt.Errorf("reset entities: %w", err)
	}
	return nil
}

// IndexDir walks root for .go files (skipping vendor/ and hidden
// directories) and indexes each one's top-level declarations and
// identifier references.
func (idx *Index) IndexDir(ctx context.Context, root string) error {
	if err := idx.Reset(ctx); err != nil {
		return err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == "vendor" || name == "node_modules" || (strings.HasPrefix(name, ".") && name != ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	fset := token.NewFileSet()
	declared := map[string][]SymbolRow{} // name -> declarations, for the reference pass

	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		file, err := parser.ParseFile(fset, path, src, 0)
		if err != nil {
			continue // unparsable file (e.g. a syntax error mid-edit); skip rather than fail the whole index
		}

		rows := topLevelDecls(fset, file, path)
		for _, row := range rows {
			id, err := idx.insertEntity(ctx, row)
			if err != nil {
				return err
			}
			row.SymbolID = id
			declared[row.Name] = append(declared[row.Name], row)
		}
	}

	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		file, err := parser.ParseFile(fset, path, src, 0)
		if err != nil {
			continue
		}
		if err := idx.indexReferences(ctx, fset, file, path, declared); err != nil {
			return err
		}
	}

	return nil
}

func (idx *Index) insertEntity(ctx context.Context, row SymbolRow) (int64, error) {
	res, err := idx.db.ExecContext(ctx, `
		INSERT INTO graph_entities (name, kind, file_path, byte_start, byte_end)
		VALUES (?, ?, ?, ?, ?)`,
		row.Name, row.Kind, row.FilePath, row.ByteStart, row.ByteEnd,
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol %s: %w", row.Name, err)
	}
	return res.LastInsertId()
}

// topLevelDecls extracts package-level func/type/var/const declarations.
func topLevelDecls(fset *token.FileSet, file *ast.File, path string) []SymbolRow {
	var rows []SymbolRow
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			rows = append(rows, SymbolRow{
				Name: d.Name.Name, Kind: "func", FilePath: path,
				ByteStart: fset.Position(d.Pos()).Offset, ByteEnd: fset.Position(d.End()).Offset,
			})
		case *ast.GenDecl:
			kind := genDeclKind(d.Tok)
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					rows = append(rows, SymbolRow{
						Name: s.Name.Name, Kind: "type", FilePath: path,
						ByteStart: fset.Position(s.Pos()).Offset, ByteEnd: fset.Position(s.End()).Offset,
					})
				case *ast.ValueSpec:
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						rows = append(rows, SymbolRow{
							Name: name.Name, Kind: kind, FilePath: path,
							ByteStart: fset.Position(name.Pos()).Offset, ByteEnd: fset.Position(name.End()).Offset,
						})
					}
				}
			}
		}
	}
	return rows
}

func genDeclKind(tok token.Token) string {
	switch tok {
	case token.CONST:
		return "const"
	case token.VAR:
		return "var"
	default:
		return "var"
	}
}

// indexReferences records one edge per identifier in file that matches a
// declared symbol name elsewhere, excluding the declaration site itself.
func (idx *Index) indexReferences(ctx context.Context, fset *token.FileSet, file *ast.File, path string, declared map[string][]SymbolRow) error {
	declPositions := map[string]bool{}
	for _, rows := range declared {
		for _, row := range rows {
			if row.FilePath == path {
				declPositions[fmt.Sprintf("%d-%d", row.ByteStart, row.ByteEnd)] = true
			}
		}
	}

	var insertErr error
	ast.Inspect(file, func(n ast.Node) bool {
		if insertErr != nil {
			return false
		}
		ident, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		rows, ok := declared[ident.Name]
		if !ok {
			return true
		}
		start := fset.Position(ident.Pos()).Offset
		end := fset.Position(ident.End()).Offset
		if declPositions[fmt.Sprintf("%d-%d", start, end)] {
			return true // skip the declaration site itself
		}

		// A name may be declared more than once across the tree (overloaded
		// by package); record an edge to every same-named declaration, since
		// without full type resolution we cannot disambiguate further.
		for _, row := range rows {
			_, err := idx.db.ExecContext(ctx, `
				INSERT INTO graph_edges (from_file_path, to_symbol_id, to_symbol_name, byte_start, byte_end)
				VALUES (?, ?, ?, ?, ?)`,
				path, row.SymbolID, row.Name, start, end,
			)
			if err != nil {
				insertErr = fmt.Errorf("insert reference to %s: %w", row.Name, err)
				return false
			}
		}
		return true
	})
	return insertErr
}

// SymbolsInFile returns every indexed symbol declared in filePath,
// sorted by name.
func (idx *Index) SymbolsInFile(ctx context.Context, filePath string) ([]SymbolRow, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, name, kind, file_path, byte_start, byte_end
		FROM graph_entities
		WHERE file_path = ?
		ORDER BY name ASC`, filePath)
	if err != nil {
		return nil, fmt.Errorf("symbols_in_file query: %w", err)
	}
	defer rows.Close()

	var out []SymbolRow
	for rows.Next() {
		var r SymbolRow
		if err := rows.Scan(&r.SymbolID, &r.Name, &r.Kind, &r.FilePath, &r.ByteStart, &r.ByteEnd); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReferencesToSymbol returns every reference to symbolName across the
// whole index, sorted by referencing file path.
func (idx *Index) ReferencesToSymbol(ctx context.Context, symbolName string) ([]ReferenceRow, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, from_file_path, to_symbol_id, to_symbol_name, byte_start, byte_end
		FROM graph_edges
		WHERE to_symbol_name = ?
		ORDER BY from_file_path ASC`, symbolName)
	if err != nil {
		return nil, fmt.Errorf("references_to_symbol query: %w", err)
	}
	defer rows.Close()
	return scanReferenceRows(rows)
}

// ReferencesFromFileToSymbol returns every reference from filePath to
// symbolName, sorted by edge id.
func (idx *Index) ReferencesFromFileToSymbol(ctx context.Context, filePath, symbolName string) ([]ReferenceRow, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, from_file_path, to_symbol_id, to_symbol_name, byte_start, byte_end
		FROM graph_edges
		WHERE from_file_path = ? AND to_symbol_name = ?
		ORDER BY id ASC`, filePath, symbolName)
	if err != nil {
		return nil, fmt.Errorf("references_from_file_to_symbol query: %w", err)
	}
	defer rows.Close()
	return scanReferenceRows(rows)
}

func scanReferenceRows(rows *sql.Rows) ([]ReferenceRow, error) {
	var out []ReferenceRow
	for rows.Next() {
		var r ReferenceRow
		if err := rows.Scan(&r.ReferenceID, &r.FromFilePath, &r.SymbolID, &r.SymbolName, &r.ByteStart, &r.ByteEnd); err != nil {
			return nil, fmt.Errorf("scan reference row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StatusCounts mirrors the original indexer's summary counters.
type StatusCounts struct {
	Files      int64
	Symbols    int64
	References int64
}

// Status returns the indexed file/symbol/reference counts.
func (idx *Index) Status(ctx context.Context) (StatusCounts, error) {
	var sc StatusCounts
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT file_path) FROM graph_entities`).Scan(&sc.Files); err != nil {
		return sc, fmt.Errorf("count files: %w", err)
	}
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_entities`).Scan(&sc.Symbols); err != nil {
		return sc, fmt.Errorf("count symbols: %w", err)
	}
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_edges`).Scan(&sc.References); err != nil {
		return sc, fmt.Errorf("count references: %w", err)
	}
	return sc, nil
}

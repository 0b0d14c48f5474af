package registry

// defaultTools builds the concrete tool inventory this repository ships,
// re-grounded from the original Rust tool_catalog: file I/O, span-safe
// refactoring, codebase queries, compiler diagnostics, git, execution
// memory, and OS/stats utilities. "cargo_check"/"lsp_check" become
// go_vet_check; "references_to_symbol_name"/
// "references_from_file_to_symbol_name" drop the "_name" suffix to match
// this repository's naming.
func defaultTools() map[string]Metadata {
	tools := map[string]Metadata{}
	add := func(m Metadata) { tools[m.Name] = m }

	// --- File operations (AUTO) ---
	add(Metadata{
		Name: "file_read", Description: "Read complete file contents as text",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{{Name: "path", Type: "path", Required: true, Description: "Absolute or relative path to file"}},
		Examples:  Examples{Usage: []string{`file_read(path="src/main.go")`}, Output: "File contents as string"},
	})
	add(Metadata{
		Name: "file_create", Description: "Create new file only if it does not exist",
		Classification: Auto,
		Capabilities:   caps(Write, Filesystem),
		SideEffect:     SideEffectLocal, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "path", Type: "path", Required: true, Description: "Path for new file"},
			{Name: "contents", Type: "string", Required: false, Description: "Initial file content (default: empty)"},
		},
		Examples: Examples{Usage: []string{`file_create(path="src/utils.go", contents="package main")`}, Output: "File created: src/utils.go"},
	})
	add(Metadata{
		Name: "file_glob", Description: "Find files matching glob pattern (sorted results)",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "pattern", Type: "pattern", Required: true, Description: "Glob pattern (e.g. '**/*.go')"},
			{Name: "root", Type: "path", Required: false, Description: "Root directory for search (default: '.')"},
		},
		Examples: Examples{Usage: []string{`file_glob(pattern="**/*.go", root="internal")`},
			Output: "file_glob: 42 files matched\nExamples:\n  - internal/core/core.go\n(Full results in Explorer)"},
	})
	add(Metadata{
		Name: "file_search", Description: "Search file contents by regular expression",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Medium, Available: true, MaxTimeoutMS: 30000,
		Arguments: []Argument{
			{Name: "pattern", Type: "string", Required: true, Description: "Regular expression to search for"},
			{Name: "root", Type: "path", Required: false, Description: "Root directory (default: '.')"},
		},
		Examples: Examples{Usage: []string{`file_search(pattern="func Execute", root="internal")`},
			Output: "file_search: 3 matches found\nExamples:\n  - internal/executor/executor.go:42\n(Full results in Explorer)"},
	})
	add(Metadata{
		Name: "file_write", Description: "Atomically overwrite file with new contents",
		Classification: Auto,
		Capabilities:   caps(Write, Filesystem),
		SideEffect:     SideEffectLocal, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "path", Type: "path", Required: true, Description: "File to overwrite"},
			{Name: "contents", Type: "string", Required: true, Description: "New file contents"},
		},
		Examples: Examples{Usage: []string{`file_write(path="src/main.go", contents="package main")`}, Output: "File written: src/main.go"},
	})
	add(Metadata{
		Name: "file_edit", Description: "Edit file by line number or pattern (non-structural)",
		Classification: Auto,
		Capabilities:   caps(Write, Filesystem),
		SideEffect:     SideEffectLocal, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "path", Type: "path", Required: true, Description: "File to edit"},
			{Name: "line_number", Type: "integer", Required: false, Description: "Replace specific line"},
			{Name: "new_content", Type: "string", Required: false, Description: "New line content"},
			{Name: "pattern", Type: "string", Required: false, Description: "Regex pattern to find and replace"},
			{Name: "replace_all", Type: "boolean", Required: false, Description: "Replace all pattern matches (default: false)"},
			{Name: "insert_after", Type: "integer", Required: false, Description: "Insert new line after this line number"},
			{Name: "content", Type: "string", Required: false, Description: "Content to insert"},
			{Name: "delete_line", Type: "integer", Required: false, Description: "Delete specific line"},
		},
		Examples: Examples{Usage: []string{
			`file_edit(path="src/main.go", line_number=10, new_content="    fmt.Println(\"updated\")")`,
			`file_edit(path="src/main.go", pattern="TODO", new_content="FIXME", replace_all=true)`,
		}, Output: "file_edit: src/main.go modified (1 lines changed, 0 inserted, 0 deleted)"},
	})

	// --- Span-safe refactoring (GATED) ---
	add(Metadata{
		Name: "splice_patch", Description: "Replace a single symbol's definition with a span-safe brace-balanced swap",
		Classification: Gated,
		Capabilities:   caps(Write, Execute, Filesystem),
		SideEffect:     SideEffectMutating, Resource: Heavy, Available: true, MaxTimeoutMS: 60000,
		Arguments: []Argument{
			{Name: "file", Type: "path", Required: true, Description: "File containing the symbol to replace"},
			{Name: "symbol", Type: "string", Required: true, Description: "Symbol name to replace"},
			{Name: "with", Type: "path", Required: true, Description: "File containing the new symbol definition"},
		},
		Examples: Examples{Usage: []string{`splice_patch(file="internal/util.go", symbol="Helper", with="/tmp/new_helper.go")`},
			Output: "Patched: replaced 'Helper' in internal/util.go\nChanged files: internal/util.go"},
	})
	add(Metadata{
		Name: "splice_plan", Description: "Execute a multi-step refactoring plan from a JSON file",
		Classification: Gated,
		Capabilities:   caps(Write, Execute, Filesystem),
		SideEffect:     SideEffectMutating, Resource: Intensive, Available: true, MaxTimeoutMS: 300000,
		Arguments: []Argument{{Name: "plan_file", Type: "path", Required: true, Description: "JSON file with refactoring plan"}},
		Examples:  Examples{Usage: []string{`splice_plan(plan_file="refactor_plan.json")`}, Output: "Plan executed: 5 patches applied\nChanged files: a.go, b.go, c.go"},
	})

	// --- Codebase queries (AUTO) ---
	add(Metadata{
		Name: "symbols_in_file", Description: "List all symbols (functions, types, etc.) defined in a file",
		Classification: Auto,
		Capabilities:   caps(Read, Database),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{{Name: "file_path", Type: "path", Required: true, Description: "Path to file"}},
		Examples:  Examples{Usage: []string{`symbols_in_file(file_path="internal/core/core.go")`}, Output: "symbols_in_file: 5 symbols\nExamples:\n  - Run (func)\n(Full results in Explorer)"},
	})
	add(Metadata{
		Name: "references_to_symbol", Description: "Find all references to a symbol across the indexed codebase",
		Classification: Auto,
		Capabilities:   caps(Read, Database),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{{Name: "symbol", Type: "string", Required: true, Description: "Symbol name to find references for"}},
		Examples:  Examples{Usage: []string{`references_to_symbol(symbol="ExecTool")`}, Output: "references: 12 found\nExamples:\n  - ExecTool → internal/core/core.go\n(Full results in Explorer)"},
	})
	add(Metadata{
		Name: "references_from_file_to_symbol", Description: "Find references from a specific file to a symbol",
		Classification: Auto,
		Capabilities:   caps(Read, Database),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{
			{Name: "file_path", Type: "path", Required: true, Description: "Source file path"},
			{Name: "symbol", Type: "string", Required: true, Description: "Symbol name"},
		},
		Examples: Examples{Usage: []string{`references_from_file_to_symbol(file_path="internal/core/core.go", symbol="Loop")`}, Output: "references: 3 found\nExamples:\n  - Loop → internal/core/core.go\n(Full results in Explorer)"},
	})

	// --- Compiler diagnostics (AUTO) ---
	add(Metadata{
		Name: "go_vet_check", Description: "Run `go vet` and return diagnostics",
		Classification: Auto,
		Capabilities:   caps(Execute, Analysis),
		SideEffect:     SideEffectNone, Resource: Heavy, Available: true, MaxTimeoutMS: 120000,
		Arguments: []Argument{{Name: "path", Type: "path", Required: true, Description: "Directory to run `go vet ./...` in"}},
		Examples:  Examples{Usage: []string{`go_vet_check(path="internal")`}, Output: "go_vet_check: no errors - all clean!"},
	})

	// --- Git operations (GATED) ---
	add(Metadata{
		Name: "git_status", Description: "Show git working tree status",
		Classification: Gated,
		Capabilities:   caps(Read, Execute),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{{Name: "repo_root", Type: "path", Required: false, Description: "Git repository root (default: '.')"}},
		Examples:  Examples{Usage: []string{`git_status(repo_root=".")`}, Output: "git_status: 3 files changed"},
	})
	add(Metadata{
		Name: "git_diff", Description: "Show git diff of changes",
		Classification: Gated,
		Capabilities:   caps(Read, Execute),
		SideEffect:     SideEffectNone, Resource: Medium, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{
			{Name: "repo_root", Type: "path", Required: false, Description: "Git repository root (default: '.')"},
			{Name: "path", Type: "path", Required: false, Description: "Specific file to diff"},
		},
		Examples: Examples{Usage: []string{`git_diff(repo_root=".")`}, Output: "git_diff: 2 files changed (15 additions, 5 deletions)"},
	})
	add(Metadata{
		Name: "git_log", Description: "Show commit history",
		Classification: Gated,
		Capabilities:   caps(Read, Execute),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "repo_root", Type: "path", Required: false, Description: "Git repository root (default: '.')"},
			{Name: "limit", Type: "integer", Required: false, Description: "Max commits to show"},
		},
		Examples: Examples{Usage: []string{`git_log(repo_root=".", limit=10)`}, Output: "git_log: 10 commits"},
	})
	add(Metadata{
		Name: "git_commit", Description: "Create a git commit with staged changes",
		Classification: Gated,
		Capabilities:   caps(Write, Execute),
		SideEffect:     SideEffectMutating, Resource: Light, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{
			{Name: "repo_root", Type: "path", Required: false, Description: "Git repository root (default: '.')"},
			{Name: "message", Type: "string", Required: false, Description: "Commit message"},
		},
		Examples: Examples{Usage: []string{`git_commit(repo_root=".", message="Fix tool routing bug")`}, Output: "git commit created: abc123"},
	})

	// --- Execution memory (AUTO) ---
	add(Metadata{
		Name: "memory_query", Description: "Query execution memory for tool outcomes and patterns",
		Classification: Auto,
		Capabilities:   caps(Read, Database),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "tool", Type: "string", Required: false, Description: "Filter by tool name"},
			{Name: "session_id", Type: "string", Required: false, Description: "Filter by session"},
			{Name: "success_only", Type: "boolean", Required: false, Description: "Show only successful executions"},
			{Name: "limit", Type: "integer", Required: false, Description: "Max results"},
		},
		Examples: Examples{Usage: []string{`memory_query(tool="file_search", success_only=true, limit=5)`}, Output: "memory_query: 5 actions found"},
	})
	add(Metadata{
		Name: "execution_summary", Description: "Get aggregated statistics about tool executions",
		Classification: Auto,
		Capabilities:   caps(Read, Analysis),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "tool", Type: "string", Required: false, Description: "Filter by tool name"},
			{Name: "session_id", Type: "string", Required: false, Description: "Filter by session"},
		},
		Examples: Examples{Usage: []string{`execution_summary(tool="splice_patch")`}, Output: "execution_summary: 150 total, 135 succeeded, 15 failed (90.0% success rate), avg 12ms"},
	})

	// --- OS utilities / stats (AUTO) ---
	add(Metadata{
		Name: "wc", Description: "Count lines, words and bytes in one file",
		Classification: Auto,
		Capabilities:   caps(Read, Analysis),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{{Name: "path", Type: "path", Required: true, Description: "Single file path; lists of paths are not accepted"}},
		Examples:  Examples{Usage: []string{`wc(path="src/main.go")`}, Output: "wc: src/main.go — 120 lines, 480 words, 3600 bytes"},
	})
	add(Metadata{
		Name: "count_files", Description: "Count files matching a glob pattern",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 10000,
		Arguments: []Argument{
			{Name: "pattern", Type: "pattern", Required: true, Description: "Glob pattern to match"},
			{Name: "root", Type: "path", Required: false, Description: "Root directory (default: '.')"},
		},
		Examples: Examples{Usage: []string{`count_files(pattern="**/*.go")`}, Output: "count_files: 42 files total"},
	})
	add(Metadata{
		Name: "count_lines", Description: "Count total lines in matching files",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Medium, Available: true, MaxTimeoutMS: 30000,
		Arguments: []Argument{
			{Name: "pattern", Type: "pattern", Required: true, Description: "Glob pattern to match"},
			{Name: "root", Type: "path", Required: false, Description: "Root directory (default: '.')"},
		},
		Examples: Examples{Usage: []string{`count_lines(pattern="**/*.go")`}, Output: "count_lines: 5234 total lines in 42 files"},
	})
	add(Metadata{
		Name: "fs_stats", Description: "Get filesystem statistics for a path",
		Classification: Auto,
		Capabilities:   caps(Read, Filesystem),
		SideEffect:     SideEffectNone, Resource: Light, Available: true, MaxTimeoutMS: 5000,
		Arguments: []Argument{
			{Name: "path", Type: "path", Required: true, Description: "Path to analyze"},
			{Name: "max_depth", Type: "integer", Required: false, Description: "Not applied: the whole tree under path is always walked"},
		},
		Examples: Examples{Usage: []string{`fs_stats(path="internal")`}, Output: "fs_stats: 42 files, 8 dirs, 102400 bytes under internal"},
	})

	// --- Forbidden ---
	add(Metadata{
		Name: "bash_execute", Description: "Execute a shell command (FORBIDDEN - requires an explicit override)",
		Classification: Forbidden,
		Capabilities:   caps(Execute, System),
		SideEffect:     SideEffectExternal, Resource: Intensive, Available: false,
		Arguments: []Argument{{Name: "command", Type: "string", Required: true, Description: "Shell command to execute"}},
		Examples:  Examples{Usage: []string{`bash_execute(command="ls -la")`}, Output: "Exit code: 0\nstdout: ..."},
	})
	add(Metadata{
		Name: "http_request", Description: "Make arbitrary HTTP requests (FORBIDDEN)",
		Classification: Forbidden,
		Capabilities:   caps(Network, Execute),
		SideEffect:     SideEffectExternal, Resource: Medium, Available: false,
		Arguments: []Argument{{Name: "url", Type: "string", Required: true, Description: "Target URL"}},
		Examples:  Examples{Usage: []string{`http_request(url="https://api.example.com")`}, Output: `{"status": 200, "body": "..."}`},
	})
	add(Metadata{
		Name: "web_fetch", Description: "Fetch and parse web content as markdown (FORBIDDEN)",
		Classification: Forbidden,
		Capabilities:   caps(Network, Read),
		SideEffect:     SideEffectExternal, Resource: Medium, Available: false,
		Arguments: []Argument{{Name: "url", Type: "string", Required: true, Description: "URL to fetch"}},
		Examples:  Examples{Usage: []string{`web_fetch(url="https://example.com")`}, Output: "# Page Title\n\nPage content as markdown..."},
	})

	return tools
}

func caps(cs ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(cs))
	for _, c := range cs {
		m[c] = true
	}
	return m
}

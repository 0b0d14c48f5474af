package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oldnordic/odincode/internal/router"
)

func findRepoRoot(start string) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", fmt.Errorf("git not found on PATH: %w", err)
	}

	dir := start
	for {
		if fileExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository: %s", start)
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (e *Executor) repoRoot(call Call) string {
	root := e.Root
	if r, ok := call.Args["repo_root"]; ok && r != "" {
		root = resolveUnder(e.Root, r)
	}
	return root
}

func (e *Executor) invokeGitStatus(ctx context.Context, call Call) (Invocation, error) {
	root, err := findRepoRoot(e.repoRoot(call))
	if err != nil {
		return errorInvocation(fmt.Errorf("git_status: %w", err)), nil
	}

	out, err := runGit(ctx, root, "status", "--porcelain")
	if err != nil {
		return errorInvocation(fmt.Errorf("git_status: %w", err)), nil
	}

	var data []any
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) >= 2 {
			data = append(data, map[string]any{"status": parts[0], "path": strings.TrimSpace(parts[1])})
		}
	}

	summary := fmt.Sprintf("git_status: %d files changed", len(data))
	return Invocation{Success: true, Stdout: summary, Kind: router.Textual, StructuredData: data}, nil
}

func (e *Executor) invokeGitDiff(ctx context.Context, call Call) (Invocation, error) {
	root, err := findRepoRoot(e.repoRoot(call))
	if err != nil {
		return errorInvocation(fmt.Errorf("git_diff: %w", err)), nil
	}

	if path, ok := call.Args["path"]; ok && path != "" {
		out, err := runGit(ctx, root, "diff", "--", path)
		if err != nil {
			return errorInvocation(fmt.Errorf("git_diff: %w", err)), nil
		}
		return Invocation{Success: true, Stdout: out, Kind: router.Textual}, nil
	}

	out, err := runGit(ctx, root, "diff", "--numstat")
	if err != nil {
		return errorInvocation(fmt.Errorf("git_diff: %w", err)), nil
	}

	var data []any
	additions, deletions := 0, 0
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) >= 3 {
			a, _ := strconv.Atoi(parts[0])
			d, _ := strconv.Atoi(parts[1])
			additions += a
			deletions += d
			data = append(data, map[string]any{"path": parts[2], "additions": int64(a), "deletions": int64(d)})
		}
	}

	summary := fmt.Sprintf("git_diff: %d files changed (%d additions, %d deletions)", len(data), additions, deletions)
	return Invocation{Success: true, Stdout: summary, Kind: router.Textual, StructuredData: data}, nil
}

func (e *Executor) invokeGitLog(ctx context.Context, call Call) (Invocation, error) {
	root, err := findRepoRoot(e.repoRoot(call))
	if err != nil {
		return errorInvocation(fmt.Errorf("git_log: %w", err)), nil
	}

	limit := 20
	if l, ok := call.Args["limit"]; ok {
		if n, convErr := strconv.Atoi(l); convErr == nil {
			limit = n
		}
	}

	out, err := runGit(ctx, root, "log", "--pretty=format:%H|%an|%ai|%s", fmt.Sprintf("-n%d", limit))
	if err != nil {
		if strings.Contains(err.Error(), "does not have any commits yet") {
			return Invocation{Success: true, Stdout: "git_log: 0 commits", Kind: router.Textual, StructuredData: []any{}}, nil
		}
		return errorInvocation(fmt.Errorf("git_log: %w", err)), nil
	}

	var data []any
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) >= 4 {
			fullHash := parts[0]
			shortHash := fullHash
			if len(shortHash) > 8 {
				shortHash = shortHash[:8]
			}
			data = append(data, map[string]any{
				"hash": shortHash, "full_hash": fullHash, "author": parts[1], "date": parts[2], "message": parts[3],
			})
		}
	}

	summary := fmt.Sprintf("git_log: %d commits", len(data))
	return Invocation{Success: true, Stdout: summary, Kind: router.Textual, StructuredData: data}, nil
}

func (e *Executor) invokeGitCommit(ctx context.Context, call Call) (Invocation, error) {
	root, err := findRepoRoot(e.repoRoot(call))
	if err != nil {
		return errorInvocation(fmt.Errorf("git_commit: %w", err)), nil
	}

	message := call.Args["message"]
	if message == "" {
		message = "Automated commit"
	}

	if _, err := runGit(ctx, root, "commit", "-m", message); err != nil {
		return errorInvocation(fmt.Errorf("git_commit: %w", err)), nil
	}

	hash, err := runGit(ctx, root, "rev-parse", "--short", "HEAD")
	if err != nil {
		return errorInvocation(fmt.Errorf("git_commit: %w", err)), nil
	}

	return Invocation{Success: true, Stdout: fmt.Sprintf("git commit created: %s", strings.TrimSpace(hash)), Kind: router.Textual}, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

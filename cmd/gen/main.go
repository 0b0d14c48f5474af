package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/oldnordic/odincode/internal/approval"
	"github.com/oldnordic/odincode/internal/client"
	"github.com/oldnordic/odincode/internal/config"
	"github.com/oldnordic/odincode/internal/core"
	"github.com/oldnordic/odincode/internal/executor"
	"github.com/oldnordic/odincode/internal/history"
	"github.com/oldnordic/odincode/internal/log"
	"github.com/oldnordic/odincode/internal/provider"
	"github.com/oldnordic/odincode/internal/registry"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/symbols"
	"github.com/oldnordic/odincode/internal/tool"
	"github.com/oldnordic/odincode/internal/tui"

	// Import providers for registration
	_ "github.com/oldnordic/odincode/internal/provider/anthropic"
	_ "github.com/oldnordic/odincode/internal/provider/google"
	_ "github.com/oldnordic/odincode/internal/provider/openai"
)

var (
	version = "0.1.0"
)

func init() {
	// Load .env file if it exists (silent fail if not found)
	_ = godotenv.Load()

	// Initialize logging (enabled via GEN_DEBUG=1)
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gen [message]",
	Short: "Gen - AI coding assistant for the terminal",
	Long: `Gen is an open-source AI assistant for the terminal.
Extensible tools, customizable prompts, multi-provider support.

Non-interactive mode:
  gen "your message"       Send a message directly
  echo "message" | gen     Send a message via stdin
  gen -p "prompt"          Use a custom prompt`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Check for non-interactive input
		message := getInputMessage(args)

		if message != "" {
			// Non-interactive mode
			var err error
			if agentFlag {
				err = runAgentLoop(message)
			} else {
				err = runNonInteractive(message)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		// Interactive mode (TUI)
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// promptFlag is the custom prompt flag
var promptFlag string

// agentFlag switches non-interactive mode from the raw one-shot stream
// to the tool-using agent loop (internal/core.AgentLoop).
var agentFlag bool

// safetyProfileFlag names the base safety profile for the agent loop.
// Knobs can be pinned per project in gencode.toml; the flag wins over
// the file's own profile key.
var safetyProfileFlag string

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Custom prompt to send")
	rootCmd.Flags().BoolVar(&agentFlag, "agent", false, "Run the message through the tool-using agent loop instead of a single reply")
	rootCmd.Flags().StringVar(&safetyProfileFlag, "safety-profile", "", "Safety profile for the agent loop (default, restrictive or permissive)")
}

// getInputMessage gets input from args, flags, or stdin
func getInputMessage(args []string) string {
	// Check for -p/--prompt flag
	if promptFlag != "" {
		return promptFlag
	}

	// Check for positional arguments
	if len(args) > 0 {
		return strings.Join(args, " ")
	}

	// Check if stdin has data (non-interactive pipe)
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		// Data is being piped in
		reader := bufio.NewReader(os.Stdin)
		data, err := io.ReadAll(reader)
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// runNonInteractive runs in non-interactive mode
func runNonInteractive(message string) error {
	ctx := context.Background()

	// Load store and get connected provider
	store, err := provider.NewStore()
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	var llmProvider provider.LLMProvider
	var model string

	// Try to use current model setting first
	current := store.GetCurrentModel()
	if current != nil {
		p, err := provider.GetProvider(ctx, current.Provider, current.AuthMethod)
		if err != nil {
			return fmt.Errorf("provider %s (%s) not available: %w. Run 'gen' and use /provider to connect",
				current.Provider, current.AuthMethod, err)
		}
		llmProvider = p
		model = current.ModelID
	} else {
		// Fall back to first available provider with default model
		connections := store.GetConnections()
		for providerName, conn := range connections {
			p, err := provider.GetProvider(ctx, provider.Provider(providerName), conn.AuthMethod)
			if err == nil {
				llmProvider = p
				model = getDefaultModel(providerName, conn.AuthMethod)
				break
			}
		}
	}

	if llmProvider == nil {
		return fmt.Errorf("no provider connected. Run 'gen' and use /provider to connect")
	}

	// Send message
	opts := provider.CompletionOptions{
		Model:        model,
		MaxTokens:    8192,
		SystemPrompt: "You are a helpful AI coding assistant.",
		Messages: []provider.Message{
			{Role: "user", Content: message},
		},
		Tools: tool.GetToolSchemas(),
	}

	// Stream response
	streamChan := llmProvider.Stream(ctx, opts)

	for chunk := range streamChan {
		switch chunk.Type {
		case provider.ChunkTypeText:
			fmt.Print(chunk.Text)
		case provider.ChunkTypeError:
			return chunk.Error
		case provider.ChunkTypeDone:
			fmt.Println() // Final newline
		}
	}

	return nil
}

// runAgentLoop drives message through the tool-using agent loop
// (internal/core.AgentLoop): the LLM can call file/git/symbol/memory
// tools in between replies, subject to the mode-based allow-list and the
// safety substrate, with GATED tools (git_commit, splice_plan, ...)
// paused here for a terminal y/n/always/quit decision.
func runAgentLoop(message string) error {
	ctx := context.Background()

	store, err := provider.NewStore()
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	llmProvider, model, err := resolveProvider(ctx, store)
	if err != nil {
		return err
	}

	configDir, err := genConfigDir()
	if err != nil {
		return fmt.Errorf("failed to resolve config dir: %w", err)
	}

	sym, err := symbols.Open(ctx, filepath.Join(configDir, "symbols.db"))
	if err != nil {
		return fmt.Errorf("failed to open symbol index: %w", err)
	}
	defer sym.Close()

	hist, err := history.Open(ctx, filepath.Join(configDir, "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open action history: %w", err)
	}
	defer hist.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	reg := registry.New()
	tracker := history.NewLastQueryTracker()
	exec := executor.New(reg, sym, hist, tracker, cwd)
	rt := router.NewWithRegistry(reg)

	adapter := &client.Client{Provider: llmProvider, Model: model}

	safetyCfg, err := config.LoadSafetyConfig(safetyProfileFlag)
	if err != nil {
		return err
	}

	loop := core.NewAgentLoopWithConfig(generateSessionID(), adapter, message, reg, exec, rt, hist, safetyCfg)
	loop.OnUIEvent = printUIEvent

	res, err := loop.Start(ctx, message)
	if err != nil && !res.Terminal {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	for res.Paused {
		resp, rerr := promptApproval(reader, res.Pending)
		if rerr != nil {
			return rerr
		}
		res, err = loop.Resolve(ctx, resp)
		if err != nil && !res.Terminal {
			return err
		}
	}

	if res.FinalText != "" {
		fmt.Println(res.FinalText)
	}
	return err
}

// resolveProvider picks the connected provider/model the same way
// runNonInteractive does: the current model setting, falling back to
// the first connected provider.
func resolveProvider(ctx context.Context, store *provider.Store) (provider.LLMProvider, string, error) {
	if current := store.GetCurrentModel(); current != nil {
		p, err := provider.GetProvider(ctx, current.Provider, current.AuthMethod)
		if err != nil {
			return nil, "", fmt.Errorf("provider %s (%s) not available: %w. Run 'gen' and use /provider to connect",
				current.Provider, current.AuthMethod, err)
		}
		return p, current.ModelID, nil
	}

	for providerName, conn := range store.GetConnections() {
		p, err := provider.GetProvider(ctx, provider.Provider(providerName), conn.AuthMethod)
		if err == nil {
			return p, getDefaultModel(providerName, conn.AuthMethod), nil
		}
	}

	return nil, "", fmt.Errorf("no provider connected. Run 'gen' and use /provider to connect")
}

// genConfigDir returns (creating if needed) the same ~/.gen directory
// provider.NewStore uses, so the agent loop's symbol index and action
// history live alongside the provider connection settings.
func genConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".gen")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// generateSessionID mints a monotonically sortable session identifier,
// matching internal/session's own ULID-based convention.
func generateSessionID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return "session-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// printUIEvent renders the loop's UI event stream to the terminal: chunk
// text as it streams, and a one-line narration for every other step so a
// non-interactive run is still legible.
func printUIEvent(ev core.UIEvent) {
	switch ev.Kind {
	case core.UIChunk:
		fmt.Print(ev.Text)
	case core.UILoopStepStarted:
		fmt.Printf("\n[step %d] running %s...\n", ev.Step, ev.Tool)
	case core.UIToolResult:
		status := "ok"
		if !ev.Success {
			status = "error: " + ev.ErrorMessage
		}
		fmt.Printf("[step %d] %s -> %s\n", ev.Step, ev.Tool, status)
	case core.UIError:
		fmt.Fprintf(os.Stderr, "\nstream error: %s\n", ev.ErrorMessage)
	}
}

// promptApproval asks the terminal user to decide on a GATED tool call.
func promptApproval(reader *bufio.Reader, pending *approval.Pending) (approval.Response, error) {
	fmt.Printf("\n%s\n[y]es once / [a]lways this session / [n]o / [q]uit: ", pending.FormatPrompt())
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return approval.Response{}, fmt.Errorf("failed to read approval decision: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return approval.Response{Kind: approval.ApproveOnce, Tool: pending.Tool}, nil
	case "a", "always":
		return approval.Response{Kind: approval.ApproveSessionAllGated}, nil
	case "q", "quit":
		return approval.Response{Kind: approval.Quit}, nil
	default:
		return approval.Response{Kind: approval.Deny, Tool: pending.Tool}, nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gen version %s\n", version)
	},
}

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show help information",
	Long:  "Display help information about Gen and its commands.",
	Run: func(cmd *cobra.Command, args []string) {
		printHelp()
	},
}

func printHelp() {
	help := `
Gen - AI coding assistant for the terminal

Usage:
  gen [message]              Non-interactive mode with message
  gen                        Start interactive chat mode
  gen [command]              Run a command

Non-interactive Mode:
  gen "your message"         Send a message directly
  echo "message" | gen       Send a message via stdin
  gen -p "prompt"            Use a custom prompt

Commands:
  version      Print the version number
  help         Show this help message

Interactive Mode:
  Enter        Send message
  Alt+Enter    Insert newline
  Up/Down      Navigate input history
  Esc          Stop AI response
  Ctrl+C       Clear input / Quit

Interactive Commands:
  /provider    Select and connect to a provider
  /model       Select a model
  /clear       Clear chat history
  /help        Show help

Examples:
  gen                        Start interactive chat
  gen "Explain this code"    Quick question
  cat file.go | gen "Review" Review file via pipe
  gen version                Show version

For more information, visit: https://github.com/oldnordic/odincode
`
	fmt.Println(help)
}

// getDefaultModel returns the default model for a provider and auth method
func getDefaultModel(providerName string, authMethod provider.AuthMethod) string {
	switch providerName {
	case "anthropic":
		if authMethod == provider.AuthVertex {
			return "claude-sonnet-4-5@20250929" // Vertex AI format
		}
		return "claude-sonnet-4-20250514" // API key format
	case "openai":
		return "gpt-4o"
	case "google":
		return "gemini-2.0-flash"
	default:
		return "claude-sonnet-4-20250514"
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(helpCmd)
	rootCmd.SetHelpCommand(helpCmd)
}

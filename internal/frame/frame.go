// Package frame implements the append-only conversation record the loop
// driver builds LLM message arrays from: an ordered stack of user,
// assistant and tool frames with a soft frame-count cap and a hard token
// ceiling, evicted from the front while preserving the first user frame
// as an anchor.
package frame

import (
	"fmt"
	"strings"

	"github.com/oldnordic/odincode/internal/message"
)

// Kind tags the three shapes a Frame can take.
type Kind int

const (
	User Kind = iota
	Assistant
	Tool
)

func (k Kind) String() string {
	switch k {
	case User:
		return "user"
	case Assistant:
		return "assistant"
	case Tool:
		return "tool"
	default:
		return "unknown"
	}
}

// Frame is one entry in the conversation record: user text, assistant
// text, or a completed tool invocation. Frames are append-only within a
// session and carry a monotone creation index plus an estimated token
// count.
type Frame struct {
	Kind            Kind
	Index           int
	Text            string // user/assistant content
	ToolName        string // Tool frames only
	ToolSuccess     bool   // Tool frames only
	ToolOutput      string // Tool frames only
	EstimatedTokens int
}

// charsPerToken is the heuristic used to estimate a frame's token cost:
// roughly 4 characters per token, matching common tokenizer averages for
// English prose and code.
const charsPerToken = 4

func estimateTokens(s string) int {
	n := len(s) / charsPerToken
	if n < 1 {
		return 1
	}
	return n
}

// DefaultMaxContextMessages is the default soft cap on retained frames.
const DefaultMaxContextMessages = 20

// DefaultTokenCeiling bounds total estimated tokens retained in the stack.
const DefaultTokenCeiling = 8000

// Stack is an ordered, append-only sequence of Frames with a configurable
// soft frame-count cap and a hard token ceiling. The first User frame of
// a session is never evicted: it anchors the context.
type Stack struct {
	frames             []Frame
	nextIndex          int
	maxContextMessages int
	tokenCeiling       int
}

// NewStack creates a Stack using the default cap and ceiling.
func NewStack() *Stack {
	return NewStackWithLimits(DefaultMaxContextMessages, DefaultTokenCeiling)
}

// NewStackWithLimits creates a Stack with custom limits.
func NewStackWithLimits(maxContextMessages, tokenCeiling int) *Stack {
	return &Stack{
		maxContextMessages: maxContextMessages,
		tokenCeiling:       tokenCeiling,
	}
}

func (s *Stack) push(f Frame) {
	f.Index = s.nextIndex
	s.nextIndex++
	s.frames = append(s.frames, f)
	s.evict()
}

// AddUser appends a user frame.
func (s *Stack) AddUser(text string) {
	s.push(Frame{Kind: User, Text: text, EstimatedTokens: estimateTokens(text)})
}

// AddAssistant appends an assistant frame.
func (s *Stack) AddAssistant(text string) {
	s.push(Frame{Kind: Assistant, Text: text, EstimatedTokens: estimateTokens(text)})
}

// ToolResult is the outcome of a tool invocation, rendered into a Tool frame.
type ToolResult struct {
	Tool    string
	Success bool
	Output  string
}

// AddTool appends a tool-result frame.
func (s *Stack) AddTool(result ToolResult) {
	body := toolFrameBody(result)
	s.push(Frame{
		Kind:            Tool,
		ToolName:        result.Tool,
		ToolSuccess:     result.Success,
		ToolOutput:      result.Output,
		Text:            body,
		EstimatedTokens: estimateTokens(body),
	})
}

func toolFrameBody(result ToolResult) string {
	status := "success"
	if !result.Success {
		status = "error"
	}
	return fmt.Sprintf("[SYSTEM TOOL RESULT]\nTool: %s\nStatus: %s\nOutput: %s", result.Tool, status, result.Output)
}

// AddSystem appends a system-authored frame (grounding violations, safety
// rejections, mode-switch announcements) rendered as a Tool-kind frame so
// it surfaces to the LLM as a system message without a dedicated kind.
func (s *Stack) AddSystem(text string) {
	body := "[SYSTEM]\n" + text
	s.push(Frame{Kind: Tool, ToolName: "system", ToolSuccess: true, Text: body, EstimatedTokens: estimateTokens(body)})
}

// evict drops frames from the front when the stack is over the soft cap
// or the hard token ceiling, always preserving the first User frame.
func (s *Stack) evict() {
	for s.overCap() {
		anchorIdx := s.firstUserIndex()
		dropIdx := -1
		for i := range s.frames {
			if i == anchorIdx {
				continue
			}
			dropIdx = i
			break
		}
		if dropIdx < 0 {
			return
		}
		s.frames = append(s.frames[:dropIdx], s.frames[dropIdx+1:]...)
	}
}

func (s *Stack) overCap() bool {
	if len(s.frames) > s.maxContextMessages {
		return true
	}
	return s.totalTokens() > s.tokenCeiling
}

func (s *Stack) firstUserIndex() int {
	for i, f := range s.frames {
		if f.Kind == User {
			return i
		}
	}
	return -1
}

// totalTokens sums the estimated token cost of every retained frame.
func (s *Stack) totalTokens() int {
	total := 0
	for _, f := range s.frames {
		total += f.EstimatedTokens
	}
	return total
}

// TotalTokens reports the current estimated token usage of the stack.
func (s *Stack) TotalTokens() int { return s.totalTokens() }

// Len reports the number of frames currently retained.
func (s *Stack) Len() int { return len(s.frames) }

// Frames returns the retained frames in order, oldest first.
func (s *Stack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Contains reports whether a frame of the given kind with the given text
// exists in the stack; used to verify the first-user-frame invariant.
func (s *Stack) Contains(kind Kind, text string) bool {
	for _, f := range s.frames {
		if f.Kind == kind && f.Text == text {
			return true
		}
	}
	return false
}

// ContextUsageBar renders a fixed-width textual usage bar for the UI
// header, e.g. "[=====-----] 50%".
func (s *Stack) ContextUsageBar(width int) string {
	if width <= 0 {
		width = 20
	}
	pct := 0.0
	if s.tokenCeiling > 0 {
		pct = float64(s.totalTokens()) / float64(s.tokenCeiling)
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteByte('=')
		} else {
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	fmt.Fprintf(&b, " %d%%", int(pct*100))
	return b.String()
}

// BuildMessages renders the stack into a role-tagged message list
// suitable for an LLM adapter. The system prompt itself (derived from the
// current mode and tool schema) is not part of this list: it is passed to
// the adapter alongside the messages, the same way Client.Stream takes a
// sysPrompt argument separate from the message slice. Tool and system
// frames become tool-result-role messages carrying their canonical body;
// user and assistant frames map directly.
func (s *Stack) BuildMessages() []message.Message {
	out := make([]message.Message, 0, len(s.frames))

	for _, f := range s.frames {
		switch f.Kind {
		case User:
			out = append(out, message.UserMessage(f.Text, nil))
		case Assistant:
			out = append(out, message.AssistantMessage(f.Text, "", nil))
		case Tool:
			out = append(out, message.Message{Role: message.RoleToolResult, Content: f.Text})
		}
	}

	return out
}

package core

import (
	"context"
	"sync/atomic"

	"github.com/oldnordic/odincode/internal/message"
	"github.com/oldnordic/odincode/internal/provider"
)

// ChatAdapter is the minimal surface the background LLM I/O thread
// needs from an LLM client: stream a completion for a built message
// array under a system prompt. *client.Client and *client.FakeClient both
// satisfy this.
type ChatAdapter interface {
	Stream(ctx context.Context, msgs []message.Message, tools []provider.Tool, sysPrompt string) <-chan message.StreamChunk
}

// shutdownFlag lets the main thread tell a spawned LLM thread to stop
// forwarding chunks without aborting the underlying HTTP stream. It is
// the one piece of state shared across the goroutine boundary besides
// the channel itself.
type shutdownFlag struct {
	flag atomic.Bool
}

func newShutdownFlag() *shutdownFlag { return &shutdownFlag{} }

// Signal raises the flag; chunks observed afterward are dropped.
func (f *shutdownFlag) Signal() { f.flag.Store(true) }

func (f *shutdownFlag) isSet() bool { return f.flag.Load() }

// spawnLLM starts a per-round-trip background thread that calls adapter
// and republishes its stream as Started/Chunk*/(Complete|Error) Events.
// It does no persistence, no tool execution and no DB writes — the
// thread's only job is talking to the adapter and forwarding events.
//
// Cancellation: once shutdown.Signal() is called, further chunks are
// dropped silently, but the terminal event is still sent (unless the
// receiver has stopped reading and the channel buffer is full — the
// channel is buffered deep enough that a single terminal send never
// blocks on an abandoned receiver for long within this package's own
// tests and CLI usage).
func spawnLLM(ctx context.Context, adapter ChatAdapter, sessionID, userMessage, sysPrompt string,
	messages []message.Message, shutdown *shutdownFlag) <-chan Event {
	out := make(chan Event, 64)

	go func() {
		defer close(out)

		out <- Event{Kind: EvStarted, SessionID: sessionID, UserMessage: userMessage}

		ch := adapter.Stream(ctx, messages, nil, sysPrompt)

		var full string
		for chunk := range ch {
			switch chunk.Type {
			case message.ChunkTypeText, message.ChunkTypeThinking:
				full += chunk.Text
				if !shutdown.isSet() {
					out <- Event{Kind: EvChunk, SessionID: sessionID, Text: chunk.Text}
				}
			case message.ChunkTypeDone:
				resp := full
				if chunk.Response != nil && chunk.Response.Content != "" {
					resp = chunk.Response.Content
				}
				out <- Event{Kind: EvComplete, SessionID: sessionID, FullResponse: resp}
				return
			case message.ChunkTypeError:
				out <- Event{Kind: EvError, SessionID: sessionID, Err: chunk.Error}
				return
			}
		}

		// Channel closed without an explicit Done/Error chunk (e.g. a
		// single-shot fake): treat whatever text accumulated as the
		// complete response.
		out <- Event{Kind: EvComplete, SessionID: sessionID, FullResponse: full}
	}()

	return out
}

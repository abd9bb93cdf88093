// Package chat owns the conversation: it is the only mutator of the
// transcript, drives the streaming service, and keeps the log file in
// step with edits.
package chat

import (
	"github.com/permacommons/chabeau/internal/logging"
	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/stream"
)

// Session is the connection state a controller sends with: where to
// dispatch, which model, and the system-prompt scaffold.
type Session struct {
	Target   stream.Target
	Model    string
	Scaffold stream.SystemScaffold
}

// Controller applies all transcript mutations and reconciles incoming
// stream messages with the tail message. Stream messages whose id does not
// match the current stream are dropped, so superseded streams cannot
// corrupt the tail.
type Controller struct {
	transcript *message.Transcript
	service    *stream.Service
	sink       *logging.Sink

	session Session
	current *stream.Handle
}

// NewController wires a controller over an empty transcript.
func NewController(service *stream.Service, sink *logging.Sink) *Controller {
	return &Controller{
		transcript: message.NewTranscript(),
		service:    service,
		sink:       sink,
	}
}

// Transcript exposes the transcript for rendering. Mutation stays here.
func (c *Controller) Transcript() *message.Transcript { return c.transcript }

// Sink returns the logging sink.
func (c *Controller) Sink() *logging.Sink { return c.sink }

// SetSession updates where subsequent requests go. An in-flight stream is
// cancelled; switching providers or models never auto-resends.
func (c *Controller) SetSession(s Session) {
	c.CancelCurrent()
	c.session = s
}

// Session returns the current session state.
func (c *Controller) Session() Session { return c.session }

// Streaming reports whether a stream is in flight.
func (c *Controller) Streaming() bool { return c.transcript.Streaming() }

// CurrentStreamID returns the id of the in-flight stream, or "".
func (c *Controller) CurrentStreamID() string {
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// ─── Sending ────────────────────────────────────────────────────────────────────

// SendUser appends the user message, starts the assistant placeholder and
// dispatches a stream over the full conversation context.
func (c *Controller) SendUser(text string) *stream.Handle {
	c.CancelCurrent()
	c.transcript.AppendUser(text)
	c.logAppend(message.Message{Role: message.RoleUser, Content: text})
	return c.dispatch()
}

// RetryLast drops the tail assistant reply (and any trailing app notices
// from a failed attempt) and re-dispatches from the prior state. Returns
// nil when there is no user message to retry from.
func (c *Controller) RetryLast() *stream.Handle {
	c.CancelCurrent()
	for c.transcript.Len() > 0 && c.transcript.At(c.transcript.Len()-1).Role.IsApp() {
		c.transcript.TruncateAfter(c.transcript.Len() - 2)
	}
	if n := c.transcript.Len(); n > 0 && c.transcript.At(n-1).Role == message.RoleAssistant {
		c.transcript.TruncateAfter(n - 2)
	}
	n := c.transcript.Len()
	if n == 0 || c.transcript.At(n-1).Role != message.RoleUser {
		return nil
	}
	c.rewriteLog()
	return c.dispatch()
}

// SeedGreeting inserts a character greeting as the opening assistant
// message of an empty conversation.
func (c *Controller) SeedGreeting(text string) {
	if c.transcript.Len() > 0 || text == "" {
		return
	}
	c.transcript.Append(message.Message{Role: message.RoleAssistant, Content: text})
	c.logAppend(message.Message{Role: message.RoleAssistant, Content: text})
}

func (c *Controller) dispatch() *stream.Handle {
	c.transcript.StartAssistantPlaceholder()
	msgs := stream.ComposeMessages(c.transcript.Messages(), c.session.Scaffold)
	c.current = c.service.Dispatch(c.session.Target, stream.ChatRequest{
		Model:    c.session.Model,
		Messages: msgs,
	})
	return c.current
}

// CancelCurrent cancels the in-flight stream, if any.
func (c *Controller) CancelCurrent() {
	if c.current != nil {
		c.current.Cancel()
	}
}

// ─── Stream reconciliation ──────────────────────────────────────────────────────

// ApplyResult describes what the UI should do after applying a stream
// message.
type ApplyResult struct {
	Changed bool   // transcript mutated; the tail needs a re-layout
	Done    bool   // the stream finished
	Status  string // transient status line text, if any
}

// Apply reconciles one stream message with the transcript. Messages from
// streams other than the current one are dropped.
func (c *Controller) Apply(msg stream.Msg) ApplyResult {
	if c.current == nil || msg.StreamID() != c.current.ID {
		return ApplyResult{}
	}

	switch m := msg.(type) {
	case stream.StartedMsg:
		return ApplyResult{}

	case stream.ChunkMsg:
		c.transcript.PushStreamChunk(m.Text)
		return ApplyResult{Changed: true}

	case stream.AppMsg:
		// Provider errors replace an empty placeholder entirely; partial
		// text is never kept alongside an error.
		if m.Role == message.RoleAppError {
			c.transcript.FinalizeTail(true)
			c.transcript.RemoveEmptyTail()
		}
		c.transcript.Append(message.Message{Role: m.Role, Content: m.Content})
		c.logAppend(message.Message{Role: m.Role, Content: m.Content})
		return ApplyResult{Changed: true}

	case stream.EndMsg:
		c.current = nil
		switch m.Reason {
		case stream.EndComplete:
			if idx := c.finalize(false); idx >= 0 {
				c.logAppend(c.transcript.At(idx))
			}
			return ApplyResult{Changed: true, Done: true}
		case stream.EndCancelled:
			if idx := c.finalize(true); idx >= 0 {
				c.logAppend(c.transcript.At(idx))
			}
			return ApplyResult{Changed: true, Done: true, Status: "Stream cancelled"}
		default:
			c.finalize(true)
			return ApplyResult{Changed: true, Done: true}
		}
	}
	return ApplyResult{}
}

// finalize completes the tail and returns the index of the surviving
// assistant message, or -1 when it was removed, absent or empty.
func (c *Controller) finalize(interrupted bool) int {
	before := c.transcript.Len()
	if !c.transcript.FinalizeTail(interrupted) {
		return -1
	}
	if c.transcript.Len() < before {
		return -1
	}
	idx := c.transcript.Len() - 1
	if c.transcript.At(idx).Content == "" {
		return -1
	}
	return idx
}

// ─── Edits and truncation ───────────────────────────────────────────────────────

// TruncateAfter drops everything after index i and rewrites the log.
func (c *Controller) TruncateAfter(i int) {
	c.CancelCurrent()
	c.transcript.TruncateAfter(i)
	c.rewriteLog()
}

// TakeUserForResend truncates the conversation to just before the user
// message at idx and returns its content for the input buffer.
func (c *Controller) TakeUserForResend(idx int) (string, bool) {
	if idx < 0 || idx >= c.transcript.Len() || c.transcript.At(idx).Role != message.RoleUser {
		return "", false
	}
	content := c.transcript.At(idx).Content
	c.TruncateAfter(idx - 1)
	return content, true
}

// EditUserInPlace replaces a user message's content and rewrites the log.
func (c *Controller) EditUserInPlace(idx int, content string) bool {
	if !c.transcript.ReplaceUserAt(idx, content) {
		return false
	}
	c.rewriteLog()
	return true
}

// EditAssistantInPlace replaces an assistant message's content and
// rewrites the log.
func (c *Controller) EditAssistantInPlace(idx int, content string) bool {
	if !c.transcript.EditAssistantAt(idx, content) {
		return false
	}
	c.rewriteLog()
	return true
}

// Clear resets the conversation and rewrites the log to empty.
func (c *Controller) Clear() {
	c.CancelCurrent()
	c.transcript.Clear()
	c.rewriteLog()
}

// ─── Logging ────────────────────────────────────────────────────────────────────

func (c *Controller) logAppend(m message.Message) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Append(m); err != nil {
		c.logFailed(err)
	}
}

func (c *Controller) rewriteLog() {
	if c.sink == nil {
		return
	}
	if err := c.sink.Rewrite(c.transcript.Messages()); err != nil {
		c.logFailed(err)
	}
}

// logFailed deactivates the sink so a broken log never pretends to
// capture, and tells the user in the transcript.
func (c *Controller) logFailed(err error) {
	c.sink.Deactivate()
	c.transcript.Append(message.Message{
		Role:    message.RoleAppWarning,
		Content: "Log write failed: " + err.Error() + " — logging disabled",
	})
}

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/permacommons/chabeau/internal/message"
)

// ─── Stream messages ────────────────────────────────────────────────────────────

// Msg is a message from a streaming task to the UI loop. All messages
// carry the stream id so superseded streams can be dropped by the receiver.
type Msg interface{ StreamID() string }

// StartedMsg announces that a stream task has begun.
type StartedMsg struct{ ID string }

// ChunkMsg carries an incremental piece of assistant text.
type ChunkMsg struct {
	ID   string
	Text string
}

// AppMsg carries an app-facing notice produced by the stream task
// (provider errors, malformed-data warnings).
type AppMsg struct {
	ID      string
	Role    message.Role
	Content string
}

// EndReason says how a stream finished.
type EndReason int

const (
	EndComplete EndReason = iota
	EndCancelled
	EndError
)

// EndMsg is the final message of every stream. Detail is set for EndError.
type EndMsg struct {
	ID     string
	Reason EndReason
	Detail string
}

func (m StartedMsg) StreamID() string { return m.ID }
func (m ChunkMsg) StreamID() string   { return m.ID }
func (m AppMsg) StreamID() string     { return m.ID }
func (m EndMsg) StreamID() string     { return m.ID }

// ─── Handle ─────────────────────────────────────────────────────────────────────

// Handle identifies an in-flight stream and carries its cancellation flag.
// Cancellation is monotonic: after Cancel returns, no further ChunkMsg for
// this stream will be emitted, and an EndMsg{EndCancelled} eventually is.
type Handle struct {
	ID string

	cancel    context.CancelFunc
	cancelled atomic.Bool
	timedOut  atomic.Bool
}

// Cancel requests cooperative cancellation.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.cancelled.Store(true)
	h.cancel()
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool { return h != nil && h.cancelled.Load() }

// ─── Target & request ───────────────────────────────────────────────────────────

// Target describes where and how to send a chat completion request.
type Target struct {
	BaseURL string
	APIKey  string
	Headers map[string]string // provider-specific extras
}

// ChatRequest is a fully composed request: model plus wire-ready messages.
type ChatRequest struct {
	Model    string
	Messages []openai.ChatCompletionMessage
}

// ─── Service ────────────────────────────────────────────────────────────────────

const (
	connectTimeout = 10 * time.Second
	headerTimeout  = 30 * time.Second
	idleTimeout    = 90 * time.Second
)

// Service dispatches chat completion requests and frames their SSE
// responses into Msg values on a single channel. The UI loop owns the
// receiving end; tasks never touch UI state.
type Service struct {
	client *http.Client
	ch     chan Msg
	idle   time.Duration
}

// NewService creates a streaming service with production timeouts.
func NewService() *Service {
	return &Service{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: headerTimeout,
				DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		ch:   make(chan Msg, 256),
		idle: idleTimeout,
	}
}

// Messages returns the channel stream tasks deliver on.
func (s *Service) Messages() <-chan Msg { return s.ch }

// Dispatch starts a streaming chat completion in a background task and
// returns its handle immediately.
func (s *Service) Dispatch(target Target, req ChatRequest) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{ID: uuid.NewString(), cancel: cancel}
	go s.run(ctx, h, target, req)
	return h
}

func (s *Service) send(m Msg) { s.ch <- m }

func (s *Service) run(ctx context.Context, h *Handle, target Target, req ChatRequest) {
	s.send(StartedMsg{ID: h.ID})

	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
	})
	if err != nil {
		s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: err.Error()})
		return
	}

	url := joinURL(target.BaseURL, "chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: err.Error()})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if target.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+target.APIKey)
	}
	for k, v := range target.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.finishTransportError(h, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		s.send(AppMsg{ID: h.ID, Role: message.RoleAppError, Content: summarizeHTTPError(resp.StatusCode, raw)})
		s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)})
		return
	}

	s.readLoop(ctx, h, resp.Body)
}

// readLoop frames the response body and forwards chunks until the stream
// ends, errors, times out or is cancelled.
func (s *Service) readLoop(ctx context.Context, h *Handle, body io.Reader) {
	scanner := &frameScanner{}
	buf := make([]byte, 8*1024)
	warned := false

	// Idle watchdog: a stream that stops producing bytes is torn down.
	watchdog := time.AfterFunc(s.idle, func() {
		h.timedOut.Store(true)
		h.cancel()
	})
	defer watchdog.Stop()

	emit := func(payload string) (done bool) {
		if payload == "[DONE]" {
			s.send(EndMsg{ID: h.ID, Reason: EndComplete})
			return true
		}
		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			if !warned {
				warned = true
				s.send(AppMsg{ID: h.ID, Role: message.RoleAppWarning, Content: "Skipped malformed stream data"})
			}
			return false
		}
		if len(chunk.Choices) == 0 {
			return false
		}
		if text := chunk.Choices[0].Delta.Content; text != "" && !h.Cancelled() {
			s.send(ChunkMsg{ID: h.ID, Text: text})
		}
		return false
	}

	for {
		if h.Cancelled() && !h.timedOut.Load() {
			s.send(EndMsg{ID: h.ID, Reason: EndCancelled})
			return
		}
		n, err := body.Read(buf)
		if n > 0 {
			watchdog.Reset(s.idle)
			for _, payload := range scanner.Feed(buf[:n]) {
				if h.Cancelled() && !h.timedOut.Load() {
					s.send(EndMsg{ID: h.ID, Reason: EndCancelled})
					return
				}
				if emit(payload) {
					return
				}
			}
		}
		if err != nil {
			switch {
			case h.timedOut.Load():
				s.send(AppMsg{ID: h.ID, Role: message.RoleAppWarning, Content: "Network timeout: no data received"})
				s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: "idle timeout"})
			case h.Cancelled() || ctx.Err() != nil:
				s.send(EndMsg{ID: h.ID, Reason: EndCancelled})
			case errors.Is(err, io.EOF):
				if payload, ok := scanner.Flush(); ok {
					emit(payload)
				}
				s.send(EndMsg{ID: h.ID, Reason: EndComplete})
			default:
				s.send(AppMsg{ID: h.ID, Role: message.RoleAppWarning, Content: "Stream interrupted: " + err.Error()})
				s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: err.Error()})
			}
			return
		}
	}
}

func (s *Service) finishTransportError(h *Handle, err error) {
	switch {
	case h.Cancelled():
		s.send(EndMsg{ID: h.ID, Reason: EndCancelled})
	case isTimeout(err):
		s.send(AppMsg{ID: h.ID, Role: message.RoleAppWarning, Content: "Network timeout: " + err.Error()})
		s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: "connect timeout"})
	default:
		s.send(AppMsg{ID: h.ID, Role: message.RoleAppError, Content: "**Request failed**\n\n" + err.Error()})
		s.send(EndMsg{ID: h.ID, Reason: EndError, Detail: err.Error()})
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// summarizeHTTPError turns a non-2xx response into a Markdown-formatted
// app error. The body is parsed best-effort as the common
// {"error": {"message", "code"}} shape.
func summarizeHTTPError(status int, body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Code    any    `json:"code"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**API error** (HTTP %d)\n", status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		if parsed.Error.Code != nil {
			fmt.Fprintf(&b, "\n- code: `%v`", parsed.Error.Code)
		} else if parsed.Error.Type != "" {
			fmt.Fprintf(&b, "\n- code: `%s`", parsed.Error.Type)
		}
		fmt.Fprintf(&b, "\n- message: %s", parsed.Error.Message)
		return b.String()
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		trimmed = "(no body)"
	}
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "…"
	}
	fmt.Fprintf(&b, "\n```\n%s\n```", trimmed)
	return b.String()
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

package chat

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/permacommons/chabeau/internal/logging"
	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/stream"
)

func delta(text string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", text)
}

func sseHandler(parts ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, p := range parts {
			fmt.Fprint(w, p)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

// pump applies stream messages until the controller reports done.
func pump(t *testing.T, c *Controller, s *stream.Service) []ApplyResult {
	t.Helper()
	var results []ApplyResult
	timeout := time.After(5 * time.Second)
	for {
		select {
		case m := <-s.Messages():
			res := c.Apply(m)
			results = append(results, res)
			if res.Done {
				return results
			}
		case <-timeout:
			t.Fatal("stream never finished")
		}
	}
}

func newTestController(t *testing.T, handler http.Handler) (*Controller, *stream.Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := stream.NewService()
	c := NewController(s, logging.NewSink())
	c.SetSession(Session{
		Target: stream.Target{BaseURL: srv.URL, APIKey: "sk-test"},
		Model:  "test-model",
	})
	return c, s, srv
}

// ---------------------------------------------------------------------------
// Scenario A: basic send / stream / finalize
// ---------------------------------------------------------------------------

func TestSendStreamFinalize(t *testing.T) {
	c, s, _ := newTestController(t, sseHandler(delta("Hi"), delta(" there")))

	c.SendUser("hello")
	pump(t, c, s)

	tr := c.Transcript()
	if tr.Len() != 2 {
		t.Fatalf("want 2 messages, got %d: %+v", tr.Len(), tr.Messages())
	}
	if tr.At(0).Role != message.RoleUser || tr.At(0).Content != "hello" {
		t.Errorf("user message: %+v", tr.At(0))
	}
	if tr.At(1).Role != message.RoleAssistant || tr.At(1).Content != "Hi there" {
		t.Errorf("assistant message: %+v", tr.At(1))
	}
	if tr.At(1).InProgress {
		t.Error("tail still in progress after End")
	}
}

func TestSendLogsBothMessages(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	c, s, _ := newTestController(t, sseHandler(delta("Hi"), delta(" there")))
	if _, err := c.Sink().SetTarget(logPath); err != nil {
		t.Fatal(err)
	}

	c.SendUser("hello")
	pump(t, c, s)

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "You: hello\n\nHi there\n\n") {
		t.Errorf("log content: %q", data)
	}
}

// ---------------------------------------------------------------------------
// Scenario B: interrupt mid-stream
// ---------------------------------------------------------------------------

func TestCancelMidStreamKeepsPartialReply(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		fmt.Fprint(w, delta("Hi"))
		fl.Flush()
		<-release
	})
	c, s, _ := newTestController(t, handler)
	defer close(release)

	c.SendUser("hello")

	var status string
	timeout := time.After(5 * time.Second)
	for {
		var res ApplyResult
		select {
		case m := <-s.Messages():
			if _, isChunk := m.(stream.ChunkMsg); isChunk {
				res = c.Apply(m)
				c.CancelCurrent()
			} else {
				res = c.Apply(m)
			}
		case <-timeout:
			t.Fatal("never ended")
		}
		if res.Done {
			status = res.Status
			break
		}
	}

	tr := c.Transcript()
	if tr.Len() != 2 || tr.At(1).Content != "Hi" {
		t.Errorf("partial reply lost: %+v", tr.Messages())
	}
	if tr.At(1).InProgress {
		t.Error("tail not finalized after cancel")
	}
	if status != "Stream cancelled" {
		t.Errorf("status: %q", status)
	}
}

func TestCancelBeforeAnyChunkRemovesPlaceholder(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-release
	})
	c, s, _ := newTestController(t, handler)
	defer close(release)

	c.SendUser("hello")
	c.CancelCurrent()
	pump(t, c, s)

	tr := c.Transcript()
	if tr.Len() != 1 {
		t.Errorf("empty placeholder should be removed: %+v", tr.Messages())
	}
}

// ---------------------------------------------------------------------------
// Scenario C: provider error, then retry
// ---------------------------------------------------------------------------

func TestProviderErrorAppendsAppErrorAndRetryWorks(t *testing.T) {
	fail := true
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			fail = false
			w.WriteHeader(429)
			fmt.Fprint(w, `{"error":{"message":"rate limit","code":"rate_limited"}}`)
			return
		}
		sseHandler(delta("recovered"))(w, r)
	})
	c, s, _ := newTestController(t, handler)

	c.SendUser("hello")
	pump(t, c, s)

	tr := c.Transcript()
	// [User, AppError] — the empty placeholder was removed.
	if tr.Len() != 2 {
		t.Fatalf("want [user, app_error], got %+v", tr.Messages())
	}
	if tr.At(1).Role != message.RoleAppError {
		t.Errorf("tail should be AppError: %+v", tr.At(1))
	}
	for _, want := range []string{"429", "rate limit"} {
		if !strings.Contains(tr.At(1).Content, want) {
			t.Errorf("error summary missing %q: %q", want, tr.At(1).Content)
		}
	}

	// Ctrl+R re-sends the same user message: the trailing AppError is
	// dropped and a new stream begins.
	if h := c.RetryLast(); h == nil {
		t.Fatal("RetryLast should work after a provider error")
	}
	pump(t, c, s)
	tr = c.Transcript()
	if tr.Len() != 2 || tr.At(1).Content != "recovered" {
		t.Errorf("after retry: %+v", tr.Messages())
	}
}

func TestRetryDropsTailAndRedispatches(t *testing.T) {
	replies := []string{"first", "second"}
	i := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := replies[i]
		i++
		sseHandler(delta(reply))(w, r)
	})
	c, s, _ := newTestController(t, handler)

	c.SendUser("hello")
	pump(t, c, s)
	if got := c.Transcript().At(1).Content; got != "first" {
		t.Fatalf("first reply: %q", got)
	}

	if h := c.RetryLast(); h == nil {
		t.Fatal("retry refused")
	}
	pump(t, c, s)

	tr := c.Transcript()
	if tr.Len() != 2 || tr.At(1).Content != "second" {
		t.Errorf("after retry: %+v", tr.Messages())
	}
}

// ---------------------------------------------------------------------------
// Scenario D: edit-select user truncation
// ---------------------------------------------------------------------------

func TestTakeUserForResendTruncatesAndRewritesLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	c := NewController(stream.NewService(), logging.NewSink())
	if _, err := c.Sink().SetTarget(logPath); err != nil {
		t.Fatal(err)
	}

	tr := c.Transcript()
	tr.AppendUser("u1")
	tr.Append(message.Message{Role: message.RoleAssistant, Content: "a1"})
	tr.AppendUser("u2")
	tr.Append(message.Message{Role: message.RoleAssistant, Content: "a2"})

	content, ok := c.TakeUserForResend(2)
	if !ok || content != "u2" {
		t.Fatalf("TakeUserForResend: %q %v", content, ok)
	}
	if tr.Len() != 2 {
		t.Errorf("truncation: %+v", tr.Messages())
	}

	data, _ := os.ReadFile(logPath)
	text := string(data)
	if strings.Contains(text, "u2") || strings.Contains(text, "a2") {
		t.Errorf("log not rewritten: %q", text)
	}
	if !strings.Contains(text, "You: u1") || !strings.Contains(text, "a1") {
		t.Errorf("log lost kept messages: %q", text)
	}
}

func TestEditAssistantInPlaceRewritesLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chat.log")
	c := NewController(stream.NewService(), logging.NewSink())
	if _, err := c.Sink().SetTarget(logPath); err != nil {
		t.Fatal(err)
	}
	c.Transcript().AppendUser("q")
	c.Transcript().Append(message.Message{Role: message.RoleAssistant, Content: "wrong"})

	if !c.EditAssistantInPlace(1, "right") {
		t.Fatal("edit refused")
	}
	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "wrong") || !strings.Contains(string(data), "right") {
		t.Errorf("log after edit: %q", data)
	}
}

// ---------------------------------------------------------------------------
// Superseded streams
// ---------------------------------------------------------------------------

func TestStaleStreamMessagesAreDropped(t *testing.T) {
	c := NewController(stream.NewService(), logging.NewSink())
	c.Transcript().StartAssistantPlaceholder()

	res := c.Apply(stream.ChunkMsg{ID: "stale", Text: "zombie"})
	if res.Changed {
		t.Error("message from unknown stream mutated the transcript")
	}
	if c.Transcript().At(0).Content != "" {
		t.Errorf("tail content: %q", c.Transcript().At(0).Content)
	}
}

func TestSeedGreetingOnlyOnEmptyTranscript(t *testing.T) {
	c := NewController(stream.NewService(), logging.NewSink())
	c.SeedGreeting("Hello, traveler.")
	if c.Transcript().Len() != 1 || c.Transcript().At(0).Role != message.RoleAssistant {
		t.Fatalf("greeting: %+v", c.Transcript().Messages())
	}
	c.SeedGreeting("again")
	if c.Transcript().Len() != 1 {
		t.Error("greeting must not repeat on a non-empty transcript")
	}
}

package message

import "strings"

// Transcript is the ordered conversation history. All mutation goes through
// its methods so the revision counter stays in sync; caches key off the
// revision to detect staleness.
//
// Invariants:
//   - at most one message has InProgress set, and when present it is the
//     last message and an assistant message
//   - truncation only ever drops a contiguous suffix
type Transcript struct {
	msgs     []Message
	revision uint64
}

// NewTranscript returns an empty transcript at revision 0.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Revision returns a counter that increases on every mutation.
func (t *Transcript) Revision() uint64 { return t.revision }

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.msgs) }

// At returns the message at index i.
func (t *Transcript) At(i int) Message { return t.msgs[i] }

// Messages returns the backing slice. Callers must treat it as read-only;
// it is reused across mutations.
func (t *Transcript) Messages() []Message { return t.msgs }

func (t *Transcript) bump() { t.revision++ }

// Append adds msg to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.msgs = append(t.msgs, msg)
	t.bump()
}

// AppendUser appends a finalized user message.
func (t *Transcript) AppendUser(content string) {
	t.Append(Message{Role: RoleUser, Content: content})
}

// StartAssistantPlaceholder appends an empty in-progress assistant message.
// Any prior in-progress tail is finalized first so the single-in-progress
// invariant holds.
func (t *Transcript) StartAssistantPlaceholder() {
	t.FinalizeTail(false)
	t.msgs = append(t.msgs, Message{Role: RoleAssistant, InProgress: true})
	t.bump()
}

// PushStreamChunk appends text to the in-progress tail assistant message.
// It is strictly additive: chunks never replace earlier content, which keeps
// retries from flickering. A chunk arriving with no in-progress tail is
// dropped (the stream was cancelled or superseded).
func (t *Transcript) PushStreamChunk(text string) {
	if text == "" {
		return
	}
	i := len(t.msgs) - 1
	if i < 0 || !t.msgs[i].InProgress {
		return
	}
	t.msgs[i].Content += text
	t.bump()
}

// FinalizeTail completes the in-progress tail, if any. Trailing whitespace
// is trimmed. If interrupted is true and the trimmed reply is empty, the
// placeholder is removed entirely. Reports whether anything changed.
func (t *Transcript) FinalizeTail(interrupted bool) bool {
	i := len(t.msgs) - 1
	if i < 0 || !t.msgs[i].InProgress {
		return false
	}
	t.msgs[i].InProgress = false
	t.msgs[i].Content = strings.TrimRight(t.msgs[i].Content, " \t\r\n")
	if t.msgs[i].Content == "" && interrupted {
		t.msgs = t.msgs[:i]
	}
	t.bump()
	return true
}

// RemoveEmptyTail drops the tail assistant message if it is empty,
// in progress or not. Used when a stream errors before any content arrives.
func (t *Transcript) RemoveEmptyTail() bool {
	i := len(t.msgs) - 1
	if i < 0 || t.msgs[i].Role != RoleAssistant || t.msgs[i].Content != "" {
		return false
	}
	t.msgs = t.msgs[:i]
	t.bump()
	return true
}

// TruncateAfter drops every message after index i. TruncateAfter(-1)
// clears the transcript.
func (t *Transcript) TruncateAfter(i int) {
	if i < -1 || i >= len(t.msgs)-1 {
		return
	}
	t.msgs = t.msgs[:i+1]
	t.bump()
}

// Clear removes all messages.
func (t *Transcript) Clear() {
	if len(t.msgs) == 0 {
		return
	}
	t.msgs = t.msgs[:0]
	t.bump()
}

// ReplaceUserAt overwrites the content of the user message at index i.
func (t *Transcript) ReplaceUserAt(i int, content string) bool {
	if i < 0 || i >= len(t.msgs) || t.msgs[i].Role != RoleUser {
		return false
	}
	t.msgs[i].Content = content
	t.bump()
	return true
}

// EditAssistantAt overwrites the content of the assistant message at index i.
// The in-progress tail cannot be edited.
func (t *Transcript) EditAssistantAt(i int, content string) bool {
	if i < 0 || i >= len(t.msgs) || t.msgs[i].Role != RoleAssistant || t.msgs[i].InProgress {
		return false
	}
	t.msgs[i].Content = content
	t.bump()
	return true
}

// LastIndexOfRole returns the index of the most recent message with the
// given role, or -1.
func (t *Transcript) LastIndexOfRole(role Role) int {
	for i := len(t.msgs) - 1; i >= 0; i-- {
		if t.msgs[i].Role == role {
			return i
		}
	}
	return -1
}

// IndicesOfRole returns the indices of all messages with the given role,
// in transcript order.
func (t *Transcript) IndicesOfRole(role Role) []int {
	var out []int
	for i, m := range t.msgs {
		if m.Role == role {
			out = append(out, i)
		}
	}
	return out
}

// Streaming reports whether the tail message is an in-progress assistant
// placeholder.
func (t *Transcript) Streaming() bool {
	i := len(t.msgs) - 1
	return i >= 0 && t.msgs[i].InProgress
}

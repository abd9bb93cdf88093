package message

import "testing"

// ---------------------------------------------------------------------------
// Streaming lifecycle
// ---------------------------------------------------------------------------

func TestStreamChunksAreAdditive(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("hello")
	tr.StartAssistantPlaceholder()

	tr.PushStreamChunk("Hi")
	tr.PushStreamChunk(" there")

	if got := tr.At(1).Content; got != "Hi there" {
		t.Errorf("tail content: want %q, got %q", "Hi there", got)
	}
	if !tr.At(1).InProgress {
		t.Error("tail should still be in progress")
	}

	tr.FinalizeTail(false)
	if tr.At(1).InProgress {
		t.Error("tail should be finalized")
	}
	if tr.Len() != 2 {
		t.Errorf("want 2 messages, got %d", tr.Len())
	}
}

func TestAtMostOneInProgress(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("a")
	tr.StartAssistantPlaceholder()
	tr.PushStreamChunk("x")
	// Starting a new placeholder without an explicit finalize must not
	// leave two in-progress messages behind.
	tr.StartAssistantPlaceholder()

	count := 0
	for i := 0; i < tr.Len(); i++ {
		if tr.At(i).InProgress {
			count++
			if i != tr.Len()-1 {
				t.Error("in-progress message is not the tail")
			}
		}
	}
	if count != 1 {
		t.Errorf("want exactly one in-progress message, got %d", count)
	}
}

func TestFinalizeTrimsTrailingWhitespace(t *testing.T) {
	tr := NewTranscript()
	tr.StartAssistantPlaceholder()
	tr.PushStreamChunk("done.\n\n  ")
	tr.FinalizeTail(false)
	if got := tr.At(0).Content; got != "done." {
		t.Errorf("want %q, got %q", "done.", got)
	}
}

func TestInterruptedEmptyTailIsRemoved(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("hello")
	tr.StartAssistantPlaceholder()
	tr.FinalizeTail(true)
	if tr.Len() != 1 {
		t.Errorf("empty interrupted tail should be removed, have %d messages", tr.Len())
	}
}

func TestInterruptedTailWithContentIsKept(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("hello")
	tr.StartAssistantPlaceholder()
	tr.PushStreamChunk("Hi")
	tr.FinalizeTail(true)
	if tr.Len() != 2 || tr.At(1).Content != "Hi" {
		t.Errorf("partial reply should survive an interrupt, got %+v", tr.Messages())
	}
}

func TestChunkAfterFinalizeIsDropped(t *testing.T) {
	tr := NewTranscript()
	tr.StartAssistantPlaceholder()
	tr.PushStreamChunk("Hi")
	tr.FinalizeTail(false)
	rev := tr.Revision()

	tr.PushStreamChunk(" stale")
	if tr.At(0).Content != "Hi" {
		t.Errorf("chunk applied after finalize: %q", tr.At(0).Content)
	}
	if tr.Revision() != rev {
		t.Error("dropped chunk must not bump the revision")
	}
}

// ---------------------------------------------------------------------------
// Edits and truncation
// ---------------------------------------------------------------------------

func TestTruncateAfter(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("u1")
	tr.Append(Message{Role: RoleAssistant, Content: "a1"})
	tr.AppendUser("u2")
	tr.Append(Message{Role: RoleAssistant, Content: "a2"})

	tr.TruncateAfter(1)
	if tr.Len() != 2 {
		t.Fatalf("want 2 messages after truncate, got %d", tr.Len())
	}
	if tr.At(0).Content != "u1" || tr.At(1).Content != "a1" {
		t.Errorf("truncation dropped the wrong suffix: %+v", tr.Messages())
	}

	tr.TruncateAfter(-1)
	if tr.Len() != 0 {
		t.Errorf("TruncateAfter(-1) should clear, have %d", tr.Len())
	}
}

func TestReplaceUserAt(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("original")
	tr.Append(Message{Role: RoleAssistant, Content: "reply"})

	if !tr.ReplaceUserAt(0, "edited") {
		t.Fatal("ReplaceUserAt failed on a user message")
	}
	if tr.ReplaceUserAt(1, "nope") {
		t.Error("ReplaceUserAt must reject non-user messages")
	}
	if tr.At(0).Content != "edited" {
		t.Errorf("content not replaced: %q", tr.At(0).Content)
	}
}

func TestEditAssistantAtRejectsInProgress(t *testing.T) {
	tr := NewTranscript()
	tr.StartAssistantPlaceholder()
	if tr.EditAssistantAt(0, "x") {
		t.Error("in-progress tail must not be editable")
	}
	tr.FinalizeTail(false)
	tr.PushStreamChunk("ignored")
	if !tr.EditAssistantAt(0, "fixed") {
		t.Error("finalized assistant message should be editable")
	}
	if tr.At(0).Content != "fixed" {
		t.Errorf("edit not applied: %q", tr.At(0).Content)
	}
}

func TestRevisionBumpsOnEveryMutation(t *testing.T) {
	tr := NewTranscript()
	prev := tr.Revision()
	steps := []func(){
		func() { tr.AppendUser("u") },
		func() { tr.StartAssistantPlaceholder() },
		func() { tr.PushStreamChunk("c") },
		func() { tr.FinalizeTail(false) },
		func() { tr.ReplaceUserAt(0, "u2") },
		func() { tr.TruncateAfter(0) },
	}
	for i, step := range steps {
		step()
		if tr.Revision() <= prev {
			t.Errorf("step %d did not bump revision", i)
		}
		prev = tr.Revision()
	}
}

func TestIndicesOfRole(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("u1")
	tr.Append(Message{Role: RoleAssistant, Content: "a1"})
	tr.Append(Message{Role: RoleAppInfo, Content: "note"})
	tr.AppendUser("u2")

	got := tr.IndicesOfRole(RoleUser)
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("IndicesOfRole(user): %v", got)
	}
	if idx := tr.LastIndexOfRole(RoleAssistant); idx != 1 {
		t.Errorf("LastIndexOfRole(assistant): %d", idx)
	}
	if idx := tr.LastIndexOfRole(RoleSystem); idx != -1 {
		t.Errorf("LastIndexOfRole(system) on empty set: %d", idx)
	}
}

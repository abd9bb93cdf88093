package render

import (
	"strings"
	"testing"

	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/theme"
)

func testRenderer() *Renderer {
	return NewRenderer(theme.Default())
}

func mdFlags() Flags {
	return Flags{Markdown: true}
}

func assistant(content string) message.Message {
	return message.Message{Role: message.RoleAssistant, Content: content}
}

func linesText(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

// ---------------------------------------------------------------------------
// basic structure
// ---------------------------------------------------------------------------

func TestRenderParagraphs(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("first\n\nsecond"), mdFlags())
	got := linesText(rm.Lines)
	want := []string{"first", "", "second"}
	if len(got) != len(want) {
		t.Fatalf("lines: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestUserPrefixSpan(t *testing.T) {
	rm := testRenderer().RenderMessage(
		message.Message{Role: message.RoleUser, Content: "hello"},
		Flags{Markdown: true, UserLabel: "Sam"},
	)
	if len(rm.Lines) == 0 || len(rm.Lines[0].Spans) == 0 {
		t.Fatal("no spans rendered")
	}
	first := rm.Lines[0].Spans[0]
	if first.Kind.Type != SpanUserPrefix {
		t.Errorf("first span kind: want UserPrefix, got %v", first.Kind.Type)
	}
	if first.Text != "Sam: " {
		t.Errorf("prefix text: %q", first.Text)
	}
}

func TestAppPrefixSpan(t *testing.T) {
	for _, role := range []message.Role{message.RoleAppInfo, message.RoleAppWarning, message.RoleAppError} {
		rm := testRenderer().RenderMessage(message.Message{Role: role, Content: "note"}, mdFlags())
		if rm.Lines[0].Spans[0].Kind.Type != SpanAppPrefix {
			t.Errorf("%s: first span should be AppPrefix", role)
		}
	}
}

func TestMarkdownOffIsVerbatim(t *testing.T) {
	content := "# not a heading\n```go\ncode\n```"
	rm := testRenderer().RenderMessage(assistant(content), Flags{Markdown: false})
	if strings.Join(linesText(rm.Lines), "\n") != content {
		t.Errorf("plain render altered content: %v", linesText(rm.Lines))
	}
	if len(rm.Blocks) != 0 {
		t.Error("plain render must not extract code blocks")
	}
}

// ---------------------------------------------------------------------------
// code blocks
// ---------------------------------------------------------------------------

func TestFencedBlockContentAndKind(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("```go\nfmt.Println(1)\n```"), mdFlags())
	if len(rm.Blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(rm.Blocks))
	}
	if rm.Blocks[0].Lang != "go" {
		t.Errorf("lang: %q", rm.Blocks[0].Lang)
	}
	if rm.Blocks[0].Content != "fmt.Println(1)" {
		t.Errorf("content: %q", rm.Blocks[0].Content)
	}
	found := false
	for _, l := range rm.Lines {
		for _, s := range l.Spans {
			if s.Kind.Type == SpanCodeBlock {
				found = true
				if s.Kind.Lang != "go" || s.Kind.Block != 0 {
					t.Errorf("code span kind: %+v", s.Kind)
				}
			}
		}
	}
	if !found {
		t.Error("no code block spans emitted")
	}
}

func TestEmptyFenceGetsSelectableEntry(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("```\n```"), mdFlags())
	if len(rm.Blocks) != 1 {
		t.Fatalf("empty fence should still register a block, got %d", len(rm.Blocks))
	}
	found := false
	for _, l := range rm.Lines {
		for _, s := range l.Spans {
			if s.Kind.Type == SpanCodeBlock {
				found = true
			}
		}
	}
	if !found {
		t.Error("empty fence needs at least one selectable code span")
	}
}

func TestPerMessageBlockIndices(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("```\na\n```\n\n```\nb\n```"), mdFlags())
	if len(rm.Blocks) != 2 {
		t.Fatalf("want 2 blocks, got %d", len(rm.Blocks))
	}
	seen := map[int]bool{}
	for _, l := range rm.Lines {
		for _, s := range l.Spans {
			if s.Kind.Type == SpanCodeBlock {
				seen[s.Kind.Block] = true
			}
		}
	}
	if !seen[0] || !seen[1] {
		t.Errorf("block indices not zero-based per message: %v", seen)
	}
}

// ---------------------------------------------------------------------------
// links and images
// ---------------------------------------------------------------------------

func TestLinkSpanCarriesURL(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("see [docs](https://example.com/x)"), mdFlags())
	var url string
	for _, s := range rm.Lines[0].Spans {
		if s.Kind.Type == SpanLink {
			url = s.Kind.URL
		}
	}
	if url != "https://example.com/x" {
		t.Errorf("link URL: %q", url)
	}
}

func TestImageAltBecomesLink(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("![a cat](https://example.com/cat.png)"), mdFlags())
	var got Span
	for _, s := range rm.Lines[0].Spans {
		if s.Kind.Type == SpanLink {
			got = s
		}
	}
	if got.Text != "a cat" || got.Kind.URL != "https://example.com/cat.png" {
		t.Errorf("image span: %+v", got)
	}
}

// ---------------------------------------------------------------------------
// lists
// ---------------------------------------------------------------------------

func TestListSpacingPreservesSourceBlankLines(t *testing.T) {
	// Second item separated by a blank line in source gets a blank display
	// line before it; first does not.
	src := "- one\n\n- two\n- three"
	rm := testRenderer().RenderMessage(assistant(src), mdFlags())
	got := linesText(rm.Lines)

	var idxOne, idxTwo, idxThree = -1, -1, -1
	for i, l := range got {
		switch {
		case strings.Contains(l, "one"):
			idxOne = i
		case strings.Contains(l, "two"):
			idxTwo = i
		case strings.Contains(l, "three"):
			idxThree = i
		}
	}
	if idxOne < 0 || idxTwo < 0 || idxThree < 0 {
		t.Fatalf("items missing: %v", got)
	}
	if idxTwo != idxOne+2 || strings.TrimSpace(got[idxOne+1]) != "" {
		t.Errorf("blank line expected before 'two': %v", got)
	}
	if idxThree != idxTwo+1 {
		t.Errorf("no blank line expected before 'three': %v", got)
	}
}

func TestOrderedListMarkers(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("1. a\n2. b"), mdFlags())
	got := linesText(rm.Lines)
	if !strings.HasPrefix(got[0], "1. ") || !strings.HasPrefix(got[1], "2. ") {
		t.Errorf("ordered markers: %v", got)
	}
}

func TestTaskListCheckbox(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("- [x] done\n- [ ] todo"), mdFlags())
	joined := strings.Join(linesText(rm.Lines), "\n")
	if !strings.Contains(joined, "[x] done") || !strings.Contains(joined, "[ ] todo") {
		t.Errorf("task list render: %q", joined)
	}
}

// ---------------------------------------------------------------------------
// tables, quotes, misc
// ---------------------------------------------------------------------------

func TestTableLinesMarked(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |"
	rm := testRenderer().RenderMessage(assistant(src), mdFlags())
	count := 0
	for _, l := range rm.Lines {
		if l.Table {
			count++
		}
	}
	// header + rule + one data row
	if count != 3 {
		t.Errorf("table lines: want 3, got %d (%v)", count, linesText(rm.Lines))
	}
}

func TestBlockquotePrefix(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("> quoted"), mdFlags())
	if !strings.HasPrefix(rm.Lines[0].Text(), "┃ ") {
		t.Errorf("quote line: %q", rm.Lines[0].Text())
	}
}

func TestCalloutLabel(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("> [!NOTE]\n> something"), mdFlags())
	joined := strings.Join(linesText(rm.Lines), "\n")
	if !strings.Contains(joined, "Note") {
		t.Errorf("callout render: %q", joined)
	}
}

func TestStrikethroughAndEmphasisKeepText(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant("~~gone~~ *it* **bold**"), mdFlags())
	text := rm.Lines[0].Text()
	for _, want := range []string{"gone", "it", "bold"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestEmptyMessageYieldsOneLine(t *testing.T) {
	rm := testRenderer().RenderMessage(assistant(""), mdFlags())
	if len(rm.Lines) != 1 {
		t.Errorf("want exactly one line for empty message, got %d", len(rm.Lines))
	}
}

func TestSyntaxHighlightingKeepsTextAndBlockContent(t *testing.T) {
	src := "```go\npackage main\n```"
	plain := testRenderer().RenderMessage(assistant(src), Flags{Markdown: true})
	lit := testRenderer().RenderMessage(assistant(src), Flags{Markdown: true, Syntax: true})
	// Both renders carry the same text and the same block content.
	if plain.Blocks[0].Content != lit.Blocks[0].Content {
		t.Error("highlighting changed stored block content")
	}
	joinedPlain := strings.Join(linesText(plain.Lines), "\n")
	joinedLit := strings.Join(linesText(lit.Lines), "\n")
	if joinedPlain != joinedLit {
		t.Errorf("highlighting changed text: %q vs %q", joinedPlain, joinedLit)
	}
}

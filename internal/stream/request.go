package stream

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/permacommons/chabeau/internal/message"
)

// SystemScaffold carries the resolved system-prompt fragments applied
// around the transcript when a request is built: the base system prompt
// (or the active character card's prompt), the persona bio, and the
// preset's pre/post instructions.
type SystemScaffold struct {
	Base       string
	Character  string // character card system prompt; overrides Base when set
	PersonaBio string
	PresetPre  string
	PresetPost string
}

func (sc SystemScaffold) empty() bool {
	return sc.Base == "" && sc.Character == "" && sc.PersonaBio == "" &&
		sc.PresetPre == "" && sc.PresetPost == ""
}

// leading assembles the first system message: preset pre, then the
// character prompt (or base), then the persona bio.
func (sc SystemScaffold) leading() string {
	core := sc.Base
	if sc.Character != "" {
		core = sc.Character
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{sc.PresetPre, core, sc.PersonaBio} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "\n\n")
}

// ComposeMessages converts the transcript into wire messages, applying the
// scaffold: the leading fragments form their own system message placed
// before the whole transcript, and the preset's post instruction is appended after the last
// system message. App messages never reach the wire.
func ComposeMessages(msgs []message.Message, sc SystemScaffold) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+2)

	lead := sc.leading()
	if lead != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: lead,
		})
	}

	lastSystem := -1
	for _, m := range msgs {
		if !m.Role.Sendable() || m.InProgress {
			continue
		}
		if m.Role == message.RoleAssistant && m.Content == "" {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
		if m.Role == message.RoleSystem {
			lastSystem = len(out) - 1
		}
	}

	if strings.TrimSpace(sc.PresetPost) != "" {
		post := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: strings.TrimSpace(sc.PresetPost),
		}
		switch {
		case lastSystem >= 0:
			// Insert directly after the last transcript system message.
			out = append(out[:lastSystem+1], append([]openai.ChatCompletionMessage{post}, out[lastSystem+1:]...)...)
		case lead != "":
			out = append(out[:1], append([]openai.ChatCompletionMessage{post}, out[1:]...)...)
		default:
			out = append([]openai.ChatCompletionMessage{post}, out...)
		}
	}

	return out
}

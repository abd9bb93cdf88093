package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Descriptor describes an OpenAI-compatible provider: where to send
// requests and which extra headers it wants. The streaming service and the
// model picker consume descriptors; they never hard-code endpoints.
type Descriptor struct {
	ID          string
	DisplayName string
	BaseURL     string
	// Headers are provider-specific extras set on every request
	// (e.g. Anthropic's version header on its OpenAI-compatible surface).
	Headers map[string]string
	// KeyEnv is the conventional environment variable for this provider's
	// key, shown in the provider picker and read by auth as a key fallback.
	KeyEnv string
}

// Builtin returns the builtin provider table, sorted by id.
func Builtin() []Descriptor {
	out := []Descriptor{
		{ID: "openai", DisplayName: "OpenAI", BaseURL: "https://api.openai.com/v1", KeyEnv: "OPENAI_API_KEY"},
		{ID: "openrouter", DisplayName: "OpenRouter", BaseURL: "https://openrouter.ai/api/v1", KeyEnv: "OPENROUTER_API_KEY"},
		{ID: "groq", DisplayName: "Groq", BaseURL: "https://api.groq.com/openai/v1", KeyEnv: "GROQ_API_KEY"},
		{ID: "mistral", DisplayName: "Mistral", BaseURL: "https://api.mistral.ai/v1", KeyEnv: "MISTRAL_API_KEY"},
		{ID: "deepseek", DisplayName: "DeepSeek", BaseURL: "https://api.deepseek.com/v1", KeyEnv: "DEEPSEEK_API_KEY"},
		{ID: "together", DisplayName: "Together", BaseURL: "https://api.together.xyz/v1", KeyEnv: "TOGETHER_API_KEY"},
		{ID: "xai", DisplayName: "xAI", BaseURL: "https://api.x.ai/v1", KeyEnv: "XAI_API_KEY"},
		{ID: "perplexity", DisplayName: "Perplexity", BaseURL: "https://api.perplexity.ai", KeyEnv: "PERPLEXITY_API_KEY"},
		{ID: "cerebras", DisplayName: "Cerebras", BaseURL: "https://api.cerebras.ai/v1", KeyEnv: "CEREBRAS_API_KEY"},
		{
			ID: "anthropic", DisplayName: "Anthropic", BaseURL: "https://api.anthropic.com/v1",
			KeyEnv:  "ANTHROPIC_API_KEY",
			Headers: map[string]string{"anthropic-version": "2023-06-01"},
		},
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup finds a builtin provider by id (case-insensitive).
func Lookup(id string) (Descriptor, bool) {
	id = strings.ToLower(id)
	for _, d := range Builtin() {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Custom builds a descriptor for a user-supplied base URL.
func Custom(id, displayName, baseURL string) Descriptor {
	if displayName == "" {
		displayName = id
	}
	return Descriptor{ID: id, DisplayName: displayName, BaseURL: baseURL}
}

// Model is one entry from a provider's model listing.
type Model struct {
	ID      string
	OwnedBy string
	Created int64
}

// ListModels fetches the provider's model list via the standard /models
// endpoint, sorted newest first then by id.
func ListModels(ctx context.Context, d Descriptor, apiKey string) ([]Model, error) {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = d.BaseURL
	client := openai.NewClientWithConfig(cfg)

	list, err := client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: list models: %w", d.ID, err)
	}
	out := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, Model{ID: m.ID, OwnedBy: m.OwnedBy, Created: m.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created > out[j].Created
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

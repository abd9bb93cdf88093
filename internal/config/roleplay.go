package config

// Persona is who the user speaks as: a display name used to label user
// messages plus a bio woven into the system prompt.
type Persona struct {
	ID   string `mapstructure:"id" toml:"id"`
	Name string `mapstructure:"name" toml:"name"`
	Bio  string `mapstructure:"bio" toml:"bio,omitempty"`
}

// Preset wraps the system prompt with pre/post instructions, e.g. response
// style or safety scaffolding.
type Preset struct {
	ID   string `mapstructure:"id" toml:"id"`
	Pre  string `mapstructure:"pre" toml:"pre,omitempty"`
	Post string `mapstructure:"post" toml:"post,omitempty"`
}

// Character is a chat character card: its system prompt replaces the base
// one, and its greeting seeds an empty conversation.
type Character struct {
	Name         string `mapstructure:"name" toml:"name"`
	SystemPrompt string `mapstructure:"system_prompt" toml:"system_prompt,omitempty"`
	Greeting     string `mapstructure:"greeting" toml:"greeting,omitempty"`
	Description  string `mapstructure:"description" toml:"description,omitempty"`
}

// FindPersona resolves a persona by id.
func (c *Config) FindPersona(id string) (Persona, bool) {
	for _, p := range c.Personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// FindPreset resolves a preset by id.
func (c *Config) FindPreset(id string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// FindCharacter resolves a character by name.
func (c *Config) FindCharacter(name string) (Character, bool) {
	for _, ch := range c.Characters {
		if ch.Name == name {
			return ch, true
		}
	}
	return Character{}, false
}

// DefaultCharacterFor returns the default character assigned to a
// provider, if any.
func (c *Config) DefaultCharacterFor(providerID string) (Character, bool) {
	name, ok := c.DefaultCharacters[providerID]
	if !ok {
		return Character{}, false
	}
	return c.FindCharacter(name)
}

package backend

import "strings"

// Provider identifies which AI CLI a conversation runs against.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
	ProviderCodex  Provider = "codex"
	ProviderKimi   Provider = "kimi"
)

// DefaultProvider is used when a session never selected one.
const DefaultProvider = ProviderClaude

// DisplayName returns the human-readable provider name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderClaude:
		return "Claude (Anthropic)"
	case ProviderGemini:
		return "Gemini (Google)"
	case ProviderCodex:
		return "Codex (OpenAI)"
	case ProviderKimi:
		return "Kimi (Moonshot AI)"
	default:
		return string(p)
	}
}

// BinaryName returns the CLI binary the provider runs as.
func (p Provider) BinaryName() string {
	switch p {
	case ProviderClaude:
		return "claude"
	case ProviderGemini:
		return "gemini"
	case ProviderCodex:
		return "codex"
	case ProviderKimi:
		return "kimi"
	default:
		return string(p)
	}
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderClaude, ProviderGemini, ProviderCodex, ProviderKimi:
		return true
	}
	return false
}

// ParseProvider matches a provider name case-insensitively. The second
// return is false for unknown names.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToLower(s))
	if p.Valid() {
		return p, true
	}
	return "", false
}

package llmprovider

import "fmt"

// ProviderID names a vendor. It keys the profile registry and tags errors.
type ProviderID string

const (
	ProviderAnthropic  ProviderID = "anthropic"  // Messages API
	ProviderOpenRouter ProviderID = "openrouter" // OpenAI-compatible chat completions
	ProviderGoogle     ProviderID = "google"     // Gemini API
	ProviderLorem      ProviderID = "lorem"      // offline mock speaking the Anthropic wire format
)

var providerAliases = map[string]ProviderID{
	"anthropic":  ProviderAnthropic,
	"claude":     ProviderAnthropic,
	"openrouter": ProviderOpenRouter,
	"google":     ProviderGoogle,
	"gemini":     ProviderGoogle,
	"lorem":      ProviderLorem,
}

func (p ProviderID) String() string {
	return string(p)
}

// IsValid reports whether p is one of the known vendors.
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenRouter, ProviderGoogle, ProviderLorem:
		return true
	}
	return false
}

// ParseProviderID resolves a vendor name or alias ("gemini", "claude").
func ParseProviderID(name string) (ProviderID, error) {
	if id, ok := providerAliases[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// Package gemini encodes requests for and normalizes responses from the
// Gemini API's generateContent endpoints.
package gemini

import (
	"net/http"
	"strings"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/transport"
)

const (
	// DefaultBaseURL is the Gemini API model collection
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	// APIKeyHeader carries the API key
	APIKeyHeader = "x-goog-api-key"
)

// TransportOptions configures NewTransport.
type TransportOptions struct {
	BaseURL string       // defaults to DefaultBaseURL
	Client  *http.Client // defaults to http.DefaultClient
}

// NewTransport creates an HTTP transport for Gemini. The model in each
// request selects the endpoint.
func NewTransport(apiKey string, options TransportOptions) (*transport.HTTP, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	profile, err := llmprovider.GetProfile(llmprovider.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(options.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	return transport.NewHTTP(transport.Config{
		Provider:  llmprovider.ProviderGoogle,
		Profile:   profile,
		URL:       base + "/{model}:generateContent",
		StreamURL: base + "/{model}:streamGenerateContent?alt=sse",
		Headers:   map[string]string{APIKeyHeader: apiKey},
		Encode:    EncodeRequest,
		Client:    options.Client,
	})
}

// SupportsModel returns true if the model is a Gemini model.
func SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

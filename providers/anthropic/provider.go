// Package anthropic encodes requests for and normalizes responses from
// Anthropic's Messages API.
package anthropic

import (
	"net/http"
	"strings"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/transport"
)

const (
	// DefaultURL is the Messages API endpoint
	DefaultURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is sent as the anthropic-version header
	APIVersion = "2023-06-01"
)

// TransportOptions configures NewTransport.
type TransportOptions struct {
	URL    string       // defaults to DefaultURL
	Client *http.Client // defaults to http.DefaultClient
}

// NewTransport creates an HTTP transport for the Messages API.
func NewTransport(apiKey string, options TransportOptions) (*transport.HTTP, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	profile, err := llmprovider.GetProfile(llmprovider.ProviderAnthropic)
	if err != nil {
		return nil, err
	}

	url := options.URL
	if url == "" {
		url = DefaultURL
	}

	return transport.NewHTTP(transport.Config{
		Provider: llmprovider.ProviderAnthropic,
		Profile:  profile,
		URL:      url,
		Headers: map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": APIVersion,
		},
		Encode: EncodeRequest,
		Client: options.Client,
	})
}

// SupportsModel returns true if the model is a Claude model.
// Anthropic models start with "claude-"
func SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

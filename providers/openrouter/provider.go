// Package openrouter encodes requests for and normalizes responses from
// OpenRouter's OpenAI-compatible chat completions API.
//
// OpenRouter proxies many vendors behind one wire format. Models are named
// "vendor/model" (e.g. "anthropic/claude-3.5-sonnet"); verify names at
// https://openrouter.ai/models when a request fails with 404.
package openrouter

import (
	"net/http"
	"strings"

	"github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/transport"
)

// DefaultURL is the chat completions endpoint
const DefaultURL = "https://openrouter.ai/api/v1/chat/completions"

// TransportOptions configures NewTransport.
type TransportOptions struct {
	URL    string       // defaults to DefaultURL
	Client *http.Client // defaults to http.DefaultClient

	// Referer and Title identify the calling app on openrouter.ai (optional)
	Referer string
	Title   string
}

// NewTransport creates an HTTP transport for OpenRouter.
func NewTransport(apiKey string, options TransportOptions) (*transport.HTTP, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	profile, err := llmprovider.GetProfile(llmprovider.ProviderOpenRouter)
	if err != nil {
		return nil, err
	}

	url := options.URL
	if url == "" {
		url = DefaultURL
	}

	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if options.Referer != "" {
		headers["HTTP-Referer"] = options.Referer
	}
	if options.Title != "" {
		headers["X-Title"] = options.Title
	}

	return transport.NewHTTP(transport.Config{
		Provider: llmprovider.ProviderOpenRouter,
		Profile:  profile,
		URL:      url,
		Headers:  headers,
		Encode:   EncodeRequest,
		Client:   options.Client,
	})
}

// SupportsModel returns true if this provider supports the given model.
// OpenRouter uses provider/model format, plus special models like "openrouter/auto".
func SupportsModel(model string) bool {
	return strings.Contains(model, "/")
}

// Package transport delivers encoded requests to vendor HTTP endpoints.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// EncodeFunc builds the vendor request body. stream selects the streaming variant.
type EncodeFunc func(req *llmprovider.GenerateRequest, stream bool) ([]byte, error)

// Config configures an HTTP transport.
type Config struct {
	Provider llmprovider.ProviderID
	Profile  *llmprovider.VendorProfile

	// URL is the blocking endpoint. "{model}" is replaced with the request model.
	URL string

	// StreamURL is the streaming endpoint (defaults to URL)
	StreamURL string

	// Headers are sent with every request (authentication, API version)
	Headers map[string]string

	Encode EncodeFunc

	// Client defaults to http.DefaultClient
	Client *http.Client

	// Logger receives request logs (nil discards)
	Logger *slog.Logger
}

// HTTP implements llmprovider.Transport over HTTP.
type HTTP struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

var _ llmprovider.Transport = (*HTTP)(nil)

// NewHTTP creates an HTTP transport.
func NewHTTP(config Config) (*HTTP, error) {
	if config.URL == "" {
		return nil, errors.New("transport: URL is required")
	}
	if config.Encode == nil {
		return nil, errors.New("transport: Encode is required")
	}
	if config.Profile == nil {
		return nil, errors.New("transport: Profile is required")
	}
	if config.StreamURL == "" {
		config.StreamURL = config.URL
	}

	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTP{config: config, client: client, logger: logger}, nil
}

// Stream POSTs the streaming variant of req and returns the SSE body.
// The caller closes the body.
func (t *HTTP) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (io.ReadCloser, error) {
	resp, err := t.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Complete POSTs req and returns the full response body.
func (t *HTTP) Complete(ctx context.Context, req *llmprovider.GenerateRequest) ([]byte, error) {
	resp, err := t.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", t.config.Provider, err)
	}
	return body, nil
}

// do sends the request. Non-200 responses are returned as
// *llmprovider.ProviderError with the body already closed.
func (t *HTTP) do(ctx context.Context, req *llmprovider.GenerateRequest, stream bool) (*http.Response, error) {
	prefix := t.config.Provider.String()

	body, err := t.config.Encode(req, stream)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", prefix, err)
	}

	endpoint := t.config.URL
	if stream {
		endpoint = t.config.StreamURL
	}
	endpoint = strings.ReplaceAll(endpoint, "{model}", req.Model)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if stream {
		httpRequest.Header.Set("Accept", "text/event-stream")
	}
	for key, value := range t.config.Headers {
		httpRequest.Header.Set(key, value)
	}

	t.logger.Debug("sending request", "provider", prefix, "model", req.Model, "stream", stream, "bytes", len(body))

	httpResponse, err := t.client.Do(httpRequest)
	if err != nil {
		return nil, &llmprovider.ProviderError{
			Provider:  prefix,
			Kind:      llmprovider.ErrorKindProvider,
			Message:   err.Error(),
			Retryable: true,
			Err:       fmt.Errorf("%w: %w", llmprovider.ErrProviderUnavailable, err),
		}
	}

	if httpResponse.StatusCode != http.StatusOK {
		defer httpResponse.Body.Close()
		return nil, t.readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// readProviderError classifies an error response using the vendor profile's
// error paths. Bodies that are not JSON become the message verbatim.
func (t *HTTP) readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, maxErrorBody))

	profile := t.config.Profile
	errType, message := profile.ExtractError(body)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(httpResponse.StatusCode)
	}

	kind := profile.ClassifyError(errType, httpResponse.StatusCode)
	return llmprovider.NewProviderError(t.config.Provider.String(), httpResponse.StatusCode, kind, errType, message)
}

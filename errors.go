package llmprovider

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("llmprovider: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("llmprovider: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llmprovider: rate limit exceeded")

	// ErrOverloaded indicates the provider is temporarily over capacity.
	// Distinct from ErrRateLimited: the caller did nothing wrong.
	ErrOverloaded = errors.New("llmprovider: provider overloaded")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("llmprovider: invalid request")

	// ErrProviderUnavailable indicates the provider service is down or unreachable.
	ErrProviderUnavailable = errors.New("llmprovider: provider unavailable")

	// ErrDecode indicates a stream frame or response body could not be parsed.
	ErrDecode = errors.New("llmprovider: decode failed")

	// ErrUnknownTool indicates the model called a tool that is not in the ToolSet.
	ErrUnknownTool = errors.New("llmprovider: unknown tool")

	// ErrToolInvocation indicates a tool handler failed or rejected its arguments.
	ErrToolInvocation = errors.New("llmprovider: tool invocation failed")

	// ErrStreamConsumed indicates an event stream was iterated a second time.
	ErrStreamConsumed = errors.New("llmprovider: stream already consumed")
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrorKindProvider    ErrorKind = "provider_error"
	ErrorKindOverloaded  ErrorKind = "overloaded"
	ErrorKindRateLimited ErrorKind = "rate_limited"
)

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error in request parameter validation.
type ValidationError struct {
	Field  string // The parameter field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProviderError represents an error reported by the vendor, either as an HTTP
// error response or as an error record inside the stream.
type ProviderError struct {
	Provider   string    // The provider name
	StatusCode int       // HTTP status code (0 for in-stream errors)
	Kind       ErrorKind // Overloaded, RateLimited or generic
	Type       string    // Vendor error type, e.g. "overloaded_error"
	Message    string    // Error message from provider
	Retryable  bool      // Whether this error is potentially retryable
	Err        error     // Wrapped sentinel error (ErrRateLimited, ErrOverloaded, etc.)
}

// NewProviderError builds a ProviderError and derives the wrapped sentinel
// and retryability from kind and status.
func NewProviderError(provider string, statusCode int, kind ErrorKind, errType, message string) *ProviderError {
	e := &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Kind:       kind,
		Type:       errType,
		Message:    message,
	}

	switch {
	case kind == ErrorKindRateLimited:
		e.Err = ErrRateLimited
		e.Retryable = true
	case kind == ErrorKindOverloaded:
		e.Err = ErrOverloaded
		e.Retryable = true
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Err = ErrInvalidAPIKey
	case statusCode == http.StatusBadRequest || statusCode == http.StatusNotFound || statusCode == http.StatusUnprocessableEntity:
		e.Err = ErrInvalidRequest
	case statusCode >= 500 || statusCode == http.StatusRequestTimeout:
		e.Err = ErrProviderUnavailable
		e.Retryable = true
	}

	return e
}

func (e *ProviderError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = ErrorKindProvider
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d, %s): %s", e.Provider, e.StatusCode, kind, e.Message)
	}
	return fmt.Sprintf("provider '%s' error (%s): %s", e.Provider, kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// DecodeError reports a frame or body that could not be parsed. Raw holds
// the offending text exactly as received.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("decode error: %v (raw: %q)", e.Err, raw)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports ErrDecode as well as the wrapped parse error.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// UnknownToolError reports a tool call whose name is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

func (e *UnknownToolError) Unwrap() error {
	return ErrUnknownTool
}

// ToolInvocationError reports a tool call that could not be executed:
// unknown name, invalid arguments or a failing handler.
type ToolInvocationError struct {
	ToolCallID string
	ToolName   string
	Err        error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool '%s' (call %s): %v", e.ToolName, e.ToolCallID, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}

// Is reports ErrToolInvocation as well as the wrapped cause.
func (e *ToolInvocationError) Is(target error) bool {
	return target == ErrToolInvocation
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits, overload, temporary unavailability.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrOverloaded) ||
		errors.Is(err, ErrProviderUnavailable)
}

// IsOverloaded checks if an error reports vendor overload.
func IsOverloaded(err error) bool {
	return errors.Is(err, ErrOverloaded)
}

// IsRateLimited checks if an error reports an exceeded rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsDecodeError checks if an error came from an unparseable frame or body.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors are not retryable and require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidModel) {
		return true
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode == 401 || providerErr.StatusCode == 403
	}

	return false
}

package llmprovider

import (
	"context"
	"io"
)

// Transport delivers an encoded request to a vendor and hands back what the
// vendor returned. It does no parsing: the engine frames, decodes and
// normalizes the bytes.
//
// Implementations:
//   - transport.HTTP: real vendor endpoints
//   - providers/lorem: scripted Anthropic-format streams for tests and demos
type Transport interface {
	// Stream sends req with streaming enabled and returns the raw SSE body.
	// The caller closes the body.
	Stream(ctx context.Context, req *GenerateRequest) (io.ReadCloser, error)

	// Complete sends req as a blocking request and returns the full response body.
	Complete(ctx context.Context, req *GenerateRequest) ([]byte, error)
}

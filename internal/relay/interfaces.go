package relay

import (
	"context"
	"net/http"
)

// HTTPClient abstracts the HTTP client for better testing
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// RequestBuilder builds the upstream chat-completion request
type RequestBuilder interface {
	BuildRequest(ctx context.Context, req *ChatRequest, key string) (*http.Request, error)
}

// ResponseProcessor turns the upstream response into the body relayed to
// the caller, or an error describing what to relay instead.
type ResponseProcessor interface {
	ProcessResponse(*http.Response) ([]byte, error)
}

package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/sjson"

	"github.com/go-coders/groq-relay/pkg/config"
)

// DefaultRequestBuilder implements the RequestBuilder interface
type DefaultRequestBuilder struct {
	URL          string
	DefaultModel string
}

// NewRequestBuilder creates a builder targeting url
func NewRequestBuilder(url, defaultModel string) *DefaultRequestBuilder {
	if url == "" {
		url = config.DefaultUpstreamURL
	}
	if defaultModel == "" {
		defaultModel = config.DefaultModel
	}
	return &DefaultRequestBuilder{URL: url, DefaultModel: defaultModel}
}

// BuildRequest builds the upstream POST carrying key as bearer token
func (b *DefaultRequestBuilder) BuildRequest(ctx context.Context, req *ChatRequest, key string) (*http.Request, error) {
	payload, err := b.BuildPayload(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	return httpReq, nil
}

// BuildPayload renders {model, messages, temperature, max_tokens} in that
// order. messages is copied byte for byte.
func (b *DefaultRequestBuilder) BuildPayload(req *ChatRequest) ([]byte, error) {
	out := []byte(`{}`)
	var err error

	model, raw := resolveModel(req.Model, b.DefaultModel)
	if raw {
		out, err = sjson.SetRawBytes(out, "model", []byte(model))
	} else {
		out, err = sjson.SetBytes(out, "model", model)
	}
	if err != nil {
		return nil, fmt.Errorf("set model: %w", err)
	}

	if req.Messages.Exists() {
		if out, err = sjson.SetRawBytes(out, "messages", []byte(req.Messages.Raw)); err != nil {
			return nil, fmt.Errorf("set messages: %w", err)
		}
	}
	if out, err = sjson.SetBytes(out, "temperature", config.Temperature); err != nil {
		return nil, fmt.Errorf("set temperature: %w", err)
	}
	if out, err = sjson.SetBytes(out, "max_tokens", config.MaxTokens); err != nil {
		return nil, fmt.Errorf("set max_tokens: %w", err)
	}
	return out, nil
}

package relay

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultResponseProcessor implements the ResponseProcessor interface
type DefaultResponseProcessor struct{}

// NewResponseProcessor creates a new DefaultResponseProcessor
func NewResponseProcessor() *DefaultResponseProcessor {
	return &DefaultResponseProcessor{}
}

// ProcessResponse relays a 2xx JSON body verbatim. Any other status becomes
// an upstream error carrying the raw body text.
func (p *DefaultResponseProcessor) ProcessResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Internal(fmt.Errorf("failed to read upstream body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, UpstreamError(resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return nil, Internal(errors.New("upstream returned a non-JSON body"))
	}
	return body, nil
}

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/go-coders/groq-relay/internal/keypool"
	"github.com/go-coders/groq-relay/pkg/logger"
	"github.com/go-coders/groq-relay/pkg/util"
)

// Relay forwards chat-completion requests upstream with a key drawn from
// the pool. It holds no per-request state.
type Relay struct {
	keys      keypool.Source
	selector  keypool.Selector
	client    HTTPClient
	builder   RequestBuilder
	processor ResponseProcessor
}

// NewRelay creates a Relay from its parts
func NewRelay(keys keypool.Source, selector keypool.Selector, client HTTPClient, builder RequestBuilder, processor ResponseProcessor) *Relay {
	if selector == nil {
		selector = keypool.RandomSelector{}
	}
	if client == nil {
		// no timeout: an unresponsive upstream is bounded by the host only
		client = &http.Client{}
	}
	if processor == nil {
		processor = NewResponseProcessor()
	}
	return &Relay{
		keys:      keys,
		selector:  selector,
		client:    client,
		builder:   builder,
		processor: processor,
	}
}

// New creates a Relay with the default selector, client and processor
func New(keys keypool.Source, upstreamURL, defaultModel string) *Relay {
	return NewRelay(keys, nil, nil, NewRequestBuilder(upstreamURL, defaultModel), nil)
}

// Forward runs parse, sanitize, key resolution, selection, forwarding and
// relay for one request body. The returned error is always an *Error.
func (r *Relay) Forward(ctx context.Context, body []byte) ([]byte, error) {
	req, err := ParseChatRequest(body)
	if err != nil {
		return nil, err
	}

	pool, err := keypool.Resolve(r.keys)
	if err != nil {
		return nil, ConfigError(err)
	}
	key := r.selector.Pick(pool)

	httpReq, err := r.builder.BuildRequest(ctx, req, key)
	if err != nil {
		return nil, Internal(err)
	}

	log := logger.WithFields(logrus.Fields{
		"key":       util.MaskKey(key, 4, 4),
		"pool_size": len(pool),
	})
	log.Debug("forwarding chat completion")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, Internal(err)
	}

	out, err := r.processor.ProcessResponse(resp)
	if err != nil {
		log.WithField("status", resp.StatusCode).Warn("upstream request failed")
		return nil, AsError(err)
	}
	return out, nil
}

// Handle is the gin handler for the relay route. Any method other than POST
// is rejected; every failure, panics included, becomes a JSON error body.
func (r *Relay) Handle(c *gin.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("relay panic: %v", rec)
			writeError(c, Internal(fmt.Errorf("%v", rec)))
		}
	}()

	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		writeError(c, MethodNotAllowed(c.Request.Method))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, InvalidJSON(err))
		return
	}

	// the upstream call outlives a disconnecting caller
	ctx := context.WithoutCancel(c.Request.Context())
	out, err := r.Forward(ctx, body)
	if err != nil {
		e := AsError(err)
		if e.Status >= http.StatusInternalServerError && !IsUpstreamError(e) {
			logger.Error("relay: %v", e)
		}
		writeError(c, e)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

func writeError(c *gin.Context, e *Error) {
	writeJSON(c, e.Status, e.Payload())
}

// writeJSON leaves <, > and & unescaped so relayed upstream text reads as sent
func writeJSON(c *gin.Context, status int, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		c.Data(http.StatusInternalServerError, "application/json", []byte(`{"error":"`+MsgInternal+`"}`))
		return
	}
	c.Data(status, "application/json", bytes.TrimRight(buf.Bytes(), "\n"))
}

package relay

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-coders/groq-relay/internal/keypool"
	"github.com/go-coders/groq-relay/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixedSelector always returns the key at index and remembers the pool
type fixedSelector struct {
	index int
	seen  []string
}

func (s *fixedSelector) Pick(pool []string) string {
	s.seen = pool
	return pool[s.index]
}

type panicSelector struct{}

func (panicSelector) Pick([]string) string { panic("selector exploded") }

// MockHTTPClient implements HTTPClient for testing
type MockHTTPClient struct {
	DoFunc func(*http.Request) (*http.Response, error)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.DoFunc(req)
}

// upstream records what the relay sent and answers with a canned response
type upstream struct {
	server *httptest.Server
	calls  atomic.Int32
	body   string
	auth   string
	ctype  string
}

func newUpstream(t *testing.T, status int, reply string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		u.body = string(b)
		u.auth = r.Header.Get("Authorization")
		u.ctype = r.Header.Get("Content-Type")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func keys(raw string) keypool.Source {
	return keypool.StaticSource{Raw: raw, Present: true}
}

func serve(r *Relay, method, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Any("/api/groq", r.Handle)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/api/groq", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	r := New(keys("k1"), up.server.URL, "")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			rec := serve(r, method, `{"messages":[]}`)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
		})
	}
	assert.Zero(t, up.calls.Load())
}

func TestHandle_InvalidJSON(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	r := New(keys("k1"), up.server.URL, "")

	for _, body := range []string{"", "{", "not json", `{"messages": [}`, `{"model":"x",}`} {
		rec := serve(r, http.MethodPost, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Equal(t, `{"error":"Invalid JSON body"}`, rec.Body.String())
	}
	assert.Zero(t, up.calls.Load())
}

func TestHandle_KeyConfiguration(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)

	tests := []struct {
		name string
		src  keypool.Source
		want string
	}{
		{name: "absent", src: keypool.StaticSource{}, want: `{"error":"Server Configuration Error: No GROQ_API_KEYS found."}`},
		{name: "empty", src: keys(""), want: `{"error":"Server Configuration Error: No GROQ_API_KEYS found."}`},
		{name: "whitespace only", src: keys("   "), want: `{"error":"Server Configuration Error: No valid GROQ keys."}`},
		{name: "commas only", src: keys(" , ,"), want: `{"error":"Server Configuration Error: No valid GROQ keys."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New(tt.src, up.server.URL, ""), http.MethodPost, `{"messages":[]}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
	assert.Zero(t, up.calls.Load())
}

func TestHandle_ForwardsPayload(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"hey"}}]}`)
	sel := &fixedSelector{index: 1}
	r := NewRelay(keys("k1, k2 ,,k3"), sel, nil, NewRequestBuilder(up.server.URL, ""), nil)

	rec := serve(r, http.MethodPost, `{"model":"llama-3.1-70b-versatile","messages":[ {"role":"user", "content":"hi"} ],"stream":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"choices":[{"index":0,"message":{"role":"assistant","content":"hey"}}]}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, []string{"k1", "k2", "k3"}, sel.seen)
	assert.Equal(t, "Bearer k2", up.auth)
	assert.Equal(t, "application/json", up.ctype)
	assert.Equal(t,
		`{"model":"llama-3.1-70b-versatile","messages":[ {"role":"user", "content":"hi"} ],"temperature":0.7,"max_tokens":4096}`,
		up.body)
}

func TestHandle_ModelSanitization(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "gemini replaced", body: `{"model":"Gemini-Pro","messages":[]}`, want: `"` + config.DefaultModel + `"`},
		{name: "gemini substring", body: `{"model":"models/GEMINI-1.5-flash","messages":[]}`, want: `"` + config.DefaultModel + `"`},
		{name: "other model kept", body: `{"model":"mixtral-8x7b-32768","messages":[]}`, want: `"mixtral-8x7b-32768"`},
		{name: "missing model", body: `{"messages":[]}`, want: `"` + config.DefaultModel + `"`},
		{name: "empty model", body: `{"model":"","messages":[]}`, want: `"` + config.DefaultModel + `"`},
		{name: "null model", body: `{"model":null,"messages":[]}`, want: `"` + config.DefaultModel + `"`},
		{name: "non string model", body: `{"model":42,"messages":[]}`, want: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, http.StatusOK, `{"ok":true}`)
			rec := serve(New(keys("k1"), up.server.URL, ""), http.MethodPost, tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.HasPrefix(up.body, `{"model":`+tt.want+`,`), up.body)
		})
	}
}

func TestHandle_UpstreamErrorIsRelayed(t *testing.T) {
	up := newUpstream(t, http.StatusTooManyRequests, "rate limited")
	r := New(keys("k1,k2,k3"), up.server.URL, "")

	rec := serve(r, http.MethodPost, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, `{"error":"Groq API Error","detail":"rate limited"}`, rec.Body.String())
	assert.Equal(t, int32(1), up.calls.Load(), "no retry with another key")
}

func TestHandle_UpstreamErrorKeepsMarkup(t *testing.T) {
	up := newUpstream(t, http.StatusBadGateway, "<html>bad gateway</html>")
	rec := serve(New(keys("k1"), up.server.URL, ""), http.MethodPost, `{"messages":[]}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, `{"error":"Groq API Error","detail":"<html>bad gateway</html>"}`, rec.Body.String())
}

func TestHandle_UpstreamInvalidJSON(t *testing.T) {
	up := newUpstream(t, http.StatusOK, "definitely not json")
	rec := serve(New(keys("k1"), up.server.URL, ""), http.MethodPost, `{"messages":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Server Internal Error"`)
	assert.Contains(t, rec.Body.String(), `"detail":"`)
}

func TestHandle_TransportFailure(t *testing.T) {
	client := &MockHTTPClient{DoFunc: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	r := NewRelay(keys("k1"), nil, client, NewRequestBuilder("http://upstream.invalid", ""), nil)

	rec := serve(r, http.MethodPost, `{"messages":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `{"error":"Server Internal Error","detail":"dial tcp: connection refused"}`, rec.Body.String())
}

func TestHandle_PanicBecomesInternalError(t *testing.T) {
	r := NewRelay(keys("k1"), panicSelector{}, nil, NewRequestBuilder("http://upstream.invalid", ""), nil)

	rec := serve(r, http.MethodPost, `{"messages":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `{"error":"Server Internal Error","detail":"selector exploded"}`, rec.Body.String())
}

func TestHandle_RandomSelectionAcrossRequests(t *testing.T) {
	seen := map[string]int{}
	client := &MockHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		seen[req.Header.Get("Authorization")]++
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
		}, nil
	}}
	r := NewRelay(keys("a,b,c"), nil, client, NewRequestBuilder("http://upstream.invalid", ""), nil)

	const trials = 3000
	for i := 0; i < trials; i++ {
		rec := serve(r, http.MethodPost, `{"messages":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Len(t, seen, 3)
	for _, k := range []string{"a", "b", "c"} {
		assert.InDelta(t, trials/3, seen["Bearer "+k], 300, k)
	}
}

package relay

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ChatRequest is the part of an inbound body the relay looks at. Both fields
// keep their raw JSON so messages can be forwarded untouched.
type ChatRequest struct {
	Model    gjson.Result
	Messages gjson.Result
}

// ParseChatRequest validates body as JSON and extracts model and messages.
// A well formed body that is not an object carries neither field.
func ParseChatRequest(body []byte) (*ChatRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, InvalidJSON(errInvalidBody(body))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return &ChatRequest{}, nil
	}
	// a repeated key resolves to its last occurrence
	req := &ChatRequest{}
	root.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "model":
			req.Model = value
		case "messages":
			req.Messages = value
		}
		return true
	})
	return req, nil
}

// SanitizeModel replaces model names belonging to another provider with
// fallback. Matching is case-insensitive.
func SanitizeModel(model, fallback string) string {
	if strings.Contains(strings.ToLower(model), "gemini") {
		return fallback
	}
	return model
}

// resolveModel returns the value to forward as "model". raw is true when a
// non-string, truthy value is forwarded unchanged as JSON.
func resolveModel(m gjson.Result, fallback string) (value string, raw bool) {
	switch m.Type {
	case gjson.String:
		if s := SanitizeModel(m.Str, fallback); s != "" {
			return s, false
		}
	case gjson.Number:
		if m.Num != 0 {
			return m.Raw, true
		}
	case gjson.True, gjson.JSON:
		return m.Raw, true
	}
	return fallback, false
}

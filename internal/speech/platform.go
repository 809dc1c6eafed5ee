// Package speech adapts a host text-to-speech capability to a few plain
// calls: list voices, group them by locale, speak and stop.
package speech

// Voice is a platform voice snapshot
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	URI     string `json:"uri,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// Utterance is one request to speak
type Utterance struct {
	Text  string
	Voice *Voice
	Lang  string
	Rate  float64
	Pitch float64
}

// Platform is the host speech capability. Implementations must be safe for
// concurrent use.
type Platform interface {
	// Voices returns the voices known right now, possibly none yet
	Voices() []Voice
	Speak(u Utterance) error
	// Cancel stops the current utterance, if any
	Cancel()
	// OnVoicesChanged registers fn for the next voice list changes and
	// returns a function that unregisters it
	OnVoicesChanged(fn func()) (unsubscribe func())
}

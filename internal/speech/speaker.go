package speech

import (
	"time"

	"github.com/go-coders/groq-relay/pkg/logger"
)

const (
	DefaultLang   = "en-US"
	DefaultRate   = 1.0
	DefaultPitch  = 1.0
	VoicesTimeout = 2 * time.Second
)

// Speaker wraps an optional Platform. A nil platform means speech is not
// supported: voice queries return nothing and speak calls do nothing.
type Speaker struct {
	platform      Platform
	voicesTimeout time.Duration
}

// Option configures a Speaker
type Option func(*Speaker)

// WithVoicesTimeout overrides how long AvailableVoices waits for the
// platform to announce its voices
func WithVoicesTimeout(d time.Duration) Option {
	return func(s *Speaker) { s.voicesTimeout = d }
}

// NewSpeaker creates a Speaker over p, which may be nil
func NewSpeaker(p Platform, opts ...Option) *Speaker {
	s := &Speaker{platform: p, voicesTimeout: VoicesTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supported reports whether a platform is present
func (s *Speaker) Supported() bool {
	return s.platform != nil
}

// AvailableVoices returns the platform voices. When none are loaded yet it
// waits for whichever comes first, a voices-changed notification or the
// timeout, and returns what the platform reports at that moment.
func (s *Speaker) AvailableVoices() []Voice {
	if s.platform == nil {
		return []Voice{}
	}

	// subscribe before the first look so a load landing in between is seen
	changed := make(chan struct{}, 1)
	unsubscribe := s.platform.OnVoicesChanged(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if voices := s.platform.Voices(); len(voices) > 0 {
		return voices
	}

	timer := time.NewTimer(s.voicesTimeout)
	defer timer.Stop()

	select {
	case <-changed:
	case <-timer.C:
		logger.Debug("speech: no voices-changed event after %s", s.voicesTimeout)
	}

	voices := s.platform.Voices()
	if voices == nil {
		return []Voice{}
	}
	return voices
}

// CategorizedVoices groups AvailableVoices into Hindi, Indian English and
// everything else
func (s *Speaker) CategorizedVoices() Categories {
	return Categorize(s.AvailableVoices())
}

// SpeakOptions are the optional parts of SpeakText
type SpeakOptions struct {
	Voice *Voice
	// Rate defaults to 1.0
	Rate float64
	// Lang is used when Voice is nil or has no language; defaults to en-US
	Lang string
}

// SpeakText stops whatever is playing and speaks text
func (s *Speaker) SpeakText(text string, opts SpeakOptions) error {
	if s.platform == nil {
		logger.Warn("Text-to-speech not supported.")
		return nil
	}

	s.platform.Cancel()

	u := newUtterance(text, opts)
	logger.Debug("speech: speaking %d chars lang=%s rate=%.2f", len(text), u.Lang, u.Rate)
	return s.platform.Speak(u)
}

// StopSpeech cancels the current utterance
func (s *Speaker) StopSpeech() {
	if s.platform != nil {
		s.platform.Cancel()
	}
}

func newUtterance(text string, opts SpeakOptions) Utterance {
	lang := opts.Lang
	if lang == "" {
		lang = DefaultLang
	}
	rate := opts.Rate
	if rate == 0 {
		rate = DefaultRate
	}

	u := Utterance{Text: text, Lang: lang, Rate: rate, Pitch: DefaultPitch}
	if opts.Voice != nil {
		v := *opts.Voice
		u.Voice = &v
		if v.Lang != "" {
			u.Lang = v.Lang
		}
	}
	return u
}

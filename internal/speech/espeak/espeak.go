// Package espeak implements speech.Platform on top of the espeak-ng command
// line synthesizer.
package espeak

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/go-coders/groq-relay/internal/speech"
	"github.com/go-coders/groq-relay/pkg/logger"
)

const (
	DefaultBinary = "espeak-ng"
	// espeak-ng speaks at 175 words per minute and pitch 50 by default;
	// these correspond to rate 1.0 and pitch 1.0
	baseWPM   = 175
	basePitch = 50
)

var ErrNotInstalled = errors.New("espeak-ng not found in PATH")

// Platform drives espeak-ng. The voice list starts empty and is filled by
// Start in the background, after which voices-changed handlers fire.
type Platform struct {
	binary string

	mu       sync.Mutex
	voices   []speech.Voice
	handlers map[int]func()
	nextID   int
	current  *exec.Cmd
	done     chan struct{}
}

// New creates a Platform using binary, or espeak-ng from PATH when empty
func New(binary string) *Platform {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Platform{binary: binary, handlers: map[int]func(){}}
}

// Available looks up the espeak-ng binary
func Available(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	return path, nil
}

// Start loads the voice list in the background
func (p *Platform) Start(ctx context.Context) {
	go func() {
		out, err := exec.CommandContext(ctx, p.binary, "--voices").Output()
		if err != nil {
			logger.Warn("espeak: list voices: %v", err)
			return
		}
		voices, err := ParseVoices(bytes.NewReader(out))
		if err != nil {
			logger.Warn("espeak: parse voices: %v", err)
			return
		}
		p.setVoices(voices)
	}()
}

func (p *Platform) setVoices(voices []speech.Voice) {
	p.mu.Lock()
	p.voices = voices
	handlers := make([]func(), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	logger.Debug("espeak: loaded %d voices", len(voices))
	for _, h := range handlers {
		h()
	}
}

func (p *Platform) Voices() []speech.Voice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]speech.Voice(nil), p.voices...)
}

func (p *Platform) OnVoicesChanged(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

// Speak starts one espeak-ng process for u and returns without waiting
func (p *Platform) Speak(u speech.Utterance) error {
	cmd := exec.Command(p.binary, Args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start espeak-ng: %w", err)
	}
	done := make(chan struct{})
	p.current, p.done = cmd, done

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && cmd.ProcessState != nil && !cmd.ProcessState.Exited() {
			logger.Debug("espeak: utterance interrupted: %v", err)
		} else if err != nil {
			logger.Warn("espeak: %v: %s", err, strings.TrimSpace(stderr.String()))
		}
		p.mu.Lock()
		if p.current == cmd {
			p.current, p.done = nil, nil
		}
		p.mu.Unlock()
	}()
	return nil
}

// Cancel kills the running utterance, if any
func (p *Platform) Cancel() {
	p.mu.Lock()
	cmd, done := p.current, p.done
	p.current, p.done = nil, nil
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	<-done
}

// Wait blocks until the current utterance finishes or ctx is done
func (p *Platform) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Args builds the espeak-ng arguments for u. Text goes through stdin.
func Args(u speech.Utterance) []string {
	voice := strings.ToLower(u.Lang)
	if u.Voice != nil && u.Voice.URI != "" {
		voice = u.Voice.URI
	}
	if voice == "" {
		voice = strings.ToLower(speech.DefaultLang)
	}
	rate, pitch := u.Rate, u.Pitch
	if rate <= 0 {
		rate = speech.DefaultRate
	}
	if pitch <= 0 {
		pitch = speech.DefaultPitch
	}
	return []string{
		"-v", voice,
		"-s", strconv.Itoa(int(math.Round(baseWPM * rate))),
		"-p", strconv.Itoa(clamp(int(math.Round(basePitch*pitch)), 0, 99)),
		"--stdin",
	}
}

// ParseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
func ParseVoices(r io.Reader) ([]speech.Voice, error) {
	var voices []speech.Voice
	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			if strings.HasPrefix(line, "Pty") {
				continue
			}
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, fmt.Errorf("unexpected voice line %q", line)
		}
		voices = append(voices, speech.Voice{
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: NormalizeLang(fields[1]),
			URI:  fields[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return voices, nil
}

// NormalizeLang converts espeak tags to BCP 47 casing: en-in → en-IN
func NormalizeLang(tag string) string {
	parts := strings.Split(tag, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 2 {
			parts[i] = strings.ToUpper(parts[i])
		}
	}
	return strings.Join(parts, "-")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

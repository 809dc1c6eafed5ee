package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-coders/groq-relay/internal/speech"
	"github.com/go-coders/groq-relay/internal/speech/espeak"
	"github.com/go-coders/groq-relay/pkg/logger"
	"github.com/go-coders/groq-relay/pkg/util"
)

type options struct {
	list   bool
	text   string
	voice  string
	rate   float64
	lang   string
	binary string
	debug  bool
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.list, "list", false, "list voices grouped as Hindi, Indian English and others")
	flag.StringVar(&o.text, "text", "", "text to speak")
	flag.StringVar(&o.voice, "voice", "", "voice name (case-insensitive substring)")
	flag.Float64Var(&o.rate, "rate", speech.DefaultRate, "speaking rate, 1.0 is normal")
	flag.StringVar(&o.lang, "lang", speech.DefaultLang, "language tag used when no voice is chosen")
	flag.StringVar(&o.binary, "espeak", espeak.DefaultBinary, "espeak-ng binary")
	flag.BoolVar(&o.debug, "debug", false, "enable debug logging")
	flag.Parse()
	return o
}

// newSpeaker returns a speaker over espeak-ng, or an unsupported one when
// the binary is missing
func newSpeaker(ctx context.Context, binary string) (*speech.Speaker, *espeak.Platform) {
	path, err := espeak.Available(binary)
	if err != nil {
		logger.Debug("speech: %v", err)
		return speech.NewSpeaker(nil), nil
	}
	p := espeak.New(path)
	p.Start(ctx)
	return speech.NewSpeaker(p), p
}

func printVoices(printer *util.Printer, c speech.Categories) {
	groups := []struct {
		title  string
		voices []speech.Voice
	}{
		{"Hindi", c.Hindi},
		{"Indian English", c.IndianEnglish},
		{"Others", c.Others},
	}
	for _, g := range groups {
		printer.PrintTitle(fmt.Sprintf("%s (%d)", g.title, len(g.voices)), util.EmojiVoice)
		rows := make([][]string, 0, len(g.voices))
		for _, v := range g.voices {
			rows = append(rows, []string{v.Name, v.Lang, v.URI})
		}
		printer.PrintTable([]string{"NAME", "LANG", "ID"}, rows)
	}
}

func findVoice(voices []speech.Voice, name string) *speech.Voice {
	name = strings.ToLower(name)
	for i := range voices {
		if strings.Contains(strings.ToLower(voices[i].Name), name) {
			return &voices[i]
		}
	}
	return nil
}

func run(ctx context.Context, o options, printer *util.Printer) error {
	speaker, platform := newSpeaker(ctx, o.binary)
	if !speaker.Supported() {
		printer.PrintWarning("espeak-ng not found; speech is unavailable")
	}

	if o.list {
		printVoices(printer, speaker.CategorizedVoices())
	}
	if o.text == "" {
		return nil
	}

	opts := speech.SpeakOptions{Rate: o.rate, Lang: o.lang}
	if o.voice != "" {
		if opts.Voice = findVoice(speaker.AvailableVoices(), o.voice); opts.Voice == nil {
			return fmt.Errorf("no voice matching %q", o.voice)
		}
	}
	printer.PrintTitle("Speaking", util.EmojiSpeaker)
	printer.Printf("%s\n", o.text)
	if err := speaker.SpeakText(o.text, opts); err != nil {
		return err
	}
	if platform == nil {
		return nil
	}

	if err := platform.Wait(ctx); err != nil {
		speaker.StopSpeech()
		return nil
	}
	printer.PrintSuccess("done")
	return nil
}

func main() {
	o := parseFlags()
	printer := util.NewPrinter(os.Stdout)

	if err := logger.Init(logger.Options{Debug: o.debug, Output: os.Stderr}); err != nil {
		printer.PrintError(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, printer); err != nil {
		printer.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

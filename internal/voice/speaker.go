// Package voice adapts speech output and capture to the terminal
// client. Output prefers server-side synthesis and falls back to a
// local TTS command; capture is a pluggable control handle so platforms
// without a recognizer degrade to typed answers.
package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Sentence-level prosody variation for the local fallback, cycled per
// chunk so longer passages sound less robotic. Rates are words per
// minute, pitch is the espeak 0-99 scale.
var (
	varyRate  = []int{158, 164, 160, 166}
	varyPitch = []int{49, 50, 52, 51}
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// ChunkSentences splits text into sentence-sized pieces for the
// fallback synthesizer. Single-sentence text comes back whole.
func ChunkSentences(text string) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(t, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) <= 1 {
		return []string{t}
	}
	return out
}

// TTSClient produces audio bytes for text. The API client implements it.
type TTSClient interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Speaker reads questions and feedback aloud. Remote synthesis is
// tried first; on any failure the local synth command takes over.
type Speaker struct {
	tts       TTSClient
	voice     string
	playerCmd []string
	synthCmd  string
	log       zerolog.Logger

	mu       sync.Mutex
	speaking bool
}

// NewSpeaker builds a speaker. tts may be nil (offline mode), in which
// case only the local command is used. playerCmd plays an MP3 file
// passed as its final argument; synthCmd is "say" or "espeak".
func NewSpeaker(tts TTSClient, voiceName string, playerCmd []string, synthCmd string, log zerolog.Logger) *Speaker {
	if synthCmd == "" {
		synthCmd = defaultSynthCommand()
	}
	if len(playerCmd) == 0 {
		playerCmd = defaultPlayerCommand()
	}
	return &Speaker{
		tts:       tts,
		voice:     voiceName,
		playerCmd: playerCmd,
		synthCmd:  synthCmd,
		log:       log.With().Str("component", "voice").Logger(),
	}
}

func defaultSynthCommand() string {
	for _, cmd := range []string{"say", "espeak"} {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

func defaultPlayerCommand() []string {
	for _, cmd := range [][]string{{"afplay"}, {"mpg123", "-q"}, {"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}} {
		if _, err := exec.LookPath(cmd[0]); err == nil {
			return cmd
		}
	}
	return nil
}

// IsSpeaking reports whether a Speak call is in flight. Speak refuses
// to overlap.
func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *Speaker) setSpeaking(v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v && s.speaking {
		return false
	}
	s.speaking = v
	return true
}

// Speak voices text, blocking until playback finishes. A second call
// while one is active is dropped.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.setSpeaking(true) {
		return nil
	}
	defer s.setSpeaking(false)

	if s.tts != nil && len(s.playerCmd) > 0 {
		if err := s.speakRemote(ctx, text); err == nil {
			return nil
		} else {
			s.log.Debug().Err(err).Msg("Remote TTS failed, using local synth")
		}
	}
	return s.speakLocal(ctx, text)
}

func (s *Speaker) speakRemote(ctx context.Context, text string) error {
	audio, err := s.tts.Synthesize(ctx, text, s.voice)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp("", "voxscholar-tts-*.mp3")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(audio); err != nil {
		f.Close()
		return err
	}
	f.Close()

	args := append(append([]string(nil), s.playerCmd[1:]...), f.Name())
	cmd := exec.CommandContext(ctx, s.playerCmd[0], args...)
	return cmd.Run()
}

func (s *Speaker) speakLocal(ctx context.Context, text string) error {
	if s.synthCmd == "" {
		return fmt.Errorf("no speech synthesis command available")
	}
	chunks := ChunkSentences(text)
	for i, chunk := range chunks {
		rate := varyRate[i%len(varyRate)]
		pitch := varyPitch[i%len(varyPitch)]

		var cmd *exec.Cmd
		switch s.synthCmd {
		case "say":
			cmd = exec.CommandContext(ctx, "say", "-r", fmt.Sprint(rate), chunk)
		default:
			cmd = exec.CommandContext(ctx, s.synthCmd,
				"-s", fmt.Sprint(rate), "-p", fmt.Sprint(pitch), chunk)
		}
		if err := cmd.Run(); err != nil {
			return err
		}
	}
	return nil
}

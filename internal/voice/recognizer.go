package voice

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// ErrRecognizerUnsupported is returned when no speech capture backend
// is available; callers fall back to typed answers.
var ErrRecognizerUnsupported = errors.New("speech recognition not supported")

// Recognizer is a control handle over a speech capture backend. Start
// begins capture; each committed utterance is delivered to onFinal.
// Errors other than a deliberate Stop reach onErr. Stop tears the
// capture down cleanly and must be safe to call more than once.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context, onFinal func(chunk string), onErr func(error)) error
	Stop()
}

// Unsupported is the degraded recognizer for platforms without a
// capture command. Start fails immediately.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Start(context.Context, func(string), func(error)) error {
	return ErrRecognizerUnsupported
}

func (Unsupported) Stop() {}

// CommandRecognizer runs an external transcription command and treats
// every line it prints as one final transcript chunk. Any local
// streaming STT binary that writes utterances line by line fits.
type CommandRecognizer struct {
	command []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
}

func NewCommandRecognizer(command []string) *CommandRecognizer {
	return &CommandRecognizer{command: command}
}

func (r *CommandRecognizer) Supported() bool {
	if len(r.command) == 0 {
		return false
	}
	_, err := exec.LookPath(r.command[0])
	return err == nil
}

func (r *CommandRecognizer) Start(ctx context.Context, onFinal func(chunk string), onErr func(error)) error {
	if !r.Supported() {
		return ErrRecognizerUnsupported
	}

	r.mu.Lock()
	if r.cmd != nil {
		r.mu.Unlock()
		return errors.New("recognizer already running")
	}
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cmd = cmd
	r.stopped = false
	r.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			onFinal(line)
		}
		err := cmd.Wait()

		r.mu.Lock()
		aborted := r.stopped || ctx.Err() != nil
		r.cmd = nil
		r.mu.Unlock()

		// A kill triggered by Stop or context cancellation is a clean
		// teardown, not a capture failure.
		if err != nil && !aborted && onErr != nil {
			onErr(err)
		}
	}()
	return nil
}

func (r *CommandRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd == nil || r.stopped {
		return
	}
	r.stopped = true
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
}

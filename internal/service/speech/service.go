// Package speech reads assistant replies aloud: it cleans the text, fetches
// synthesised audio from the backend and plays it with a local player.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/model/speech"
)

// DefaultPlayerCommand plays a file and exits when playback ends.
const DefaultPlayerCommand = "ffplay -nodisp -autoexit -loglevel quiet"

var ErrNoPlayer = errors.New("audio player command is empty")

var (
	codeFence = regexp.MustCompile("(?s)```.*?```")
	htmlTag   = regexp.MustCompile(`<[^>]*>`)
	webLink   = regexp.MustCompile(`http\S+`)
)

// CleanText prepares a reply for speech: code blocks are announced instead
// of read, tags and links are dropped.
func CleanText(text string) string {
	text = codeFence.ReplaceAllString(text, "Code block")
	text = htmlTag.ReplaceAllString(text, "")
	text = webLink.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string) ([]byte, string, error)
}

// Player plays an audio file and returns when playback ends or ctx is canceled.
type Player interface {
	Play(ctx context.Context, path string) error
}

// ExecPlayer runs an external command with the audio path appended.
type ExecPlayer struct {
	Command string
}

// Play implements Player.
func (p ExecPlayer) Play(ctx context.Context, path string) error {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return ErrNoPlayer
	}
	args := append(fields[1:len(fields):len(fields)], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %s: %w", fields[0], err)
	}
	return nil
}

type playback struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Service speaks one clip at a time. Starting a new clip stops the previous one.
type Service struct {
	synth  Synthesizer
	player Player
	tmpDir string
	logger *zap.Logger

	mu      sync.Mutex
	current *playback
	// gen advances on every Stop; a clip fetched under an older gen is dropped.
	gen uint64
}

// NewService wires a synthesizer to a player. tmpDir holds clips while they
// play; empty means the OS temp dir.
func NewService(synth Synthesizer, player Player, tmpDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{synth: synth, player: player, tmpDir: tmpDir, logger: logger}
}

// Speak stops current playback, fetches audio for text and starts playing it
// in the background. Text that is blank after cleaning is not spoken.
func (s *Service) Speak(ctx context.Context, text string) error {
	gen := s.interrupt()

	clean := CleanText(text)
	if clean == "" {
		return nil
	}

	audio, contentType, err := s.synth.Speak(ctx, clean)
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}
	clip := speech.Clip{Audio: audio, ContentType: contentType}
	if clip.Empty() {
		s.logger.Warn("speech endpoint returned no audio")
		return nil
	}

	path, err := s.writeClip(clip)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		os.Remove(path)
		s.logger.Debug("speech interrupted before playback")
		return nil
	}
	s.stopLocked()
	playCtx, cancel := context.WithCancel(context.Background())
	pb := &playback{cancel: cancel, done: make(chan struct{})}
	s.current = pb
	s.mu.Unlock()

	go func() {
		defer close(pb.done)
		defer os.Remove(path)
		defer cancel()
		if err := s.player.Play(playCtx, path); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("audio playback failed", zap.String("file", path), zap.Error(err))
		}
	}()
	return nil
}

// Stop interrupts playback and waits until the player has exited. Clips
// still being fetched when Stop is called are never played.
func (s *Service) Stop() {
	s.interrupt()
}

func (s *Service) interrupt() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
	return s.gen
}

func (s *Service) stopLocked() {
	if s.current == nil {
		return
	}
	s.current.cancel()
	<-s.current.done
	s.current = nil
}

// Wait blocks until the current clip finishes playing or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	pb := s.current
	s.mu.Unlock()
	if pb == nil {
		return nil
	}
	select {
	case <-pb.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) writeClip(clip speech.Clip) (string, error) {
	f, err := os.CreateTemp(s.tmpDir, "shanvika-speech-*"+clip.Extension())
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(clip.Audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return f.Name(), nil
}

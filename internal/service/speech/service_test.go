package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Here:\n```go\nfmt.Println(1)\n```\nDone", want: "Here:\nCode block\nDone"},
		{in: `<div class="glass">Your <b>QR</b> is ready</div>`, want: "Your QR is ready"},
		{in: "See https://example.com/a?b=c for more", want: "See  for more"},
		{in: "<img src=\"x.png\">", want: ""},
		{in: "   ", want: ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanText(tc.in))
	}
}

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	audio []byte
	err   error
	// gate, when set, is signalled on entry and then waited on before returning.
	gate chan struct{}
}

func (f *fakeSynth) Speak(ctx context.Context, text string) ([]byte, string, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	audio, err, gate := f.audio, f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		gate <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	return audio, "audio/mp3", err
}

// blockingPlayer plays until canceled or released.
type blockingPlayer struct {
	mu      sync.Mutex
	paths   []string
	started chan string
	release chan struct{}
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{started: make(chan string, 4), release: make(chan struct{})}
}

func (p *blockingPlayer) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	p.started <- path
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return nil
	}
}

func waitPath(t *testing.T, p *blockingPlayer) string {
	t.Helper()
	select {
	case path := <-p.started:
		return path
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not start")
		return ""
	}
}

func TestSpeakPlaysAndRemovesClip(t *testing.T) {
	synth := &fakeSynth{audio: []byte("ID3\x04\x00\x00\x00\x00\x00\x00audio")}
	player := newBlockingPlayer()
	svc := NewService(synth, player, t.TempDir(), zap.NewNop())

	require.NoError(t, svc.Speak(context.Background(), "Hello <b>there</b> https://x.y"))
	path := waitPath(t, player)

	assert.Equal(t, []string{"Hello there"}, synth.texts)
	assert.Equal(t, ".mp3", filepath.Ext(path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	close(player.release)
	require.NoError(t, svc.Wait(context.Background()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSpeakStopsPreviousClip(t *testing.T) {
	synth := &fakeSynth{audio: []byte("audio")}
	player := newBlockingPlayer()
	svc := NewService(synth, player, t.TempDir(), zap.NewNop())

	require.NoError(t, svc.Speak(context.Background(), "first"))
	first := waitPath(t, player)

	require.NoError(t, svc.Speak(context.Background(), "second"))
	waitPath(t, player)

	_, err := os.Stat(first)
	assert.True(t, os.IsNotExist(err), "first clip should be removed once stopped")

	svc.Stop()
	assert.NoError(t, svc.Wait(context.Background()))
}

func TestStopDuringSynthesisDropsClip(t *testing.T) {
	synth := &fakeSynth{audio: []byte("audio"), gate: make(chan struct{})}
	player := newBlockingPlayer()
	dir := t.TempDir()
	svc := NewService(synth, player, dir, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- svc.Speak(context.Background(), "late reply") }()

	select {
	case <-synth.gate:
	case <-time.After(2 * time.Second):
		t.Fatal("synthesis did not start")
	}
	svc.Stop()
	synth.gate <- struct{}{}

	require.NoError(t, <-done)
	assert.NoError(t, svc.Wait(context.Background()))
	select {
	case path := <-player.started:
		t.Fatalf("clip %s played after Stop", path)
	default:
	}
	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "dropped clip should be removed")
}

func TestSpeakSkipsBlankText(t *testing.T) {
	synth := &fakeSynth{audio: []byte("audio")}
	svc := NewService(synth, newBlockingPlayer(), t.TempDir(), nil)

	require.NoError(t, svc.Speak(context.Background(), "<div></div>"))
	assert.Empty(t, synth.texts)
}

func TestSpeakSynthesisError(t *testing.T) {
	synth := &fakeSynth{err: errors.New("500")}
	svc := NewService(synth, newBlockingPlayer(), t.TempDir(), zap.NewNop())

	assert.Error(t, svc.Speak(context.Background(), "hello"))
}

func TestStopWithoutPlayback(t *testing.T) {
	svc := NewService(&fakeSynth{}, newBlockingPlayer(), "", zap.NewNop())
	svc.Stop()
	assert.NoError(t, svc.Wait(context.Background()))
}

func TestExecPlayerEmptyCommand(t *testing.T) {
	assert.ErrorIs(t, ExecPlayer{}.Play(context.Background(), "x.mp3"), ErrNoPlayer)
}

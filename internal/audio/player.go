// Package audio fetches and plays the voice payload that accompanies an
// assistant message.
package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"ai-companion-chat/client/pkg/logger"
)

// Player renders a fetched voice payload. Stop must be safe to call from a
// different goroutine than Play, and after Play returned.
type Player interface {
	Play(ctx context.Context, messageID string, data []byte) error
	Stop()
}

// NopPlayer discards payloads; used when voice output is disabled.
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, string, []byte) error { return nil }
func (NopPlayer) Stop()                                      {}

// FilePlayer writes each payload under a directory so an external player
// can pick it up; actual audio device I/O stays out of this process.
type FilePlayer struct {
	Dir string
	Log *logger.Logger

	mu       sync.Mutex
	stopped  bool
	lastPath string
}

// Play writes the payload to <dir>/<messageID>.mp3
func (p *FilePlayer) Play(ctx context.Context, messageID string, data []byte) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil
	}

	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return err
	}
	path := filepath.Join(p.Dir, messageID+".mp3")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastPath = path
	p.mu.Unlock()

	if p.Log != nil {
		p.Log.Debug("voice payload written", "path", path, "bytes", len(data))
	}
	return nil
}

// Stop marks the player stopped; in-flight payloads are dropped
func (p *FilePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

// LastPath returns where the most recent payload landed
func (p *FilePlayer) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPath
}

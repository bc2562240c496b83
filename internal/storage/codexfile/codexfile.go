// Package codexfile provides a file-backed [canon.CodexProvider]: the codex
// is read from a YAML document on disk and re-read when the file changes, so
// edits made between scans take effect without a restart.
//
// Change detection is mtime-first with a SHA-256 content check behind it, so
// touching the file without changing it does not trigger a re-parse, and a
// temporarily invalid file keeps serving the last valid codex.
package codexfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/canonry/internal/observe"
	"github.com/MrWong99/canonry/pkg/canon"
)

// Compile-time interface check.
var _ canon.CodexProvider = (*Provider)(nil)

// Provider serves one codex document from a YAML file. It is safe for
// concurrent use. A Provider with an empty path reports "no codex".
type Provider struct {
	path string

	mu        sync.Mutex
	current   *canon.Codex
	loaded    bool
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// New returns a [Provider] reading from path. The file is read lazily on the
// first [Provider.Codex] call.
func New(path string) *Provider {
	return &Provider{path: path}
}

// Codex implements [canon.CodexProvider]. The campaignID is ignored; a file
// provider serves a single campaign's codex.
//
// A missing file means "no codex" (nil, nil). A file that fails to parse is
// an error on first load; on reload the last valid codex is served instead
// and the failure is logged.
func (p *Provider) Codex(ctx context.Context, campaignID string) (*canon.Codex, error) {
	if p.path == "" {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("codexfile: stat %q: %w", p.path, err)
	}

	if p.loaded && info.ModTime().Equal(p.lastMtime) {
		return p.current, nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("codexfile: read %q: %w", p.path, err)
	}

	hash := sha256.Sum256(data)
	if p.loaded && hash == p.lastHash {
		// File was touched but content is identical.
		p.lastMtime = info.ModTime()
		return p.current, nil
	}

	codex, err := canon.LoadCodexFromReader(bytes.NewReader(data))
	if err != nil {
		if p.loaded {
			observe.Logger(ctx).Warn("codex reload failed, keeping previous version",
				"path", p.path, "err", err)
			return p.current, nil
		}
		return nil, fmt.Errorf("codexfile: parse %q: %w", p.path, err)
	}

	if p.loaded {
		observe.Logger(ctx).Info("codex reloaded", "path", p.path)
	}
	p.current = codex
	p.loaded = true
	p.lastMtime = info.ModTime()
	p.lastHash = hash
	return p.current, nil
}

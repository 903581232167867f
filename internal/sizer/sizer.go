// Package sizer computes on-disk directory sizes for bundle and dependency
// checks.
package sizer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the number of cached directory sizes. Watch mode probes
// the same two or three directories after every rebuild.
const cacheSize = 64

type cachedSize struct {
	bytes   int64
	modTime time.Time
}

// Prober measures directory sizes, caching results by the root's mtime.
// Bundlers rewrite their output directory on every emit, which refreshes the
// root mtime and invalidates the cached entry.
type Prober struct {
	cache *lru.Cache[string, cachedSize]
	mu    sync.Mutex
}

// NewProber creates a Prober with an empty cache.
func NewProber() (*Prober, error) {
	cache, err := lru.New[string, cachedSize](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create size cache: %w", err)
	}
	return &Prober{cache: cache}, nil
}

// DirSize returns the total size in bytes of all regular files under path.
// A missing or unreadable root is an error; unreadable entries below the
// root are skipped.
func (p *Prober) DirSize(ctx context.Context, path string) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolve absolute path: %w", err)
	}

	rootInfo, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !rootInfo.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", absPath)
	}

	p.mu.Lock()
	if entry, ok := p.cache.Get(absPath); ok && entry.modTime.Equal(rootInfo.ModTime()) {
		p.mu.Unlock()
		return entry.bytes, nil
	}
	p.mu.Unlock()

	var total int64
	err = filepath.WalkDir(absPath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip entries we can't access below the root
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", absPath, err)
	}

	p.mu.Lock()
	p.cache.Add(absPath, cachedSize{bytes: total, modTime: rootInfo.ModTime()})
	p.mu.Unlock()

	return total, nil
}

// Package ledger persists the set of already-ingested URLs, guaranteeing
// at-most-one paid extraction per link across runs.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FileLedger is an append-only newline-delimited URL log mirrored in memory.
// Membership only ever grows: Add appends durably and then updates the
// in-memory set under the write lock, so a concurrent Has never observes a
// partial write. A missing or corrupt file loads as an empty set; losing the
// ledger only means some links get re-extracted, which is safe.
type FileLedger struct {
	mu     sync.RWMutex
	file   *os.File
	seen   map[string]struct{}
	logger *zap.Logger
}

// Open loads the ledger at path, creating it (and its directory) if needed.
func Open(path string, logger *zap.Logger) (*FileLedger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url == "" {
			continue
		}
		seen[url] = struct{}{}
		lines++
	}
	if err := scanner.Err(); err != nil {
		// a torn tail write is not fatal; everything scanned so far counts
		logger.Warn("ledger scan stopped early", zap.String("path", path), zap.Error(err))
	}
	logger.Info("processed-link ledger loaded", zap.String("path", path), zap.Int("links", lines))

	return &FileLedger{
		file:   file,
		seen:   seen,
		logger: logger,
	}, nil
}

// Has reports whether the URL was already ingested.
func (l *FileLedger) Has(url string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[url]
	return ok
}

// Add durably appends the URL and updates the in-memory set. Adding an
// existing member is a no-op.
func (l *FileLedger) Add(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("ledger: empty url")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[url]; ok {
		return nil
	}
	if _, err := l.file.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	l.seen[url] = struct{}{}
	return nil
}

// Len returns the number of ledger members.
func (l *FileLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

// Close closes the underlying file.
func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Watcher polls the corpus directory for modified files. Polling keeps
// it portable; at docs-corpus scale a scan per interval is cheap.
type Watcher struct {
	dir      string
	sitemap  string
	interval time.Duration
	// OnChange receives the changed corpus-relative names. A sitemap
	// change is reported with its base name.
	onChange func(names []string)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	mtimes  map[string]time.Time
	started bool
}

func NewWatcher(dir, sitemap string, interval time.Duration, onChange func(names []string)) *Watcher {
	return &Watcher{
		dir:      dir,
		sitemap:  sitemap,
		interval: interval,
		onChange: onChange,
		mtimes:   make(map[string]time.Time),
	}
}

// scan walks the tree and returns the names whose mtime moved since the
// previous scan. The first scan only primes the state.
func (w *Watcher) scan() []string {
	seen := make(map[string]time.Time)
	_ = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(w.dir, path)
		if err != nil {
			return nil
		}
		seen[filepath.ToSlash(rel)] = info.ModTime()
		return nil
	})
	if info, err := os.Stat(w.sitemap); err == nil {
		seen[filepath.Base(w.sitemap)] = info.ModTime()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	prime := len(w.mtimes) == 0
	var changed []string
	for name, mtime := range seen {
		if prev, ok := w.mtimes[name]; !ok || !prev.Equal(mtime) {
			changed = append(changed, name)
		}
	}
	for name := range w.mtimes {
		if _, ok := seen[name]; !ok {
			changed = append(changed, name)
		}
	}
	w.mtimes = seen
	if prime {
		return nil
	}
	return changed
}

func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.scan()
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	logger := logutil.GetLogger(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed := w.scan()
			if len(changed) == 0 {
				continue
			}
			logger.Info("corpus changed", zap.Strings("files", changed))
			w.onChange(changed)
		}
	}
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done, started := w.cancel, w.done, w.started
	w.started = false
	w.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-done
}

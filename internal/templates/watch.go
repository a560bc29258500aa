package templates

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the template directory must stay quiet before
// Watch reloads it.
const DefaultDebounce = 300 * time.Millisecond

const watchTick = 100 * time.Millisecond

// Watch reloads the store whenever a template file in its directory is
// created, written, removed or renamed. Bursts of events are coalesced until
// the directory has been quiet for debounce. Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.logger.Info("watching templates", "dir", s.dir)

	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !IsSupported(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			if err := s.Reload(); err != nil {
				s.logger.Warn("template reload failed", "dir", s.dir, "err", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("template watch error", "err", err)
		}
	}
}

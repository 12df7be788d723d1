package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports when the data directory's JSON files change. Events are
// debounced so a batch export shows up as one notification.
type Watcher struct {
	dir      string
	debounce time.Duration
	interval time.Duration
	changes  chan struct{}
}

// NewWatcher creates a watcher for dir. interval is the backup polling
// period used when file system events are missed; zero selects 5 seconds.
func NewWatcher(dir string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		dir:      dir,
		debounce: 2 * time.Second,
		interval: interval,
		changes:  make(chan struct{}, 1),
	}
}

// Changes returns the notification channel. At most one notification is
// pending at a time.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run watches until the context is canceled. Subdirectories are watched
// too since exports land in per-day folders.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher); err != nil {
		return err
	}

	// Backup polling in case file events are missed
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		lastHash string
		pending  *time.Timer
		fire     <-chan time.Time
	)
	ld := &Loader{dir: w.dir}
	if lastHash, err = ld.DirectoryHash(); err != nil {
		return err
	}

	schedule := func() {
		if pending == nil {
			pending = time.NewTimer(w.debounce)
		} else {
			if !pending.Stop() {
				select {
				case <-pending.C:
				default:
				}
			}
			pending.Reset(w.debounce)
		}
		fire = pending.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				// A new subdirectory needs its own watch.
				if event.Op&fsnotify.Create == fsnotify.Create {
					watcher.Add(event.Name)
				}
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.dir, err)
		case <-ticker.C:
			hash, err := ld.DirectoryHash()
			if err != nil {
				continue
			}
			if hash != lastHash {
				lastHash = hash
				schedule()
			}
		case <-fire:
			fire = nil
			if hash, err := ld.DirectoryHash(); err == nil {
				lastHash = hash
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) addRecursive(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

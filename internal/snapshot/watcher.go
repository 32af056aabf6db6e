package snapshot

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"stemline/internal/logging"
)

const watchDebounce = 250 * time.Millisecond

// Watcher reloads the engine when another process rewrites the store file.
type Watcher struct {
	engine  *Engine
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher watches the store file reported by the engine's StorageInfo.
// Returns nil without error when the store has no on-disk location.
func NewWatcher(engine *Engine, logger *slog.Logger) (*Watcher, error) {
	info := engine.StorageInfo()
	if !info.Available {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(info.Path)); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		engine:  engine,
		logger:  logging.NewComponentLogger(logger, "snapshot-watch"),
		watcher: fw,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx, filepath.Base(info.Path))
	w.logger.Debug("watching snapshot store", logging.String(logging.FieldPath, info.Path))
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() {
	if w == nil {
		return
	}
	w.cancel()
	w.watcher.Close()
	<-w.done
}

// run selects on watcher channels and debounces store rewrites into a single
// reload. Temp files from our own atomic writes are ignored.
func (w *Watcher) run(ctx context.Context, fileName string) {
	defer close(w.done)

	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base != fileName || strings.Contains(base, ".tmp-") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(watchDebounce)
				fire = pending.C
			} else {
				pending.Reset(watchDebounce)
			}

		case <-fire:
			pending = nil
			fire = nil
			if err := w.engine.Reload(); err != nil {
				w.logger.Warn("reload after store change failed", logging.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("snapshot store watch error", logging.Error(err))
		}
	}
}

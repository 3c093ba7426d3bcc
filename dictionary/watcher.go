package dictionary

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls OnChange when a local dictionary file is written. Events are
// debounced so an editor's write-rename-chmod burst triggers one call.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   *zap.Logger
	timer    *time.Timer
	doneCh   chan struct{}
}

// NewWatcher watches the directory holding path, since editors commonly
// replace the file rather than write it in place.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context), logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("dictionary file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			w.schedule(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dictionary watcher error", zap.Error(err))
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.onChange(ctx)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

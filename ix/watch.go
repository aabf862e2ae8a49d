package ix

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/results"
)

// DefaultDebounce is the quiet period after the last write before a file is imported
const DefaultDebounce = 500 * time.Millisecond

// ImportFunc imports one result file by name
type ImportFunc func(ctx context.Context, name string) Result

// Watcher imports result files as the measurement tool writes them. Bursts of
// create/write events on one file collapse into a single import.
type Watcher struct {
	reader   *results.Reader
	handle   ImportFunc
	debounce time.Duration
	logger   *zap.SugaredLogger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// NewWatcher watches reader's directory, calling handle for each changed result file
func NewWatcher(reader *results.Reader, handle ImportFunc, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.ComponentLogger("ix.watch")
	}

	info, err := os.Stat(reader.Dir())
	if err != nil || !info.IsDir() {
		return nil, errors.NewNotFoundError("results directory %s does not exist", reader.Dir())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(reader.Dir()); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", reader.Dir())
	}

	return &Watcher{
		reader:   reader,
		handle:   handle,
		debounce: debounce,
		logger:   log,
		watcher:  fsw,
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string),
		done:     make(chan struct{}),
	}, nil
}

// Run blocks until ctx is cancelled. Imports run one at a time on the calling
// goroutine. A Watcher runs once; Run closes it on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	w.logger.Infow("Watching for result files",
		logger.FieldDir, w.reader.Dir(),
		"pattern", w.reader.Pattern(),
		"debounce_ms", w.debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.reader.Matches(name) {
				continue
			}
			w.logger.Debugw("Result file changed",
				logger.FieldFile, name,
				"op", event.Op.String())
			w.schedule(name)

		case name := <-w.ready:
			res := w.handle(ctx, name)
			if res.Success {
				w.logger.Infow("Auto-imported result file",
					logger.FieldFile, name,
					logger.FieldWritten, res.Stats.Written,
					logger.FieldBatchID, res.BatchID)
			} else {
				w.logger.Warnw("Auto-import failed",
					logger.FieldFile, name,
					logger.FieldWritten, res.Stats.Written,
					logger.FieldErrorKind, res.Kind(),
					logger.FieldError, res.Err())
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// schedule restarts the quiet period for name
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()

		select {
		case w.ready <- name:
		case <-w.done:
		}
	})
}

func (w *Watcher) stop() {
	close(w.done)

	w.mu.Lock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	w.mu.Unlock()

	w.watcher.Close()
}

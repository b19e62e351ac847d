package policy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gobeaver/uploadkit/filevalidator"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Debounce is the quiet period before a reload. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger receives reload results. Nil means slog.Default().
	Logger *slog.Logger
}

// Watcher serves the catalog parsed from a file and reloads it when the file
// changes. A file that fails to parse is logged and ignored; the last good
// catalog stays in service.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *slog.Logger

	current atomic.Pointer[Catalog]
	lastErr atomic.Pointer[error]

	mu    sync.Mutex
	token *callbackToken

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch loads path and starts watching it until ctx is cancelled or Close
// is called. It fails if the initial load fails.
func Watch(ctx context.Context, path string, opts WatchOptions) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cat, err := LoadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// The directory is watched rather than the file so that atomic
	// replace-by-rename saves are seen.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch policies: %w", err)
	}

	w := &Watcher{
		path:     abs,
		debounce: opts.Debounce,
		log:      opts.Logger,
		token:    newCallbackToken(),
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	w.current.Store(cat)
	w.log.Info("policies loaded", "path", abs, "policies", cat.Names())

	go w.run(ctx)
	return w, nil
}

// Catalog returns the catalog currently in service.
func (w *Watcher) Catalog() *Catalog {
	return w.current.Load()
}

// Lookup implements Source
func (w *Watcher) Lookup(name string) (filevalidator.Validator, bool) {
	return w.current.Load().Lookup(name)
}

// Names returns the names of the current policies, sorted.
func (w *Watcher) Names() []string {
	return w.Catalog().Names()
}

// Changes returns a token that fires on the next successful reload.
func (w *Watcher) Changes() ChangeToken {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.token
}

// LastError returns the error of the most recent failed reload, or nil if
// the most recent reload succeeded.
func (w *Watcher) LastError() error {
	if p := w.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("policy watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cat, err := LoadFile(w.path)
	if err != nil {
		w.lastErr.Store(&err)
		w.log.Warn("policy reload failed, keeping previous policies", "path", w.path, "error", err)
		return
	}
	w.lastErr.Store(nil)
	w.current.Store(cat)

	w.mu.Lock()
	fired := w.token
	w.token = newCallbackToken()
	w.mu.Unlock()

	w.log.Info("policies reloaded", "path", w.path, "policies", cat.Names())
	fired.signal()
}

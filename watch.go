package magic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Pool whenever one of its database files changes on
// disk.
//
// IMPORTANT: To stop the background goroutine you MUST either cancel the
// context passed to WatchDatabase or call Close.
type Watcher struct {
	pool    *Pool
	watcher *fsnotify.Watcher
	paths   map[string]struct{}
	opts    watchOptions

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// WatchOption configures a Watcher
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	onReload func(err error)
}

// WithDebounce sets how long the watcher waits after the last event before
// reloading. Editors and compilers often write a file in several steps.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// WithReloadCallback registers fn to run after every reload attempt
func WithReloadCallback(fn func(err error)) WatchOption {
	return func(o *watchOptions) {
		o.onReload = fn
	}
}

// WatchDatabase watches the database files loaded into pool. The pool must
// have been created with an explicit database; the engine's built-in
// default location is not watched.
func WatchDatabase(ctx context.Context, pool *Pool, options ...WatchOption) (*Watcher, error) {
	opts := watchOptions{debounce: 200 * time.Millisecond}
	for _, opt := range options {
		opt(&opts)
	}

	database := pool.Database()
	if database == "" {
		return nil, errors.New("magic: cannot watch the default database")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		pool:    pool,
		watcher: fw,
		paths:   make(map[string]struct{}),
		opts:    opts,
	}

	// Watch directories rather than files so that atomic replace-by-rename
	// keeps being observed.
	dirs := make(map[string]struct{})
	for _, p := range strings.Split(database, string(filepath.ListSeparator)) {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, &Error{Op: "watch", Path: dir, Message: err.Error()}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)

	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.debounce)
			} else {
				timer.Reset(w.opts.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.pool.logger.Warn("magic database watcher error", "error", err)

		case <-fire:
			fire = nil
			err := w.pool.Reload(ctx)
			if w.opts.onReload != nil {
				w.opts.onReload(err)
			}
		}
	}
}

// relevant reports whether event may have changed a watched database file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.paths[name]
	return ok
}

// Close stops watching. It does not close the Pool.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

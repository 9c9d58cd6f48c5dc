package plugin

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports filesystem changes inside the plugins directory.
// Changes never hot-reload anything: one plugin instance exists per
// enabled module per process lifetime. The host forwards change
// notifications to live plugins as the "plugins_changed" event.
type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	logger *zap.Logger

	events chan string

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher starts watching the plugins directory. The directory must
// exist.
func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		dir:    dir,
		logger: logger,
		events: make(chan string, 16),
		done:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Events returns the channel of changed candidate module names. The
// channel is closed when the watcher stops.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// run pumps fsnotify events into candidate-name notifications. run is
// the only sender on w.events and closes it on exit so consumers
// ranging over Events terminate when the watcher stops.
func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name, ok := w.candidateName(ev.Name)
			if !ok {
				continue
			}
			select {
			case w.events <- name:
			default:
				// A slow consumer only misses duplicates; the next
				// change will notify again.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugins directory watch error", zap.Error(err))
		}
	}
}

// candidateName maps a changed path to the candidate module it belongs
// to, applying the same skip rules as discovery.
func (w *Watcher) candidateName(path string) (string, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	name := rel
	if i := strings.IndexByte(rel, filepath.Separator); i >= 0 {
		name = rel[:i]
	}
	if name == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return "", false
	}
	return name, true
}

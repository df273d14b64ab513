package profile

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/racetagger/raceident/log"
)

// Watcher reloads a profile file when it changes on disk. The server uses
// this so that weight tuning does not require a restart.
type Watcher struct {
	path     string
	onChange func(*Profile)
	l        *log.Logger
}

type WatcherOption func(*Watcher)

func WithLogger(arg *log.Logger) WatcherOption {
	return func(w *Watcher) {
		w.l = arg
	}
}

func NewWatcher(path string, onChange func(*Profile), opts ...WatcherOption) *Watcher {
	ret := &Watcher{
		path:     path,
		onChange: onChange,
		l:        log.Default().Named("profile.watch"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Start blocks until ctx is done. Editors replace files on save, so the
// parent directory is watched instead of the file itself.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.l.Info("watching profile", log.String("path", w.path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.l.Warn("watch error", log.ErrorField(err))
		}
	}
}

func (w *Watcher) reload() {
	loaded, err := Load(w.path)
	if err != nil {
		// keep the active profile on broken edits
		w.l.Warn("profile reload failed", log.ErrorField(err))
		return
	}
	w.l.Info("profile reloaded",
		log.String("sport", loaded.Sport),
		log.String("schemaVersion", loaded.SchemaVersion))
	w.onChange(loaded)
}

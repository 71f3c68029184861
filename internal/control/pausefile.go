package control

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// PauseFileWatcher pauses the session while a sentinel file exists and
// resumes when it is removed. Intended for headless hosts where no control
// server or terminal is available.
type PauseFileWatcher struct {
	path    string
	plane   *Plane
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewPauseFileWatcher watches path and drives plane accordingly.
func NewPauseFileWatcher(path string, plane *Plane, logger *slog.Logger) (*PauseFileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the containing directory: the sentinel may not exist yet.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	pw := &PauseFileWatcher{
		path:    path,
		plane:   plane,
		logger:  logger,
		watcher: w,
		done:    make(chan struct{}),
	}

	// Apply current state before events start flowing.
	if _, err := os.Stat(path); err == nil {
		plane.Pause()
	}

	go pw.loop()
	return pw, nil
}

func (pw *PauseFileWatcher) loop() {
	for {
		select {
		case <-pw.done:
			return
		case ev, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(pw.path) {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Create):
				pw.logger.Info("pause file created, pausing session", "path", pw.path)
				pw.plane.Pause()
			case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
				pw.logger.Info("pause file removed, resuming session", "path", pw.path)
				pw.plane.Resume()
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn("pause file watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (pw *PauseFileWatcher) Close() error {
	close(pw.done)
	return pw.watcher.Close()
}

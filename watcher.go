package sss

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const DefaultInboxDebounce = 300 * time.Millisecond

// InboxWatcher reports changes to a candidate file. Bursts of writes are
// folded into one call once the file has been quiet for Debounce.
type InboxWatcher struct {
	Path     string
	Debounce time.Duration
	Log      logrus.FieldLogger
	watcher  *fsnotify.Watcher
}

// NewInboxWatcher watches the directory holding path so that editors which
// replace the file are seen too.
func NewInboxWatcher(path string, debounce time.Duration, log logrus.FieldLogger) (*InboxWatcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if debounce <= 0 {
		debounce = DefaultInboxDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("Failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("Failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &InboxWatcher{Path: abs, Debounce: debounce, Log: log.WithField("inbox", abs), watcher: w}, nil
}

// Run calls fn from the calling goroutine after each burst of changes until
// ctx is done. Calls never overlap.
func (w *InboxWatcher) Run(ctx context.Context, fn func(path string)) error {
	defer w.watcher.Close()
	w.Log.Info("Watching inbox")

	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Log.Info("Inbox watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.Debounce)

		case <-timer.C:
			w.Log.Debug("Inbox changed")
			fn(w.Path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Log.WithError(err).Warn("Inbox watcher error")
		}
	}
}

package scene

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a scene file when it changes on disk and hands the parsed
// description to the frame loop. Only the newest description is kept.
type Watcher struct {
	log  *zap.Logger
	path string
	fs   *fsnotify.Watcher

	updates chan *Description
}

// NewWatcher starts watching the directory containing path. Editors often
// replace files instead of writing them, so the file itself is not watched.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	if _, err := FormatFor(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scene watcher: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scene watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("scene watcher: watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		log:     log,
		path:    abs,
		fs:      fsw,
		updates: make(chan *Description, 1),
	}, nil
}

// Updates delivers reloaded descriptions. Poll it without blocking from the
// frame loop.
func (w *Watcher) Updates() <-chan *Description {
	return w.updates
}

// Run processes file events until ctx is cancelled. Parse failures are
// logged and skipped so a half-saved file does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			desc, err := Load(w.path)
			if err != nil {
				w.log.Warn("scene reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.publish(desc)
			w.log.Info("scene reloaded", zap.String("path", w.path), zap.Int("items", len(desc.Items)))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("scene watcher error", zap.Error(err))
		}
	}
}

// publish replaces any description the frame loop has not picked up yet.
func (w *Watcher) publish(desc *Description) {
	for {
		select {
		case w.updates <- desc:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}

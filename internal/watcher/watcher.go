// Package watcher reports media file changes under the library roots.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/fsnotify/fsnotify"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

type Handler interface {
	HandleFileEvent(event FileEvent) error
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	recursive bool
	logger    *logging.Logger
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		recursive: true,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if w.recursive {
			if err := w.addRecursive(path); err != nil {
				return err
			}
		} else {
			if err := w.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("unable to watch %s: %w", path, err)
			}
			w.logger.Debug("watcher", "Watching", logging.F("path", path))
		}
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("unable to watch %s: %w", root, err)
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Debug("watcher", "Watching", logging.F("path", path))
		return nil
	})
}

// Start delivers events to the handler until ctx is cancelled or the
// watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "Library watcher started", logging.F("watches", len(w.fsWatcher.WatchList())))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watcher", "Unable to watch new directory",
								logging.F("path", event.Name), logging.F("error", err))
						}
					}
					// A moved-in folder may already hold media.
					w.dispatch(FileEvent{Type: EventCreate, Path: event.Name})
					continue
				}
			}

			if err := w.handleEvent(event); err != nil {
				w.logger.Error("watcher", "Error handling event", err, logging.F("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher", "Watcher error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) error {
	if !IsMediaFile(event.Name) {
		return nil
	}

	eventType := EventCreate
	if event.Op&fsnotify.Write == fsnotify.Write {
		eventType = EventWrite
	} else if event.Op&fsnotify.Rename == fsnotify.Rename {
		eventType = EventMove
	} else if event.Op&fsnotify.Remove == fsnotify.Remove {
		eventType = EventDelete
	} else if event.Op&fsnotify.Create != fsnotify.Create {
		return nil
	}

	return w.dispatch(FileEvent{Type: eventType, Path: event.Name})
}

func (w *Watcher) dispatch(ev FileEvent) error {
	w.logger.Debug("watcher", "Event", logging.F("type", ev.Type), logging.F("file", filepath.Base(ev.Path)))
	return w.handler.HandleFileEvent(ev)
}

var videoExts = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".mpg": true, ".mpeg": true, ".m2ts": true, ".ts": true,
}

// IsMediaFile reports whether path has a video extension.
func IsMediaFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

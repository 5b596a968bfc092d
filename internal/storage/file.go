package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const fileExt = ".json"

// File stores each key as <dir>/<key>.json. Writes go through a temp file and
// a rename so readers never observe a partial document.
type File struct {
	dir    string
	logger *zap.Logger
}

// NewFile creates dir if needed and returns a store rooted there.
func NewFile(dir string, logger *zap.Logger) (*File, error) {
	if dir == "" {
		return nil, &Error{Op: "open", Message: "file storage requires a directory"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "open", Message: "failed to create storage directory", Cause: err}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{dir: dir, logger: logger}, nil
}

// Path returns the file backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &Error{Op: "get", Key: key, Cause: err}
	}
	return data, true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return &Error{Op: "set", Key: key, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return &Error{Op: "set", Key: key, Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Op: "set", Key: key, Message: "failed to close temp file", Cause: err}
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		return &Error{Op: "set", Key: key, Message: "failed to replace file", Cause: err}
	}
	return nil
}

func (f *File) Remove(_ context.Context, key string) error {
	if err := os.Remove(f.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Op: "remove", Key: key, Cause: err}
	}
	return nil
}

func (f *File) Close() error { return nil }

// Watch reports keys whose files are created, written, renamed into place or
// removed, including changes made by other processes. Temp files are ignored.
func (f *File) Watch(ctx context.Context, onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &Error{Op: "watch", Message: "failed to create watcher", Cause: err}
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(f.dir); err != nil {
		return &Error{Op: "watch", Message: "failed to watch " + f.dir, Cause: err}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if key, ok := keyFromPath(event.Name); ok {
				f.logger.Debug("storage file changed", zap.String("key", key), zap.String("op", event.Op.String()))
				onChange(key)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("storage watcher error", zap.Error(err))
		}
	}
}

func keyFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExt) {
		return "", false
	}
	return strings.TrimSuffix(base, fileExt), true
}

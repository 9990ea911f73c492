package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rigado/btsec"
)

// Watch calls fn with the reloaded settings every time the file at path is
// written or replaced, until ctx is done. Files that fail to load are
// logged and skipped.
//
// The directory is watched rather than the file so that editors replacing
// the file by rename are seen.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "can't create watcher")
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "can't watch %s", path)
	}

	logger := btsec.GetLogger().ChildLogger(map[string]interface{}{"component": "config"})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			c, err := Load(path)
			if err != nil {
				logger.Warnf("reload of %s skipped: %v", path, err)
				continue
			}
			logger.Infof("%s reloaded", path)
			fn(c)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("watch %s: %v", path, err)
		}
	}
}

// WatchAndApply keeps t in sync with the file at path.
func WatchAndApply(ctx context.Context, path string, t Target) error {
	logger := btsec.GetLogger().ChildLogger(map[string]interface{}{"component": "config"})
	return Watch(ctx, path, func(c *Config) {
		if err := c.Apply(ctx, t); err != nil {
			logger.Errorf("can't apply %s: %v", path, err)
		}
	})
}

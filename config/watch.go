package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/b0bbywan/go-playerctl/logger"
)

// Watch reloads the configuration whenever the file read by Load changes and
// hands the result to onChange. It does nothing when no file was read. The
// directory is watched so editors that replace the file are caught.
func (l *Loader) Watch(ctx context.Context, onChange func(*Config)) error {
	file := l.ConfigFile()
	if file == "" {
		logger.Debug("[config] no config file, not watching")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Info("[config] failed to close watcher: %v", closeErr)
		}
		return err
	}

	logger.Info("[config] watching %s", file)
	go l.listen(ctx, watcher, file, onChange)
	return nil
}

func (l *Loader) listen(ctx context.Context, watcher *fsnotify.Watcher, file string, onChange func(*Config)) {
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("[config] failed to close watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(file) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := l.v.ReadInConfig(); err != nil {
				logger.Warn("[config] reload of %s failed: %v", file, err)
				continue
			}
			logger.Info("[config] reloaded %s", file)
			onChange(l.build())

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("[config] fsnotify watcher error: %v", err)
		}
	}
}

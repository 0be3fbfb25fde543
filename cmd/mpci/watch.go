package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jenian/mpci/internal/config"
)

// watchDelay groups the bursts of events editors emit on save
const watchDelay = 300 * time.Millisecond

// watchedExtensions are the file types that can change the validation result
var watchedExtensions = map[string]bool{
	".php":      true,
	".js":       true,
	".mustache": true,
	".json":     true,
}

// watchPlugin runs the validation once and again after every relevant change
// below root, until ctx is cancelled
func watchPlugin(ctx context.Context, root string, logger *logrus.Logger, run func() (bool, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := setupWatcher(watcher, root); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	rerun := func() {
		if _, err := run(); err != nil {
			logger.WithError(err).Error("validation failed")
		}
	}
	rerun()
	logger.Infof("Watching %s for changes", root)

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Also watch new directories
			if event.Op&fsnotify.Create != 0 {
				fi, err := os.Stat(event.Name)
				if err == nil && fi.IsDir() && !skipWatchDir(filepath.Base(event.Name)) {
					logger.Debugf("New directory: %s", event.Name)
					if err := watcher.Add(event.Name); err != nil {
						logger.WithError(err).Warn("failed to watch new directory")
					}
				}
			}

			if event.Op == fsnotify.Chmod || !relevantChange(event.Name) {
				continue
			}
			logger.WithField("op", event.Op.String()).Debugf("Modified file: %s", event.Name)
			timer.Reset(watchDelay)
		case <-timer.C:
			fmt.Println()
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}

// relevantChange reports whether a change to name can alter the result
func relevantChange(name string) bool {
	return watchedExtensions[filepath.Ext(name)] || filepath.Base(name) == config.FileName
}

// setupWatcher recursively adds all directories to the watcher
func setupWatcher(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipWatchDir(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func skipWatchDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

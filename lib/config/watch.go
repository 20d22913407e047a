// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces the burst of filesystem events an editor
// emits when saving (truncate, write, rename) into a single reload.
const debounceInterval = 250 * time.Millisecond

// Watch monitors the config file at path and calls onChange with the
// freshly loaded configuration after every rewrite. A rewrite that
// fails to load (syntax error, validation failure) is logged and
// skipped; the previous configuration stays in effect.
//
// Watch blocks until ctx is cancelled. The watch is installed on the
// containing directory, not the file itself, so editors that replace
// the file via rename are still observed.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	directory := filepath.Dir(path)
	if err := watcher.Add(directory); err != nil {
		return fmt.Errorf("watching %s: %w", directory, err)
	}

	logger.Info("watching config file", "path", path)

	target := filepath.Clean(path)
	var debounce *time.Timer
	var debounceFired <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceInterval)
				debounceFired = debounce.C
			} else {
				if !debounce.Stop() {
					<-debounce.C
				}
				debounce.Reset(debounceInterval)
			}

		case <-debounceFired:
			debounce = nil
			debounceFired = nil

			configuration, err := LoadFile(path)
			if err != nil {
				logger.Error("config reload failed, keeping previous values",
					"path", path,
					"error", err,
				)
				continue
			}
			logger.Info("config reloaded", "path", path)
			onChange(configuration)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}

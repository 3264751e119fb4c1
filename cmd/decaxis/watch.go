package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFile parses path once, then again after every change until ctx ends.
// Only the first parse honors -save. The parent directory is watched so editors that replace the file by
// rename are still seen.
func (c *cli) watchFile(ctx context.Context, path string) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return c.fail(err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return c.fail(err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return c.fail(err)
	}

	c.parseFile(path)
	c.opts.save = ""

	debounce := c.cfg.CLI.WatchDebounce.Duration
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(c.stderr, "Watch error: %v\n", err)
		case <-timer.C:
			fmt.Fprintf(c.stdout, "-- %s changed\n", path)
			c.parseFile(path)
		}
	}
}

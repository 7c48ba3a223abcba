package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFiles re-processes each file whenever it changes, until ctx is done
// or the watcher fails. Directories are watched rather than files so that editors which
// replace a file by renaming are noticed.
func watchFiles(ctx context.Context, files []string, opts options) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return err
			}
			dirs[dir] = true
		}
	}
	logger.Info("watching", "files", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[event.Name] || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r := formatFile(event.Name, opts)
			switch {
			case r.err != nil:
				logger.Error("parse failed", "path", event.Name, "err", r.err)
			case opts.Write:
				if err := writeBack(event.Name, r); err != nil {
					logger.Error("write failed", "path", event.Name, "err", err)
				} else if r.output != string(r.input) {
					logger.Info("formatted", "path", event.Name)
				}
			case opts.Check:
				logger.Info("ok", "path", event.Name)
			default:
				os.Stdout.WriteString(r.output)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

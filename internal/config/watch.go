package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching path for writes and re-invokes Load on each one,
// calling onReload with the freshly compiled Config. A reload that fails
// to compile is logged and the previously running Config is left in
// place — a typo mid-edit must never take down a running engine. The
// returned watcher must be closed by the caller on shutdown.
//
// This backs "rulebot run --watch": hot-reload is a Go-native addition,
// not load-bearing for the core engine.
func Watch(path string, log *slog.Logger, onReload func(*Config)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.Warn("config reload failed, keeping previous config", "path", path, "error", err)
					continue
				}
				log.Info("config reloaded", "path", path)
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			}
		}
	}()

	return watcher, nil
}

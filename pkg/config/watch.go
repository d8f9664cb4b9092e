package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/multilocator/internal/logger"
)

// WatchNonStructural starts a background fsnotify watcher on the file at
// path (grounded on the teacher's cmd/dittofs/commands/logs.go watcher
// loop) and live-reloads the non-structural settings of loaded whenever
// the file changes on disk: log level and format. Locator topology,
// broker address, and resource limits are immutable after MustLoad; if a
// reload observes a change to any of those, it is logged as a warning and
// otherwise ignored until restart, per Config's "immutable after load"
// invariant.
//
// The returned stop function closes the watcher and waits for its
// goroutine to exit; callers should defer it. The watcher goroutine also
// exits when ctx is canceled.
func WatchNonStructural(ctx context.Context, path string, loaded *Config) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch config file %q: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloadNonStructural(path, loaded)

			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "path", path, "error", werr)
			}
		}
	}()

	stop = func() {
		_ = watcher.Close()
		<-done
	}
	return stop, nil
}

// reloadNonStructural re-reads the config file at path and applies any
// log level/format change to the live logger. Structural differences
// (locators, broker, limits) are detected and logged as a warning but
// never applied; metrics/telemetry enabled toggles likewise require a
// restart, since starting or stopping the metrics HTTP server and the
// OpenTelemetry/Pyroscope exporters live is out of scope for this
// aggregator.
func reloadNonStructural(path string, loaded *Config) {
	fresh, err := Load(path)
	if err != nil {
		logger.Warn("config reload failed, keeping previous settings", "path", path, "error", err)
		return
	}

	if structuralChanged(loaded, fresh) {
		logger.Warn("config file changed locator topology, broker, or limits while running; ignoring until restart", "path", path)
	}

	if fresh.Logging.Level != loaded.Logging.Level || fresh.Logging.Format != loaded.Logging.Format {
		logger.SetLevel(fresh.Logging.Level)
		logger.SetFormat(fresh.Logging.Format)
		logger.Info("log settings reloaded", "level", fresh.Logging.Level, "format", fresh.Logging.Format)
		loaded.Logging.Level = fresh.Logging.Level
		loaded.Logging.Format = fresh.Logging.Format
	}

	if fresh.Metrics.Enabled != loaded.Metrics.Enabled || fresh.Telemetry.Enabled != loaded.Telemetry.Enabled {
		logger.Warn("metrics/telemetry enabled toggle changed on disk; restart required to apply",
			"metrics_enabled", fresh.Metrics.Enabled, "telemetry_enabled", fresh.Telemetry.Enabled)
	}
}

func structuralChanged(a, b *Config) bool {
	if a.Broker != b.Broker || a.MultilocatorID != b.MultilocatorID {
		return true
	}
	if len(a.Locators) != len(b.Locators) {
		return true
	}
	for i := range a.Locators {
		if a.Locators[i] != b.Locators[i] {
			return true
		}
	}
	return a.Limits != b.Limits
}

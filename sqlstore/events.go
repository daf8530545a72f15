package sqlstore

import (
	"log/slog"
	"sync"

	"github.com/velmie/consistency/eventlog"
)

type cleanupEventSet struct {
	done     *eventlog.Event
	failed   *eventlog.Event
	lockBusy *eventlog.Event
}

var cleanupEvents = sync.OnceValue(func() *cleanupEventSet {
	return &cleanupEventSet{
		done:     eventlog.Define(slog.LevelInfo, 20, "CleanupCompleted", `Cleanup of "{Table}" removed {Deleted} messages.`),
		failed:   eventlog.Define(slog.LevelWarn, 21, "CleanupFailed", `Cleanup of "{Table}" failed.`),
		lockBusy: eventlog.Define(slog.LevelDebug, 22, "CleanupLockBusy", `Cleanup lock "{LockName}" is held by another session.`),
	}
})

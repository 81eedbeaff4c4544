// Package safego launches fire-and-forget goroutines with panic recovery.
package safego

import "log/slog"

// Go runs fn on its own goroutine and recovers any panic, logging it under
// the given task name. Fire-and-forget work (notification sends, background
// sweeps, side servers) goes through here: gin's recovery middleware only
// covers request handlers, and a panic on a plain goroutine takes the whole
// process down.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background task panicked", "task", task, "panic", r)
			}
		}()
		fn()
	}()
}

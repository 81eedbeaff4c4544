package safego

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background task did not finish")
	}
}

func TestGo_RunsTask(t *testing.T) {
	done := make(chan struct{})

	Go("test task", func() {
		close(done)
	})

	waitFor(t, done)
}

func TestGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})

	// The panic must be swallowed by the launcher, not crash the test binary.
	Go("panicking task", func() {
		defer close(done)
		panic("boom")
	})

	waitFor(t, done)
}

package cmdutil

import (
	"syscall"
	"testing"
	"time"

	"github.com/heroku/webmetrics/testing/testlog"
)

func TestSignalServer(t *testing.T) {
	logger, hook := testlog.New()

	sv := NewSignalServer(logger, syscall.SIGWINCH)

	var (
		runErr  error
		runDone = make(chan struct{})
		done    = make(chan struct{})
	)
	defer close(done)

	go func() {
		runErr = sv.Run()
		close(runDone)
	}()

	// Run races with signal.Notify, so keep signaling until it returns.
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if err := syscall.Kill(syscall.Getpid(), syscall.SIGWINCH); err != nil {
				t.Error(err)
			}
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case <-runDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Run took too long")
	}

	if runErr != nil {
		t.Fatalf("got Run error %+v, want no error", runErr)
	}
	hook.CheckContained(t, "received signal")

	sv.Stop(nil)
}

func TestSignalServerStop(t *testing.T) {
	logger, _ := testlog.New()

	sv := NewSignalServer(logger, syscall.SIGWINCH)

	done := make(chan error, 1)
	go func() { done <- sv.Run() }()

	sv.Stop(nil)

	if err := <-done; err != nil {
		t.Fatalf("got Run error %+v, want no error", err)
	}
}

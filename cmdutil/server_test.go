package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/oklog/run"
)

func TestServerFunc(t *testing.T) {
	err := errors.New("this is an error")
	sf := ServerFunc(func() error { return err })
	if got := sf.Run(); got != err {
		t.Fatalf("got Run err %+v, want %+v", got, err)
	}
}

func TestServerFuncs(t *testing.T) {
	err := errors.New("this is an error")
	var stopErr error

	sf := ServerFuncs{
		RunFunc:  func() error { return err },
		StopFunc: func(e error) { stopErr = e },
	}

	if got := sf.Run(); got != err {
		t.Fatalf("got Run err %+v, want %+v", got, err)
	}

	sf.Stop(err)
	if got := stopErr; got != err {
		t.Fatalf("got Stop err %+v, want %+v", got, err)
	}

	sf.StopFunc = nil
	sf.Stop(err)
}

func TestNewContextServer(t *testing.T) {
	err := errors.New("this is an error")
	var gotCtx context.Context

	s := NewContextServer(func(ctx context.Context) error {
		gotCtx = ctx
		return err
	})

	if got := s.Run(); got != err {
		t.Fatalf("got Run err %+v, want %+v", got, err)
	}
	if got := gotCtx.Err(); got != nil {
		t.Fatalf("got context Err %+v, wanted none", got)
	}

	s.Stop(err)
	<-gotCtx.Done()

	if got := gotCtx.Err(); got != context.Canceled {
		t.Fatalf("got context Err %+v, wanted context.Canceled", got)
	}
}

func TestMultiServerStop(t *testing.T) {
	s1 := newStoppingServer()
	s2 := newStoppingServer()
	ms := MultiServer(s1, s2)

	done := make(chan error, 1)
	go func() { done <- ms.Run() }()

	ms.Stop(nil)

	if err := <-done; err != nil && err != context.Canceled {
		t.Fatal(err)
	}
	<-s1.stopped
	<-s2.stopped
}

func TestMultiServerInnerStop(t *testing.T) {
	s1 := newStoppingServer()
	s2 := newStoppingServer()
	ms := MultiServer(s1, s2)

	done := make(chan error, 1)
	go func() { done <- ms.Run() }()

	s1.Stop(nil)

	if err := <-done; err != nil && err != context.Canceled {
		t.Fatal(err)
	}
	<-s2.stopped
}

type stoppingServer struct {
	stopped chan struct{}
	Server
}

func newStoppingServer() *stoppingServer {
	s := &stoppingServer{stopped: make(chan struct{})}
	s.Server = NewContextServer(func(ctx context.Context) error {
		<-ctx.Done()
		close(s.stopped)
		return ctx.Err()
	})
	return s
}

func ExampleServerFuncs() {
	var a Server = ServerFuncs{
		RunFunc: func() error {
			fmt.Println("A")
			return nil
		},
	}
	var g run.Group
	g.Add(a.Run, a.Stop)
	if err := g.Run(); err != nil {
		panic(err)
	}
	// Output: A
}

// Package cmdutil runs the long-lived parts of a service, its HTTP listeners,
// metric exporters and signal handling, as members of one oklog/run group.
package cmdutil

import (
	"context"

	"github.com/oklog/run"
)

// A Server can be run synchronously and return an error.
//
// Servers are typically used with oklog/run.Group.
type Server interface {
	Run() error
	Stop(error)
}

// ServerFunc adapts a function to a Server whose Stop does nothing.
type ServerFunc func() error

// Run calls fn and returns any errors.
func (fn ServerFunc) Run() error { return fn() }

// Stop is a noop.
func (fn ServerFunc) Stop(error) {}

// ServerFuncs implements the Server interface with provided functions.
type ServerFuncs struct {
	RunFunc  func() error
	StopFunc func(error)
}

// Run calls RunFunc and returns any errors.
func (sf ServerFuncs) Run() error {
	return sf.RunFunc()
}

// Stop calls StopFunc, if it's non-nil.
func (sf ServerFuncs) Stop(err error) {
	if sf.StopFunc != nil {
		sf.StopFunc(err)
	}
}

// NewContextServer returns a Server that runs fn with a context that is
// canceled when the Server is stopped.
func NewContextServer(fn func(context.Context) error) Server {
	ctx, cancel := context.WithCancel(context.Background())

	return ServerFuncs{
		RunFunc: func() error {
			return fn(ctx)
		},
		StopFunc: func(error) {
			cancel()
		},
	}
}

// MultiServer returns a Server which runs all of srvs until one of them
// returns or the MultiServer is stopped.
func MultiServer(srvs ...Server) Server {
	var g run.Group

	s := NewContextServer(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Add(s.Run, s.Stop)

	for _, srv := range srvs {
		g.Add(srv.Run, srv.Stop)
	}

	return ServerFuncs{
		RunFunc:  g.Run,
		StopFunc: s.Stop,
	}
}

package grpcmetrics

import (
	"context"
	"io"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heroku/webmetrics"
)

// callError is the failure of a gRPC call as seen by the tag builder.
type callError struct {
	code codes.Code
	err  error
}

func (e *callError) Error() string { return e.err.Error() }

func (e *callError) Unwrap() error { return e.err }

// Kind implements webmetrics.Kinder.
func (e *callError) Kind() string { return e.code.String() }

// StatusCode implements webmetrics.StatusCoder.
func (e *callError) StatusCode() int { return runtime.HTTPStatusFromCode(e.code) }

// code returns the gRPC code of err, mapping context errors to their
// codes.
func code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return status.Code(err)
}

// messageKind returns the exception tag of a stream message error. io.EOF
// ends a stream and is not a failure.
func messageKind(err error) string {
	if err == nil || err == io.EOF {
		return webmetrics.None
	}
	return code(err).String()
}

func complete(ex *webmetrics.Exchange, fullMethod, serviceID string, err error) {
	if err != nil {
		ex.OnFailure(&callError{code: code(err), err: err}, &fullMethod, serviceID)
		return
	}
	ex.OnResponse(webmetrics.Response{StatusCode: runtime.HTTPStatusFromCode(codes.OK)}, &fullMethod, serviceID)
}

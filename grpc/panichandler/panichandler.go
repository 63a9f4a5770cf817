// Package panichandler turns panics of gRPC handlers into Internal errors.
//
// Installed after the grpcmetrics interceptors, a panicking call is measured
// like any other failed call, with status 500 and exception Internal.
package panichandler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnaryPanicHandler returns a server interceptor which recovers
// panics, logs them as errors with logger, and returns a gRPC internal
// error to clients.
func LoggingUnaryPanicHandler(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer handleCrash(func(r interface{}) {
			err = report(logger, "grpc unary server panic", info.FullMethod, r)
		})
		return handler(ctx, req)
	}
}

// LoggingStreamPanicHandler returns a stream server interceptor which
// recovers panics, logs them as errors with logger, and returns a gRPC
// internal error to clients.
func LoggingStreamPanicHandler(logger logrus.FieldLogger) grpc.StreamServerInterceptor {
	return func(srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer handleCrash(func(r interface{}) {
			err = report(logger, "grpc stream server panic", info.FullMethod, r)
		})
		return handler(srv, stream)
	}
}

func handleCrash(handler func(interface{})) {
	if r := recover(); r != nil {
		handler(r)
	}
}

func report(logger logrus.FieldLogger, msg, method string, r interface{}) error {
	werr := errors.Errorf("%s: %v", msg, r)
	logger.WithField("method", method).WithError(werr).Error(msg)
	return status.Errorf(codes.Internal, "panic: %v", r)
}

package main

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/cmdutil"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
	"github.com/heroku/webmetrics/grpc/grpcmetrics"
	"github.com/heroku/webmetrics/grpc/panichandler"
)

// newGRPCServer returns a server for the gRPC health service whose calls
// are recorded into reg.
func newGRPCServer(l logrus.FieldLogger, reg metricsregistry.Registry, port int, opts ...webmetrics.Option) cmdutil.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcmetrics.NewUnaryServerInterceptor(reg, opts...),
			panichandler.LoggingUnaryPanicHandler(l),
		),
		grpc.ChainStreamInterceptor(
			grpcmetrics.NewStreamServerInterceptor(reg, opts...),
			panichandler.LoggingStreamPanicHandler(l),
		),
	)
	healthpb.RegisterHealthServer(srv, health.NewServer())

	addr := fmt.Sprintf(":%d", port)
	return cmdutil.ServerFuncs{
		RunFunc: func() error {
			l.WithFields(logrus.Fields{
				"at":      "binding",
				"service": "grpc",
				"addr":    addr,
			}).Info()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrap(err, "listening to tcp addr")
			}
			return srv.Serve(ln)
		},
		StopFunc: func(error) { srv.GracefulStop() },
	}
}

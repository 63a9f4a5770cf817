package grpcmetrics

import (
	"context"

	"google.golang.org/grpc"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// Metric names of the gRPC instrumentation points.
const (
	ServerRequestsMetric = "grpc.server.requests"
	ClientRequestsMetric = "grpc.client.requests"
)

// NewUnaryServerInterceptor returns an interceptor for unary server calls
// which will report metrics using the given registry.
func NewUnaryServerInterceptor(reg metricsregistry.Registry, opts ...webmetrics.Option) grpc.UnaryServerInterceptor {
	in := webmetrics.NewInstrument(reg, ServerRequestsMetric, opts...)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ interface{}, err error) {
		ex := in.Start("")
		defer func() {
			complete(ex, info.FullMethod, "", err)
		}()

		return handler(ctx, req)
	}
}

// NewStreamServerInterceptor returns an interceptor for stream server calls
// which will report metrics using the given registry.
func NewStreamServerInterceptor(reg metricsregistry.Registry, opts ...webmetrics.Option) grpc.StreamServerInterceptor {
	in := webmetrics.NewInstrument(reg, ServerRequestsMetric, opts...)
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		clients := reg.GetOrRegisterGauge("grpc.server.stream.clients").With(webmetrics.URITag, info.FullMethod)
		clients.Add(1)

		ex := in.Start("")
		defer func() {
			clients.Add(-1)
			complete(ex, info.FullMethod, "", err)
		}()

		return handler(srv, &serverStream{
			ServerStream: ss,
			messages:     newMessageCounters(reg, "grpc.server.stream", info.FullMethod),
		})
	}
}

// serverStream provides a light wrapper over grpc.ServerStream
// to count sent and received messages.
type serverStream struct {
	grpc.ServerStream
	messages messageCounters
}

// SendMsg implements the grpc.ServerStream interface.
func (ss *serverStream) SendMsg(m interface{}) error {
	err := ss.ServerStream.SendMsg(m)
	ss.messages.sent(err)
	return err
}

// RecvMsg implements the grpc.ServerStream interface.
func (ss *serverStream) RecvMsg(m interface{}) error {
	err := ss.ServerStream.RecvMsg(m)
	ss.messages.received(err)
	return err
}

type messageCounters struct {
	reg    metricsregistry.Registry
	prefix string
	uri    string
}

func newMessageCounters(reg metricsregistry.Registry, prefix, fullMethod string) messageCounters {
	return messageCounters{reg: reg, prefix: prefix, uri: fullMethod}
}

func (mc messageCounters) sent(err error) {
	mc.reg.GetOrRegisterCounter(mc.prefix+".sends").
		With(webmetrics.URITag, mc.uri, webmetrics.ExceptionTag, messageKind(err)).
		Add(1)
}

func (mc messageCounters) received(err error) {
	mc.reg.GetOrRegisterCounter(mc.prefix+".recvs").
		With(webmetrics.URITag, mc.uri, webmetrics.ExceptionTag, messageKind(err)).
		Add(1)
}

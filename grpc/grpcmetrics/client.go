package grpcmetrics

import (
	"context"

	"google.golang.org/grpc"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// NewUnaryClientInterceptor returns an interceptor for unary client calls
// which will report metrics using the given registry.
func NewUnaryClientInterceptor(reg metricsregistry.Registry, opts ...webmetrics.Option) grpc.UnaryClientInterceptor {
	in := webmetrics.NewInstrument(reg, ClientRequestsMetric, opts...)
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) (err error) {
		ex := in.Start("")
		defer func() {
			complete(ex, method, target(cc), err)
		}()

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// NewStreamClientInterceptor returns an interceptor for stream client calls
// which will report metrics using the given registry. The measurement
// covers establishing the stream.
func NewStreamClientInterceptor(reg metricsregistry.Registry, opts ...webmetrics.Option) grpc.StreamClientInterceptor {
	in := webmetrics.NewInstrument(reg, ClientRequestsMetric, opts...)
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ex := in.Start("")
		cs, err := streamer(ctx, desc, cc, method, opts...)
		complete(ex, method, target(cc), err)
		if err != nil {
			return cs, err
		}

		return &clientStream{
			ClientStream: cs,
			messages:     newMessageCounters(reg, "grpc.client.stream", method),
		}, nil
	}
}

// clientStream provides a light wrapper over grpc.ClientStream
// to count sent and received messages.
type clientStream struct {
	grpc.ClientStream
	messages messageCounters
}

// SendMsg implements the grpc.ClientStream interface.
func (cs *clientStream) SendMsg(m interface{}) error {
	err := cs.ClientStream.SendMsg(m)
	cs.messages.sent(err)
	return err
}

// RecvMsg implements the grpc.ClientStream interface.
func (cs *clientStream) RecvMsg(m interface{}) error {
	err := cs.ClientStream.RecvMsg(m)
	cs.messages.received(err)
	return err
}

func target(cc *grpc.ClientConn) string {
	if cc == nil {
		return ""
	}
	return cc.Target()
}

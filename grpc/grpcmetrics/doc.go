// Package grpcmetrics provides interceptors timing gRPC calls with the same
// tags as HTTP exchanges.
//
// Servers report under grpc.server.requests and clients under
// grpc.client.requests. The uri tag is the full method name, e.g.
// /orders.Orders/Ping, and the status tag is the HTTP status the call's gRPC
// code maps to. Failed calls are tagged with the name of their code as
// exception, e.g. NotFound. Clients tag calls with the target of their
// connection as serviceId.
//
// Streams additionally report:
//
//	grpc.server.stream.clients          - gauge of open streams
//	grpc.{server,client}.stream.sends   - counter of sent messages
//	grpc.{server,client}.stream.recvs   - counter of received messages
//
// Stream durations cover the whole stream on servers and only its
// establishment on clients.
package grpcmetrics

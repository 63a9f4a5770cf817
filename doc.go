// Package webmetrics times HTTP exchanges and tags each measurement with a
// bounded set of labels: method, status, uri, exception and, for clients,
// serviceId.
//
// The uri tag is the route template of the exchange rather than its literal
// path, and is replaced with a constant for redirects, client errors and
// not-found responses, so the number of series stays bounded no matter what
// paths callers request:
//
//	GET /orders/42 -> {method:GET status:200 uri:/orders/{id} exception:none}
//	GET /missing   -> {method:GET status:404 uri:NOT_FOUND exception:none}
//
// An Instrument starts an Exchange when a request begins and records exactly
// one measurement when the exchange completes with a response or a failure.
// See package httpmetrics for the server middleware and client transport
// built on top of it, and package grpcmetrics for gRPC interceptors.
package webmetrics

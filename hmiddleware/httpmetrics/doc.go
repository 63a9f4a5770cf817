// Package httpmetrics instruments HTTP servers and clients with one timer
// measurement per exchange.
//
// Servers report under http.server.requests and clients under
// http.client.requests, tagged with:
//
//	method    - the request method
//	status    - the response status, or the failure's status (500 by default)
//	uri       - the route template, bucketed for redirects and client errors
//	exception - the kind of failure, or none
//	serviceId - the called service (clients only, when known)
//
// For example, a GET /orders/42 served by the chi route /orders/{id} in 37ms
// records 37 in the series
//
//	http.server.requests{method:GET status:200 uri:/orders/{id} exception:none}
//
// The number of distinct uri values of each metric is estimated under
// <metric>.uri-cardinality.
package httpmetrics

package webmetrics

import (
	"net/http"
	"strconv"
	"strings"
)

// Tag keys. Every measurement carries status, uri and exception; method and
// serviceId are only present when known.
const (
	MethodTag    = "method"
	StatusTag    = "status"
	URITag       = "uri"
	ExceptionTag = "exception"
	ServiceIDTag = "serviceId"
)

// TagKeys returns every tag key a measurement may carry, in tag order.
func TagKeys() []string {
	return []string{MethodTag, StatusTag, URITag, ExceptionTag, ServiceIDTag}
}

// uri tag values used in place of the path to bound cardinality.
const (
	URIRedirection  = "REDIRECTION"
	URINotFound     = "NOT_FOUND"
	URIUnauthorized = "UNAUTHORIZED"
	URIBadRequest   = "BAD_REQUEST"
)

// defaultFailureStatus is reported for failures without a response or an
// explicit status.
const defaultFailureStatus = "500"

// A Tag is a key/value label attached to a measurement.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered set of tags with unique keys.
type Tags []Tag

// LabelValues flattens the tags into alternating keys and values, the form
// go-kit metrics expect in With.
func (ts Tags) LabelValues() []string {
	lvs := make([]string, 0, 2*len(ts))
	for _, t := range ts {
		lvs = append(lvs, t.Key, t.Value)
	}
	return lvs
}

// Value returns the value of the tag with key k.
func (ts Tags) Value(k string) (string, bool) {
	for _, t := range ts {
		if t.Key == k {
			return t.Value, true
		}
	}
	return "", false
}

func (ts Tags) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Key + ":" + t.Value
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Response is what tagging needs to know about an HTTP response.
type Response struct {
	StatusCode int

	// Err is a failure attached to the response by the handler that
	// rendered it.
	Err error

	// ErrorRoute is set when the response was rendered by a route
	// registered to render errors.
	ErrorRoute bool
}

// Params are the inputs of BuildTags.
type Params struct {
	// Response is nil when the exchange failed without a response.
	Response *Response

	// Method is the HTTP method. The method tag is omitted when empty.
	Method string

	// Path is the route template of the exchange, nil when unknown.
	Path *string

	// Err is the failure of the exchange, if any.
	Err error

	// ServiceID names the called service. The serviceId tag is omitted
	// when empty.
	ServiceID string

	// ReportClientErrorURIs keeps the path as uri for 4xx responses
	// instead of bucketing it into UNAUTHORIZED or BAD_REQUEST.
	ReportClientErrorURIs bool
}

// BuildTags returns the tags of one measurement, in the order method, status,
// uri, exception, serviceId.
func BuildTags(p Params) Tags {
	tags := make(Tags, 0, 5)
	if p.Method != "" {
		tags = append(tags, Tag{MethodTag, p.Method})
	}
	tags = append(tags,
		Tag{StatusTag, status(p.Response, p.Err)},
		Tag{URITag, uri(p.Response, p.Path, p.ReportClientErrorURIs)},
		Tag{ExceptionTag, ErrorKind(p.Err)},
	)
	if p.ServiceID != "" {
		tags = append(tags, Tag{ServiceIDTag, p.ServiceID})
	}
	return tags
}

func status(resp *Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if code, ok := failureStatus(err); ok {
		return strconv.Itoa(code)
	}
	return defaultFailureStatus
}

func uri(resp *Response, path *string, reportClientErrorURIs bool) string {
	if resp != nil {
		code := resp.StatusCode
		switch {
		case code >= 300 && code < 400:
			return URIRedirection
		case code >= 400 && code < 500 && !reportClientErrorURIs:
			if code == http.StatusUnauthorized {
				return URIUnauthorized
			}
			return URIBadRequest
		case code == http.StatusNotFound:
			return URINotFound
		}
	}
	return sanitizeOptionalPath(path)
}

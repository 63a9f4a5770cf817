package webmetrics

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/pkg/errors"
)

// None is the exception tag value of exchanges that did not fail.
const None = "none"

// StatusCoder is implemented by failures that map to an explicit HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// ResponseCarrier is implemented by failures that embed the response which
// was received or rendered before the failure was raised.
type ResponseCarrier interface {
	HTTPResponse() *Response
}

// Kinder lets a failure choose its exception tag value.
type Kinder interface {
	Kind() string
}

// StatusError is a failure carrying an explicit HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// NewStatusError returns a StatusError for code wrapping err, which may be nil.
func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%d %s: %v", e.Code, http.StatusText(e.Code), e.Err)
}

// StatusCode implements StatusCoder.
func (e *StatusError) StatusCode() int { return e.Code }

// Unwrap returns the wrapped error.
func (e *StatusError) Unwrap() error { return e.Err }

// ResponseError is a failure raised after a response was received.
type ResponseError struct {
	Response Response
	Err      error
}

func (e *ResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unexpected response: %d", e.Response.StatusCode)
	}
	return fmt.Sprintf("unexpected response: %d: %v", e.Response.StatusCode, e.Err)
}

// HTTPResponse implements ResponseCarrier.
func (e *ResponseError) HTTPResponse() *Response {
	r := e.Response
	return &r
}

// StatusCode implements StatusCoder.
func (e *ResponseError) StatusCode() int { return e.Response.StatusCode }

// Unwrap returns the wrapped error.
func (e *ResponseError) Unwrap() error { return e.Err }

// PanicError wraps a recovered panic value which is not an error.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorKind returns the exception tag value for err: None for nil, the
// result of Kind when err implements Kinder, and otherwise the short name of
// the concrete type of errors.Cause(err), without package or pointer.
func ErrorKind(err error) string {
	if err == nil {
		return None
	}
	if k, ok := err.(Kinder); ok {
		return k.Kind()
	}

	cause := errors.Cause(err)
	if k, ok := cause.(Kinder); ok {
		return k.Kind()
	}

	t := reflect.TypeOf(cause)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// failureStatus returns the explicit status carried by err, if any.
func failureStatus(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return sc.StatusCode(), true
	}
	return 0, false
}

// failureResponse returns the response embedded in err, if any.
func failureResponse(err error) *Response {
	var rc ResponseCarrier
	if errors.As(err, &rc) {
		return rc.HTTPResponse()
	}
	return nil
}

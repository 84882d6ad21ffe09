package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupported is returned for endpoints a transport cannot serve.
var ErrUnsupported = errors.New("operation not supported by transport")

// Error describes a failed remote call.
type Error struct {
	Verb    string
	Path    string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Verb, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Verb, e.Path, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a transport error with status 404.
func IsNotFound(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Status == http.StatusNotFound
}

func notFound(req Request, what string) *Error {
	return &Error{
		Verb:    req.Verb,
		Path:    req.Endpoint.Path(),
		Status:  http.StatusNotFound,
		Code:    "Neo.ClientError.Statement.EntityNotFound",
		Message: what + " not found",
	}
}

func unsupported(req Request) *Error {
	return &Error{
		Verb:   req.Verb,
		Path:   req.Endpoint.Path(),
		Status: http.StatusNotImplemented,
		Err:    ErrUnsupported,
	}
}

// errorFromBody extracts the server message from either the legacy
// {message, exception} shape or the {errors:[{code,message}]} shape.
func errorFromBody(req Request, status int, body any) *Error {
	te := &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Status: status}
	obj, _ := body.(map[string]any)
	if msg, ok := obj["message"].(string); ok {
		te.Message = msg
	}
	if exc, ok := obj["exception"].(string); ok {
		te.Code = exc
	}
	if list, ok := obj["errors"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			te.Code, _ = first["code"].(string)
			te.Message, _ = first["message"].(string)
		}
	}
	if te.Message == "" {
		te.Message = http.StatusText(status)
	}
	return te
}

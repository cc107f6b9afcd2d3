package handler

import (
	"errors"
	"net/http"
)

var (
	ErrNilResponse          = errors.New("handler returned nil response")
	ErrMissingContentType   = errors.New("missing content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("failed to parse JSON request body")
	ErrBodyTooLarge         = errors.New("request body too large")
)

// HTTPError is an error with a status code and a client-safe message.
// Fields are merged into the error envelope.
type HTTPError struct {
	Code    int
	Message string
	Fields  map[string]any
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

// With returns a copy of e with an extra envelope field.
func (e HTTPError) With(key string, value any) HTTPError {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	e.Fields = fields
	return e
}

func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

var (
	ErrUnauthorized     = NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	ErrBadRequest       = NewHTTPError(http.StatusBadRequest, "Invalid request")
	ErrInternal         = NewHTTPError(http.StatusInternalServerError, "Internal server error")
	ErrUnsupportedMedia = NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
)

// ErrorMapper converts an arbitrary error into an HTTPError. It returns
// false when the error is not one it recognises.
type ErrorMapper func(err error) (HTTPError, bool)

// Classify resolves err through mappers, then through the binder and
// HTTPError defaults. Anything unrecognised becomes ErrInternal.
func Classify(err error, mappers ...ErrorMapper) HTTPError {
	for _, m := range mappers {
		if m == nil {
			continue
		}
		if he, ok := m(err); ok {
			return he
		}
	}

	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, ErrMissingContentType):
		return ErrUnsupportedMedia
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrBodyTooLarge):
		return ErrBadRequest
	default:
		return ErrInternal
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/datumlabs/totpgate/pkg/logger"
)

// Context is the request context with access to the HTTP pair.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
}

type httpContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func (c httpContext) Request() *http.Request              { return c.r }
func (c httpContext) ResponseWriter() http.ResponseWriter { return c.w }

func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return httpContext{Context: r.Context(), w: w, r: r}
}

// HandlerFunc handles a decoded request of type R.
type HandlerFunc[R any] func(ctx Context, req R) Response

type wrapConfig struct {
	binders []Bind
	mappers []ErrorMapper
	log     *slog.Logger
}

// WrapOption configures Wrap.
type WrapOption[R any] func(*wrapConfig)

func WithBinder[R any](b Bind) WrapOption[R] {
	return func(c *wrapConfig) {
		if b != nil {
			c.binders = append(c.binders, b)
		}
	}
}

func WithErrorMapper[R any](m ErrorMapper) WrapOption[R] {
	return func(c *wrapConfig) {
		if m != nil {
			c.mappers = append(c.mappers, m)
		}
	}
}

// WithLogger logs unclassified (500) errors before they are hidden behind
// the generic message.
func WithLogger[R any](l *slog.Logger) WrapOption[R] {
	return func(c *wrapConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Wrap converts h into an http.HandlerFunc.
func Wrap[R any](h HandlerFunc[R], opts ...WrapOption[R]) http.HandlerFunc {
	cfg := &wrapConfig{log: logger.Discard()}
	for _, opt := range opts {
		opt(cfg)
	}
	fail := func(ctx Context, err error) {
		he := Classify(err, cfg.mappers...)
		if he.Code >= http.StatusInternalServerError {
			cfg.log.ErrorContext(ctx, "request failed",
				slog.String("path", ctx.Request().URL.Path),
				logger.Error(err),
			)
		}
		_ = WriteError(ctx.ResponseWriter(), he)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				fail(ctx, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			fail(ctx, ErrNilResponse)
			return
		}
		if f, ok := resp.(failure); ok {
			fail(ctx, f.err)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.log.ErrorContext(ctx, "render failed", logger.Error(err))
		}
	}
}

// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context (the request context plus access to the
// request and writer) and a decoded request value, and returns a Response.
// Wrap runs the configured binders, calls the handler and renders the result.
// Errors from binding or the handler are classified and written as the JSON
// error envelope:
//
//	{"success": false, "error": "Invalid TOTP code"}
//
// Domain packages translate their sentinel errors into HTTPError values with
// an ErrorMapper so the envelope carries a stable status and message.
//
//	http.Handle("/totp/setup/verify", handler.Wrap(h.completeSetup,
//		handler.WithBinder[verifyRequest](handler.BindJSON()),
//		handler.WithErrorMapper[verifyRequest](mapError),
//	))
package handler

// Package access folds authentication, two-factor state and trial expiry
// into a single routing decision.
//
// Decide is a pure function; Middleware applies it to HTTP requests using a
// StateResolver that loads the caller's state.
//
//	gate := access.Middleware(resolver, access.Resource{RequiresAuth: true, RequiresTOTP: true})
//	r.With(gate).Get("/dashboard", dashboard)
package access

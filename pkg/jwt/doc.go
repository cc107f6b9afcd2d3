// Package jwt verifies HS256 bearer tokens issued by the upstream identity
// provider and places the resulting Identity in the request context.
//
// Tokens carry the identity in "sub", the contact address in "email" and the
// sign-in session in "session_id" (falling back to "jti"). Expiry and
// not-before are enforced; the issuer is checked when configured.
//
//	svc, _ := jwt.NewFromConfig(cfg)
//	r.Use(jwt.Middleware(svc))
//	...
//	id, ok := jwt.IdentityFromContext(r.Context())
//
// Missing or invalid tokens are answered with 401 and the JSON error envelope.
package jwt

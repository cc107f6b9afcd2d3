package logger

import "log/slog"

// Error logs err under "error". A nil error yields an empty Attr, which slog
// drops, so callers need no nil check.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// IdentityID records the authenticated identity under "identity_id".
func IdentityID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("identity_id", id)
}

// SessionID records the session under "session_id".
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// Decision records an access gate outcome.
func Decision(name string) slog.Attr {
	return slog.String("decision", name)
}

func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

package twofactor

import (
	"strconv"
	"strings"
	"time"

	"github.com/datumlabs/totpgate/pkg/handler"
	"github.com/datumlabs/totpgate/pkg/jwt"
	"github.com/datumlabs/totpgate/pkg/logger"
	"github.com/datumlabs/totpgate/svc/access"
	"github.com/datumlabs/totpgate/svc/twofactor"
)

type tokenRequest struct {
	Token string `json:"token"`
}

type resetTrialRequest struct {
	Email string `json:"email"`
	Days  int    `json:"days"`
}

type statusResponse struct {
	Success            bool       `json:"success"`
	State              string     `json:"state"`
	ProfileExists      bool       `json:"profile_exists"`
	TOTPEnabled        bool       `json:"totp_enabled"`
	TOTPVerified       bool       `json:"totp_verified"`
	IsTrialUser        bool       `json:"is_trial_user"`
	TrialStart         *time.Time `json:"trial_start_date,omitempty"`
	TrialExpiration    *time.Time `json:"trial_expiration_date,omitempty"`
	TrialExpired       bool       `json:"trial_expired"`
	TrialDaysRemaining int        `json:"trial_days_remaining"`
	SetupExpiresAt     *time.Time `json:"setup_expires_at,omitempty"`
}

type accessResponse struct {
	Success  bool            `json:"success"`
	Decision access.Decision `json:"decision"`
	Redirect string          `json:"redirect,omitempty"`
}

func identity(ctx handler.Context) (jwt.Identity, error) {
	id, ok := jwt.IdentityFromContext(ctx)
	if !ok {
		return jwt.Identity{}, twofactor.ErrUnauthorized
	}
	return id, nil
}

func (m *Module) setup(ctx handler.Context, _ struct{}) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}

	res, err := m.svc.BeginSetup(ctx, twofactor.Identity{ID: id.ID, Email: id.Email}, m.now())
	if err != nil {
		return handler.Fail(err)
	}

	qr, err := m.qr.DataURI(res.URI)
	if err != nil {
		m.log.ErrorContext(ctx, "failed to render qr code", logger.IdentityID(id.ID), logger.Error(err))
		return handler.Fail(twofactor.ErrInternal)
	}

	return handler.Success(map[string]any{
		"qrCode":     qr,
		"secret":     res.Secret,
		"uri":        res.URI,
		"expires_at": res.ExpiresAt,
	})
}

func (m *Module) verifySetup(ctx handler.Context, req tokenRequest) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := m.svc.CompleteSetup(ctx, id.ID, req.Token, m.now()); err != nil {
		return handler.Fail(err)
	}
	return handler.Success(nil)
}

func (m *Module) verifyLogin(ctx handler.Context, req tokenRequest) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}

	res, err := m.svc.ValidateLogin(ctx, id.ID, id.SessionID, req.Token, m.now())
	if err != nil {
		return handler.Fail(err)
	}
	return handler.Success(map[string]any{
		"trial_expired":  false,
		"verified_until": res.VerifiedUntil,
	})
}

func (m *Module) signout(ctx handler.Context, _ struct{}) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := m.svc.EndSession(ctx, id.ID, id.SessionID); err != nil {
		return handler.Fail(err)
	}
	return handler.Success(nil)
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}

	st, err := m.svc.Status(ctx, id.ID, id.SessionID, m.now())
	if err != nil {
		return handler.Fail(err)
	}

	return handler.JSON(statusResponse{
		Success:            true,
		State:              string(st.State),
		ProfileExists:      st.ProfileExists,
		TOTPEnabled:        st.TOTPEnabled,
		TOTPVerified:       st.VerifiedThisSession,
		IsTrialUser:        st.IsTrialUser,
		TrialStart:         optionalTime(st.TrialStart),
		TrialExpiration:    optionalTime(st.TrialExpiration),
		TrialExpired:       st.TrialExpired,
		TrialDaysRemaining: st.TrialDaysRemaining,
		SetupExpiresAt:     optionalTime(st.SetupExpiresAt),
	})
}

// access evaluates the gate for the resource described by the query:
// requires_auth (default true), requires_totp and setup_page.
func (m *Module) access(ctx handler.Context, _ struct{}) handler.Response {
	q := ctx.Request().URL.Query()
	res := access.Resource{
		RequiresAuth: queryBool(q.Get("requires_auth"), true),
		RequiresTOTP: queryBool(q.Get("requires_totp"), false),
		IsTOTPSetup:  queryBool(q.Get("setup_page"), false),
	}

	in, err := m.ResolveState(ctx.Request())
	if err != nil {
		m.log.WarnContext(ctx, "access state unavailable", logger.Error(err))
		in = access.Input{Authenticated: in.Authenticated}
	}
	in.Resource = res

	d := access.Decide(in)
	return handler.JSON(accessResponse{
		Success:  true,
		Decision: d,
		Redirect: d.RedirectPath(),
	})
}

func (m *Module) resetTrial(ctx handler.Context, req resetTrialRequest) handler.Response {
	id, err := identity(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if id.Email == "" {
		return handler.Fail(twofactor.ErrUnauthorized)
	}
	if m.cfg.AdminEmail == "" || !strings.EqualFold(id.Email, m.cfg.AdminEmail) {
		m.log.WarnContext(ctx, "trial reset refused", logger.IdentityID(id.ID))
		return handler.Error(errAdminRequired)
	}

	p, err := m.svc.ResetTrial(ctx, req.Email, req.Days, m.now())
	if err != nil {
		return handler.Fail(err)
	}

	return handler.Success(map[string]any{
		"message": "Trial reset successfully",
		"data": map[string]any{
			"email":        p.Email,
			"trial_start":  p.TrialStart,
			"trial_end":    p.TrialExpiration,
			"email_queued": m.emailQueue && p.Email != "",
		},
	})
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func queryBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

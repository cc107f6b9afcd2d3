package twofactor

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/datumlabs/totpgate/pkg/handler"
	"github.com/datumlabs/totpgate/svc/twofactor"
)

var (
	errAdminRequired = handler.NewHTTPError(http.StatusForbidden, "Forbidden: Admin access required")
	errTrialExpired  = handler.NewHTTPError(http.StatusForbidden, "Trial period has expired").With("trial_expired", true)
)

// errorMapper translates service errors into client messages. Internal
// failures become a 500 carrying failure, never the underlying cause.
func errorMapper(failure string) handler.ErrorMapper {
	return func(err error) (handler.HTTPError, bool) {
		switch {
		case errors.Is(err, twofactor.ErrInternal):
			return handler.NewHTTPError(http.StatusInternalServerError, failure), true
		case errors.Is(err, twofactor.ErrUnauthorized):
			return handler.ErrUnauthorized, true
		case errors.Is(err, twofactor.ErrInvalidCodeFormat):
			return handler.NewHTTPError(http.StatusBadRequest, "Invalid token format"), true
		case errors.Is(err, twofactor.ErrMissingEmail):
			return handler.NewHTTPError(http.StatusBadRequest, "Email is required"), true
		case errors.Is(err, twofactor.ErrInvalidTrialDays):
			return handler.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Days must be between 0 and %d", twofactor.MaxTrialDays)), true
		case errors.Is(err, twofactor.ErrValidation):
			return handler.ErrBadRequest, true
		case errors.Is(err, twofactor.ErrSetupNotFound):
			return handler.NewHTTPError(http.StatusBadRequest, "No setup token found. Please restart setup."), true
		case errors.Is(err, twofactor.ErrSetupExpired):
			return handler.NewHTTPError(http.StatusBadRequest, "Setup token expired. Please restart setup."), true
		case errors.Is(err, twofactor.ErrInvalidCode):
			return handler.NewHTTPError(http.StatusBadRequest, "Invalid verification code"), true
		case errors.Is(err, twofactor.ErrTrialExpired):
			return errTrialExpired, true
		case errors.Is(err, twofactor.ErrNotEnabled):
			return handler.NewHTTPError(http.StatusBadRequest, "TOTP not enabled for this account"), true
		case errors.Is(err, twofactor.ErrAlreadyEnabled):
			return handler.NewHTTPError(http.StatusConflict, "TOTP already enabled for this account"), true
		case errors.Is(err, twofactor.ErrProfileNotFound):
			return handler.NewHTTPError(http.StatusNotFound, "Profile not found"), true
		}
		return handler.HTTPError{}, false
	}
}

// loginErrorMapper reports a wrong sign-in code with the sign-in wording
// and flags every other outcome as not trial related.
func loginErrorMapper() handler.ErrorMapper {
	base := errorMapper("Failed to validate TOTP")
	return func(err error) (handler.HTTPError, bool) {
		if errors.Is(err, twofactor.ErrInvalidCode) {
			return handler.NewHTTPError(http.StatusBadRequest, "Invalid authentication code").With("trial_expired", false), true
		}
		he, ok := base(err)
		if ok && he.Fields["trial_expired"] == nil {
			he = he.With("trial_expired", false)
		}
		return he, ok
	}
}

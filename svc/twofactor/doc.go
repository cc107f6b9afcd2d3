// Package twofactor manages the TOTP secret lifecycle of an identity and the
// trial window that opens when two-factor authentication is enabled.
//
// An identity moves through three states:
//
//	no_secret --begin_setup--> pending_setup --complete_setup--> enabled
//	                 ^                |
//	                 +--expire_setup--+
//
// BeginSetup stores a freshly generated, encrypted secret as a pending setup
// that lives for Config.SetupTTL. CompleteSetup checks a code against it and
// promotes it onto the profile in a single conditional write, starting the
// trial. ValidateLogin checks the trial first and then the code, and on
// success marks the sign-in session as verified in SessionFlags.
//
// Every operation takes the current time explicitly. Store and crypto
// failures are logged with detail and surface to callers as ErrInternal.
package twofactor

// Package email sends transactional mail through Postmark, or writes it to
// disk in development, and provides the fire-and-forget Notifier used by the
// two-factor service.
package email

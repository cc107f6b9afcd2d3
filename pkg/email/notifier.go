package email

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/datumlabs/totpgate/pkg/logger"
)

// Message tags, also used as DevSender file names.
const (
	TagTwoFactorEnabled = "two-factor-enabled"
	TagTrialReset       = "trial-reset"
)

var (
	twoFactorEnabledTmpl = template.Must(template.New(TagTwoFactorEnabled).Parse(
		`<p>Two-factor authentication is now enabled on your {{.App}} account.</p>` +
			`<p>Your trial runs until {{.Until}}.</p>`))
	trialResetTmpl = template.Must(template.New(TagTrialReset).Parse(
		`<p>Your {{.App}} trial access has been approved.</p>` +
			`<p>It is valid until {{.Until}}.</p>`))
)

// Notifier sends account notifications in the background. Delivery
// failures are logged and never reach the caller.
type Notifier struct {
	sender  EmailSender
	app     string
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func NewNotifier(sender EmailSender, app string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sender:  sender,
		app:     app,
		log:     logger.Discard(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// TwoFactorEnabled confirms a completed setup to the account owner.
func (n *Notifier) TwoFactorEnabled(ctx context.Context, to string, trialEnds time.Time) {
	n.send(ctx, to, "Two-factor authentication enabled", TagTwoFactorEnabled, twoFactorEnabledTmpl, trialEnds)
}

// TrialReset tells the user their trial was granted or extended.
func (n *Notifier) TrialReset(ctx context.Context, to string, trialEnds time.Time) {
	n.send(ctx, to, "Your trial access has been approved", TagTrialReset, trialResetTmpl, trialEnds)
}

// Wait blocks until in-flight deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(ctx context.Context, to, subject, tag string, tmpl *template.Template, until time.Time) {
	if to == "" {
		return
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct{ App, Until string }{n.app, until.UTC().Format("January 2, 2006")}); err != nil {
		n.log.ErrorContext(ctx, "failed to render email", slog.String("tag", tag), logger.Error(err))
		return
	}

	// The request that triggered the notification may finish first.
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.ErrorContext(ctx, "email delivery panicked", slog.String("tag", tag), slog.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		err := n.sender.SendEmail(sendCtx, SendEmailParams{
			SendTo:   to,
			Subject:  subject,
			BodyHTML: body.String(),
			Tag:      tag,
		})
		if err != nil {
			n.log.ErrorContext(ctx, "failed to send email", slog.String("tag", tag), logger.Error(err))
		}
	}()
}

package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/datumlabs/totpgate/pkg/email"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

var trialEnds = time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)

func TestNotifier_TwoFactorEnabled(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
		return p.SendTo == "u1@example.com" &&
			p.Tag == email.TagTwoFactorEnabled &&
			assert.Contains(t, p.BodyHTML, "Datum") &&
			assert.Contains(t, p.BodyHTML, "January 4, 2025")
	})).Return(nil).Once()

	n := email.NewNotifier(sender, "Datum")
	n.TwoFactorEnabled(context.Background(), "u1@example.com", trialEnds)
	n.Wait()

	sender.AssertExpectations(t)
}

func TestNotifier_FailureIsSwallowed(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	n := email.NewNotifier(sender, "Datum", email.WithSendTimeout(time.Second))
	assert.NotPanics(t, func() {
		n.TrialReset(context.Background(), "u1@example.com", trialEnds)
		n.Wait()
	})
	sender.AssertExpectations(t)
}

func TestNotifier_SurvivesCancelledContext(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	sender.On("SendEmail", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := email.NewNotifier(sender, "Datum")
	n.TrialReset(ctx, "u1@example.com", trialEnds)
	n.Wait()

	sender.AssertExpectations(t)
}

func TestNotifier_SkipsEmptyRecipient(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	n := email.NewNotifier(sender, "Datum")
	n.TwoFactorEnabled(context.Background(), "", trialEnds)
	n.Wait()

	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

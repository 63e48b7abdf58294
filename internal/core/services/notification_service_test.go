package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yieldcrest/invest_accrual/internal/core/services"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func TestSendAccrualNotice(t *testing.T) {
	ctx := context.Background()
	mailer := new(MockMailer)
	svc := services.NewNotificationService(slog.New(slog.DiscardHandler), mailer)

	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	inv := makeInvestment(now, 1)
	inv.DaysElapsed = 2
	inv.TotalEarned = decimal.RequireFromString("20.00")
	user := *testUser()

	mailer.On("Send", ctx, "ada@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil).Once()

	err := svc.SendAccrualNotice(ctx, user, inv, decimal.RequireFromString("10.00"), time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	subject := mailer.Calls[0].Arguments.Get(2).(string)
	body := mailer.Calls[0].Arguments.Get(3).(string)
	assert.Contains(t, subject, "Starter")
	assert.Contains(t, subject, "day 2 of 3")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Starter")
	assert.Contains(t, body, "$10.00")  // today's return
	assert.Contains(t, body, "$20.00")  // cumulative earned
	assert.Contains(t, body, "$500.00") // principal
	assert.Contains(t, body, "2 of 3")
	assert.Contains(t, body, "Jun 3, 2025")
	mailer.AssertExpectations(t)
}

func TestSendCompletionNotice(t *testing.T) {
	ctx := context.Background()
	mailer := new(MockMailer)
	svc := services.NewNotificationService(slog.New(slog.DiscardHandler), mailer)

	now := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	inv := makeInvestment(now, 2)
	inv.TotalReturn = decimal.RequireFromString("30.00")
	user := *testUser()

	mailer.On("Send", ctx, "ada@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil).Once()

	err := svc.SendCompletionNotice(ctx, user, inv, decimal.RequireFromString("10.00"), now)
	require.NoError(t, err)

	subject := mailer.Calls[0].Arguments.Get(2).(string)
	body := mailer.Calls[0].Arguments.Get(3).(string)
	assert.Contains(t, subject, "Investment complete")
	assert.Contains(t, body, "$500.00") // principal
	assert.Contains(t, body, "$30.00")  // total earned
	assert.Contains(t, body, "$530.00") // payout
	assert.Contains(t, body, "3-day")
	assert.Contains(t, body, "Jun 3, 2025")
	mailer.AssertExpectations(t)
}

func TestSendAccrualNotice_MailerFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mailer := new(MockMailer)
	svc := services.NewNotificationService(slog.New(slog.DiscardHandler), mailer)

	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	inv := makeInvestment(now, 1)

	mailer.On("Send", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("429 too many requests")).Once()

	err := svc.SendAccrualNotice(ctx, *testUser(), inv, inv.DailyReturn(), now)
	require.Error(t, err)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldcrest/invest_accrual/internal/core/domain"
	portssvc "github.com/yieldcrest/invest_accrual/internal/core/ports/services"
)

const accrualEmailTemplate = `
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Daily Return Credited</h2>
  <p>Hi {{.Name}},</p>
  <p>Your <strong>{{.PlanName}}</strong> plan just earned its daily return.</p>
  <table style="width:100%;border-collapse:collapse">
    <tr><td style="padding:6px 0">Plan day</td><td align="right">{{.Day}} of {{.Duration}}</td></tr>
    <tr><td style="padding:6px 0">Today's return</td><td align="right"><strong>{{.Credited}}</strong></td></tr>
    <tr><td style="padding:6px 0">Total earned so far</td><td align="right">{{.TotalEarned}}</td></tr>
    <tr><td style="padding:6px 0">Principal</td><td align="right">{{.Principal}}</td></tr>
  </table>
  <p>Your next return is scheduled for {{.NextAccrual}}.</p>
  <p>The amount has been added to your account balance.</p>
</div>
`

const completionEmailTemplate = `
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <h2>Investment Plan Completed</h2>
  <p>Hi {{.Name}},</p>
  <p>Congratulations! Your <strong>{{.PlanName}}</strong> plan has run its full
  {{.Duration}}-day course and is now complete.</p>
  <table style="width:100%;border-collapse:collapse">
    <tr><td style="padding:6px 0">Principal</td><td align="right">{{.Principal}}</td></tr>
    <tr><td style="padding:6px 0">Total earned</td><td align="right">{{.TotalEarned}}</td></tr>
    <tr><td style="padding:6px 0">Total payout</td><td align="right"><strong>{{.TotalPayout}}</strong></td></tr>
    <tr><td style="padding:6px 0">Completed at</td><td align="right">{{.CompletedAt}}</td></tr>
  </table>
  <p>All earnings have been added to your account balance.</p>
</div>
`

type accrualEmailData struct {
	Name        string
	PlanName    string
	Day         int
	Duration    int
	Credited    string
	TotalEarned string
	Principal   string
	NextAccrual string
}

type completionEmailData struct {
	Name        string
	PlanName    string
	Duration    int
	Principal   string
	TotalEarned string
	TotalPayout string
	CompletedAt string
}

// NotificationService renders and dispatches the accrual and completion
// emails. It implements the Notifier port; callers decide what to do with a
// dispatch failure (the accrual pass logs and moves on).
type NotificationService struct {
	BaseService
	mailer         portssvc.Mailer
	accrualTmpl    *template.Template
	completionTmpl *template.Template
}

var _ portssvc.Notifier = (*NotificationService)(nil)

// NewNotificationService creates the notifier. Templates are compiled once;
// a bad template is a programming error, hence Must.
func NewNotificationService(logger *slog.Logger, mailer portssvc.Mailer) *NotificationService {
	return &NotificationService{
		BaseService:    BaseService{Logger: logger},
		mailer:         mailer,
		accrualTmpl:    template.Must(template.New("accrual").Parse(accrualEmailTemplate)),
		completionTmpl: template.Must(template.New("completion").Parse(completionEmailTemplate)),
	}
}

// SendAccrualNotice emails the owner about one credited daily return.
func (s *NotificationService) SendAccrualNotice(ctx context.Context, user domain.User, inv domain.Investment, credited decimal.Decimal, nextAccrual time.Time) error {
	data := accrualEmailData{
		Name:        user.Name,
		PlanName:    inv.PlanName,
		Day:         inv.DaysElapsed,
		Duration:    inv.PlanDuration,
		Credited:    formatAmount(credited),
		TotalEarned: formatAmount(inv.TotalEarned),
		Principal:   formatAmount(inv.Amount),
		NextAccrual: nextAccrual.UTC().Format("Jan 2, 2006 15:04 MST"),
	}

	var body bytes.Buffer
	if err := s.accrualTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render accrual email for investment %d: %w", inv.ID, err)
	}

	subject := fmt.Sprintf("Daily return credited: %s (day %d of %d)", inv.PlanName, inv.DaysElapsed, inv.PlanDuration)
	if err := s.mailer.Send(ctx, user.Email, subject, body.String()); err != nil {
		return fmt.Errorf("failed to dispatch accrual email for investment %d: %w", inv.ID, err)
	}

	s.LogDebug(ctx, "accrual notice dispatched",
		slog.Int64("investment_id", inv.ID),
		slog.String("to", user.Email))
	return nil
}

// SendCompletionNotice emails the owner about a finished plan.
func (s *NotificationService) SendCompletionNotice(ctx context.Context, user domain.User, inv domain.Investment, _ decimal.Decimal, completedAt time.Time) error {
	data := completionEmailData{
		Name:        user.Name,
		PlanName:    inv.PlanName,
		Duration:    inv.PlanDuration,
		Principal:   formatAmount(inv.Amount),
		TotalEarned: formatAmount(inv.TotalReturn),
		TotalPayout: formatAmount(inv.TotalPayout()),
		CompletedAt: completedAt.UTC().Format("Jan 2, 2006 15:04 MST"),
	}

	var body bytes.Buffer
	if err := s.completionTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render completion email for investment %d: %w", inv.ID, err)
	}

	subject := fmt.Sprintf("Investment complete: %s", inv.PlanName)
	if err := s.mailer.Send(ctx, user.Email, subject, body.String()); err != nil {
		return fmt.Errorf("failed to dispatch completion email for investment %d: %w", inv.ID, err)
	}

	s.LogDebug(ctx, "completion notice dispatched",
		slog.Int64("investment_id", inv.ID),
		slog.String("to", user.Email))
	return nil
}

func formatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

package notify

import (
	"context"
	"errors"

	"form-shield/internal/reporting"
)

// Alert describes a submission whose score crossed the notification threshold.
type Alert struct {
	To string

	FormType     string
	FormID       string
	FormTitle    string
	SubmissionID int64
	Score        float64
	Provider     string
	Reason       string
}

// FormName is the label used in the subject line.
func (a Alert) FormName() string {
	switch {
	case a.FormTitle != "":
		return a.FormTitle
	case a.FormID != "":
		return a.FormType + " #" + a.FormID
	case a.FormType != "":
		return a.FormType
	default:
		return "Unknown Form"
	}
}

// Notifier delivers admin notifications. Callers treat failures as
// best-effort and only log them.
type Notifier interface {
	HighSpamScore(ctx context.Context, a Alert) error
	DailyReport(ctx context.Context, to string, a reporting.Analytics) error
}

var ErrNoRecipient = errors.New("notify: no recipient")

// Noop drops every notification.
type Noop struct{}

func (Noop) HighSpamScore(context.Context, Alert) error { return nil }

func (Noop) DailyReport(context.Context, string, reporting.Analytics) error { return nil }

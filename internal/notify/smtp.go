package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"strings"

	mail "github.com/go-mail/mail/v2"

	"form-shield/internal/reporting"
	"form-shield/pkg/logger"
)

const subjectPrefix = "[form-shield]"

// SMTPConfig mirrors the SMTP_* environment.
type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	SkipTLSVerify bool
}

// Sender is the part of *mail.Dialer the mailer needs.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer sends notifications over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	from   string
	sender Sender
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return &SMTPMailer{from: cfg.From, sender: d}
}

// NewMailerWithSender is used by tests and alternative transports.
func NewMailerWithSender(from string, s Sender) *SMTPMailer {
	return &SMTPMailer{from: from, sender: s}
}

func (m *SMTPMailer) HighSpamScore(ctx context.Context, a Alert) error {
	if strings.TrimSpace(a.To) == "" {
		return ErrNoRecipient
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", a.To)
	msg.SetHeader("Subject", AlertSubject(a))
	msg.SetBody("text/plain", AlertBody(a))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("notify: send alert: %w", err)
	}
	logger.From(ctx).Info("spam alert sent", "submission_id", a.SubmissionID, "score", a.Score)
	return nil
}

func (m *SMTPMailer) DailyReport(ctx context.Context, to string, a reporting.Analytics) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	body, err := RenderDailyReport(a)
	if err != nil {
		return err
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subjectPrefix+" Daily Report")
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("notify: send daily report: %w", err)
	}
	return nil
}

func AlertSubject(a Alert) string {
	return fmt.Sprintf("%s High spam score detected on form: %s", subjectPrefix, a.FormName())
}

func AlertBody(a Alert) string {
	provider := a.Provider
	if provider == "" {
		provider = "Unknown"
	}
	var b strings.Builder
	b.WriteString("A submission with a high spam score has been detected.\n\n")
	fmt.Fprintf(&b, "Form: %s\n", a.FormName())
	fmt.Fprintf(&b, "Spam Score: %d%%\n", int(a.Score))
	fmt.Fprintf(&b, "Provider: %s\n", provider)
	if a.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", a.Reason)
	}
	fmt.Fprintf(&b, "\nSubmission ID: %d\n", a.SubmissionID)
	return b.String()
}

var reportTmpl = template.Must(template.New("daily").Funcs(template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"usd":  func(v float64) string { return fmt.Sprintf("$%.4f", v) },
	"date": func(a reporting.Analytics) string { return a.DateTo.Format("2006-01-02") },
}).Parse(`<h2>form-shield daily report ({{date .}})</h2>
<table>
<tr><td>Total submissions</td><td>{{.Summary.TotalSubmissions}}</td></tr>
<tr><td>Spam blocked</td><td>{{.Summary.SpamSubmissions}}</td></tr>
<tr><td>Approved</td><td>{{.Summary.ApprovedSubmissions}}</td></tr>
<tr><td>Spam rate</td><td>{{pct .Summary.SpamRate}}</td></tr>
<tr><td>API calls</td><td>{{.Summary.TotalAPICalls}}</td></tr>
<tr><td>API cost</td><td>{{usd .Summary.TotalCost}}</td></tr>
</table>
{{if .Providers}}<h3>Providers</h3>
<table>
<tr><th>Provider</th><th>Calls</th><th>Cost</th><th>Success rate</th></tr>
{{range $name, $p := .Providers}}<tr><td>{{$name}}</td><td>{{$p.Calls}}</td><td>{{usd $p.Cost}}</td><td>{{pct $p.SuccessRate}}</td></tr>
{{end}}</table>
{{end}}{{if .Budget.Exceeded}}<p><strong>Daily budget of {{usd .Budget.Limit}} exceeded: {{usd .Budget.SpentToday}} spent.</strong></p>
{{end}}`))

// RenderDailyReport renders the HTML body of the daily report.
func RenderDailyReport(a reporting.Analytics) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("notify: render report: %w", err)
	}
	return buf.String(), nil
}

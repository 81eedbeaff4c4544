// Package mailer delivers outbound notification emails over SMTP. It supports
// plain SMTP, STARTTLS (port 587), and implicit TLS (port 465). All sends are
// best-effort: callers log failures and move on, a dead mail server never
// blocks audit processing.
package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

// Mailer composes and sends notification emails.
type Mailer struct {
	cfg     *config.NotificationsConfig
	baseURL string

	completionTmpl *template.Template
}

// NewMailer creates a Mailer. baseURL is the public address of the API, used
// to build result links in outgoing mail.
func NewMailer(cfg *config.NotificationsConfig, baseURL string) *Mailer {
	return &Mailer{
		cfg:            cfg,
		baseURL:        baseURL,
		completionTmpl: template.Must(template.New("completion").Parse(completionEmailTemplate)),
	}
}

// Enabled reports whether outgoing mail is configured. When false every Send
// method is a silent no-op, so the mailer is always safe to wire in.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.SMTP.Host != ""
}

// SendCompletionEmail notifies a customer that their audit finished and where
// to view the results.
func (m *Mailer) SendCompletionEmail(audit *models.Audit, result *models.AuditResult) error {
	if !m.Enabled() {
		return nil
	}

	var body bytes.Buffer
	err := m.completionTmpl.Execute(&body, struct {
		ContactName   string
		CompanyName   string
		MaturityScore int
		Potential     int
		ResultsURL    string
	}{
		ContactName:   audit.ContactName,
		CompanyName:   audit.CompanyName,
		MaturityScore: result.MaturityScore,
		Potential:     result.AutomationPotential,
		ResultsURL:    fmt.Sprintf("%s/api/v1/audit/results/%s", m.baseURL, audit.ID),
	})
	if err != nil {
		return fmt.Errorf("render completion email: %w", err)
	}

	subject := fmt.Sprintf("Your automation assessment for %s is ready", audit.CompanyName)
	return m.send(audit.ContactEmail, subject, body.String())
}

// SendSubmissionNotification tells the configured admin address that a new
// audit request arrived. No-op when admin_email is unset.
func (m *Mailer) SendSubmissionNotification(audit *models.Audit) error {
	if !m.Enabled() || m.cfg.AdminEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("New audit submission: %s", audit.CompanyName)
	body := fmt.Sprintf(
		"<p>A new automation audit was submitted.</p>"+
			"<p>Company: %s<br>Industry: %s<br>Size: %s<br>Contact: %s (%s)</p>"+
			"<p>Audit ID: %s</p>",
		template.HTMLEscapeString(audit.CompanyName),
		template.HTMLEscapeString(audit.Industry),
		template.HTMLEscapeString(audit.CompanySize),
		template.HTMLEscapeString(audit.ContactName),
		template.HTMLEscapeString(audit.ContactEmail),
		audit.ID,
	)
	return m.send(m.cfg.AdminEmail, subject, body)
}

// send composes RFC 5322 headers and delivers one HTML message.
func (m *Mailer) send(toEmail, subject, htmlBody string) error {
	smtpCfg := &m.cfg.SMTP

	from := smtpCfg.From
	if smtpCfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", smtpCfg.FromName, smtpCfg.From)
	}

	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n",
		from, toEmail, subject,
	)
	msg := []byte(headers + htmlBody + "\r\n")

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	var auth smtp.Auth
	if smtpCfg.Username != "" {
		auth = smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)
	}

	if smtpCfg.UseTLS {
		return sendMailTLS(addr, smtpCfg.Host, auth, smtpCfg.From, []string{toEmail}, msg)
	}
	return smtp.SendMail(addr, auth, smtpCfg.From, []string{toEmail}, msg)
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a message.
// If the TLS dial fails it falls back to smtp.SendMail, which negotiates
// STARTTLS on port 587 automatically, so UseTLS=true covers both encrypted
// configurations.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

var completionEmailTemplate = `
<html>
<body style="font-family: Arial, sans-serif; color: #0f172a;">
  <h2 style="color: #2563eb;">Your automation assessment is ready</h2>
  <p>Hello {{.ContactName}},</p>
  <p>The business automation audit for <strong>{{.CompanyName}}</strong> has completed.</p>
  <table style="border-collapse: collapse; margin: 16px 0;">
    <tr>
      <td style="padding: 8px 16px 8px 0;">Automation maturity</td>
      <td style="padding: 8px 0; font-weight: bold;">{{.MaturityScore}} / 100</td>
    </tr>
    <tr>
      <td style="padding: 8px 16px 8px 0;">Automation potential</td>
      <td style="padding: 8px 0; font-weight: bold;">{{.Potential}} / 100</td>
    </tr>
  </table>
  <p><a href="{{.ResultsURL}}">View your full results</a></p>
  <p style="color: #64748b; font-size: 12px;">XTeam.Pro Business Automation</p>
</body>
</html>
`

// Package notify implements the outbound notification channels fanned
// out to after an accepted submission: operator email, submitter
// auto-reply, Slack webhook, and HubSpot CRM upsert.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"sitekit/internal/server/config"
	"sitekit/internal/server/service"
)

// ErrMailDisabled is returned when no SMTP host is configured.
var ErrMailDisabled = errors.New("smtp not configured")

const dialTimeout = 10 * time.Second

// SMTPMailer sends the operator notification and the auto-reply via
// the configured mail relay.
type SMTPMailer struct {
	cfg *config.Config
}

// NewSMTPMailer creates a mailer for the given configuration.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendNotification emails the operator inbox, CC'ing the team address
// for the submission's purpose when one is configured.
func (m *SMTPMailer) SendNotification(ctx context.Context, sub *service.Submission, attachments []service.StoredAttachment) error {
	to := []string{m.cfg.ToEmail}
	cc := config.TeamEmails[sub.Purpose]
	if cc != "" {
		to = append(to, cc)
	}

	subject, body := buildNotification(sub, attachments)
	msg := m.buildMessage(m.cfg.ToEmail, cc, fmt.Sprintf("%s %s <%s>", sub.FirstName, sub.LastName, sub.Email), subject, body)

	return m.send(ctx, to, msg)
}

// SendAutoReply emails the submitter an acknowledgement.
func (m *SMTPMailer) SendAutoReply(ctx context.Context, sub *service.Submission) error {
	subject, body := buildAutoReply(sub)
	msg := m.buildMessage(sub.Email, "", m.cfg.FromEmail, subject, body)

	return m.send(ctx, []string{sub.Email}, msg)
}

// buildNotification renders the operator email.
func buildNotification(sub *service.Submission, attachments []service.StoredAttachment) (subject, body string) {
	subject = "New Contact Form Submission - " + sub.Purpose

	var b strings.Builder
	b.WriteString("New contact form submission\n\n")
	writeField(&b, "Name", sub.FirstName+" "+sub.LastName)
	writeField(&b, "Email", sub.Email)
	writeField(&b, "Company", sub.Company)
	writeField(&b, "Job Title", orDefault(sub.JobTitle, "Not provided"))
	writeField(&b, "Phone", orDefault(sub.Phone, "Not provided"))
	writeField(&b, "Country", sub.Country)
	writeField(&b, "Purpose", sub.Purpose)
	writeField(&b, "Budget", orDefault(sub.Budget, "Not specified"))
	writeField(&b, "Timeline", orDefault(sub.Timeline, "Not specified"))
	b.WriteString("\nMessage:\n" + sub.Message + "\n")

	if len(attachments) > 0 {
		b.WriteString("\nUploaded files:\n")
		for _, att := range attachments {
			b.WriteString(fmt.Sprintf("- %s (%.2f MB)\n", att.OriginalName, float64(att.Size)/1024/1024))
		}
	}

	b.WriteString("\n---\n")
	writeField(&b, "Submitted", orDefault(sub.Timestamp, time.Now().UTC().Format(time.RFC3339)))
	writeField(&b, "IP Address", sub.IP)
	writeField(&b, "User Agent", sub.UserAgent)

	return subject, b.String()
}

// buildAutoReply renders the acknowledgement sent to the submitter.
func buildAutoReply(sub *service.Submission) (subject, body string) {
	subject = "Thank you for contacting DIDC - We'll be in touch soon"

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", sub.FirstName)
	fmt.Fprintf(&b, "Thank you for reaching out regarding %s. We've received your message and appreciate your interest.\n\n", sub.Purpose)
	b.WriteString("What happens next:\n")
	b.WriteString("- A member of our team will review your inquiry within 24 hours\n")
	b.WriteString("- You'll receive a follow-up email or call to discuss your requirements\n")
	b.WriteString("- We'll prepare a customized solution proposal for your needs\n\n")
	b.WriteString("Best regards,\nThe DIDC Team\n")

	return subject, b.String()
}

// buildMessage assembles an RFC 5322 message.
func (m *SMTPMailer) buildMessage(to, cc, replyTo, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// send delivers a message to the relay. The dial is bounded by both the
// dial timeout and the caller's context.
func (m *SMTPMailer) send(ctx context.Context, recipients []string, msg []byte) error {
	if m.cfg.SMTPHost == "" {
		return ErrMailDisabled
	}

	addr := net.JoinHostPort(m.cfg.SMTPHost, m.cfg.SMTPPort)
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial mail relay %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	if m.cfg.SMTPUsername != "" && m.cfg.SMTPPassword != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}

	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("mail from rejected: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

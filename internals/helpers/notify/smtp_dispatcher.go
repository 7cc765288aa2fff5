package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"lurnex_backend/internals/configs"
)

type message struct {
	To      []string
	Subject string
	HTML    string
}

// SMTPDispatcher renders HTML notices and sends them over STARTTLS (or
// implicit TLS on port 465).
type SMTPDispatcher struct {
	cfg  configs.SMTPConfig
	loc  *time.Location
	send func(ctx context.Context, m message) error
}

func NewSMTPDispatcher(cfg configs.SMTPConfig, loc *time.Location) *SMTPDispatcher {
	if loc == nil {
		loc = time.UTC
	}
	d := &SMTPDispatcher{cfg: cfg, loc: loc}
	d.send = d.deliver
	return d
}

var cancellationTpl = template.Must(template.New("cancel").Parse(`<p>Hello {{.Name}},</p>
<p>The class <strong>{{.Title}}</strong> scheduled for {{.When}} has been cancelled by the {{.By}}.</p>
<p>Reason: {{.Reason}}</p>
<p>No hours were deducted for this class.</p>`))

var credentialsTpl = template.Must(template.New("credentials").Parse(`<p>Hello {{.Name}},</p>
<p>Your {{.Role}} account is ready. Sign in with:</p>
<p>Email: <strong>{{.Email}}</strong><br>Temporary password: <strong>{{.Password}}</strong></p>
<p>You will be asked to change this password after signing in.</p>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NotifyCancellation sends one message per recipient so addresses are not
// disclosed to each other. All failures are joined.
func (d *SMTPDispatcher) NotifyCancellation(ctx context.Context, n CancellationNotice) error {
	recipients := append([]Recipient(nil), n.Students...)
	if n.Trainer != nil {
		recipients = append(recipients, *n.Trainer)
	}
	when := n.StartAt.In(d.loc).Format("Mon, 02 Jan 2006 15:04 MST")

	var errs []error
	for _, r := range recipients {
		if strings.TrimSpace(r.Email) == "" {
			continue
		}
		body, err := render(cancellationTpl, map[string]any{
			"Name": r.Name, "Title": n.Title, "When": when, "By": n.CancelledBy, "Reason": n.Reason,
		})
		if err != nil {
			return err
		}
		if err := d.send(ctx, message{To: []string{r.Email}, Subject: "Class cancelled: " + n.Title, HTML: body}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Email, err))
		}
	}
	return errors.Join(errs...)
}

func (d *SMTPDispatcher) NotifyCredentials(ctx context.Context, n CredentialsNotice) error {
	body, err := render(credentialsTpl, map[string]any{
		"Name": n.Recipient.Name, "Role": n.Role, "Email": n.Recipient.Email, "Password": n.TemporaryPassword,
	})
	if err != nil {
		return err
	}
	return d.send(ctx, message{To: []string{n.Recipient.Email}, Subject: "Your Lurnex account", HTML: body})
}

func (d *SMTPDispatcher) buildMIME(m message) []byte {
	var b bytes.Buffer
	from := d.cfg.From
	if d.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", d.cfg.FromName), d.cfg.From)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(m.HTML)
	return b.Bytes()
}

func (d *SMTPDispatcher) deliver(ctx context.Context, m message) error {
	addr := net.JoinHostPort(d.cfg.Host, fmt.Sprint(d.cfg.Port))
	timeout := 15 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	dialer := &net.Dialer{Timeout: timeout}

	var conn net.Conn
	var err error
	if d.cfg.Port == 465 {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: d.cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	c, err := smtp.NewClient(conn, d.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && d.cfg.Port != 465 {
		if err := c.StartTLS(&tls.Config{ServerName: d.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if d.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(d.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range m.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(d.buildMIME(m)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}

package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// implicitTLSPort is the SMTPS port, where TLS starts before the SMTP greeting.
const implicitTLSPort = "465"

type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	Username string
	Password string
	From     string
	To       []string
}

// EmailNotifier sends plain-text mail over SMTP.
type EmailNotifier struct {
	smtpHost string
	smtpPort string
	username string
	password string
	from     string
	to       []string

	// send is swapped out in tests
	send func(ctx context.Context, msg []byte) error
}

// NewEmailNotifier creates an SMTP notifier. An empty Username logs in as From.
func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	if config.Username == "" {
		config.Username = config.From
	}
	e := &EmailNotifier{
		smtpHost: config.SMTPHost,
		smtpPort: config.SMTPPort,
		username: config.Username,
		password: config.Password,
		from:     config.From,
		to:       config.To,
	}
	e.send = e.sendSMTP
	return e
}

func (e *EmailNotifier) Type() string {
	return "email"
}

func (e *EmailNotifier) Notify(ctx context.Context, subject, body string) error {
	if len(e.to) == 0 {
		return crerr.Mark(crerr.New("no email recipients configured"), ErrNotify)
	}
	if err := e.send(ctx, []byte(e.buildMessage(subject, body))); err != nil {
		return crerr.Mark(crerr.Wrap(err, "sending email"), ErrNotify)
	}
	return nil
}

func (e *EmailNotifier) buildMessage(subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.to, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", encodeHeader(subject)))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}

// encodeHeader flattens line breaks and RFC 2047-encodes non-ASCII text.
func encodeHeader(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	return mime.QEncoding.Encode("utf-8", value)
}

func (e *EmailNotifier) sendSMTP(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(e.smtpHost, e.smtpPort)
	tlsConfig := &tls.Config{ServerName: e.smtpHost}

	var (
		conn net.Conn
		err  error
	)
	if e.smtpPort == implicitTLSPort {
		conn, err = (&tls.Dialer{Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return crerr.Wrap(err, "dialing SMTP server")
	}

	c, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		conn.Close()
		return crerr.Wrap(err, "starting SMTP session")
	}
	defer c.Close()

	if e.smtpPort != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return crerr.Wrap(err, "starting TLS")
			}
		}
	}
	return e.deliver(c, msg)
}

// deliver runs one mail transaction on an open session.
func (e *EmailNotifier) deliver(c *smtp.Client, msg []byte) error {
	if ok, _ := c.Extension("AUTH"); ok && e.username != "" {
		if err := c.Auth(smtp.PlainAuth("", e.username, e.password, e.smtpHost)); err != nil {
			return crerr.Wrap(err, "authenticating")
		}
	}
	if err := c.Mail(e.from); err != nil {
		return crerr.Wrap(err, "setting sender")
	}
	for _, rcpt := range e.to {
		if err := c.Rcpt(rcpt); err != nil {
			return crerr.Wrapf(err, "recipient %s", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return crerr.Wrap(err, "opening message body")
	}
	if _, err := w.Write(msg); err != nil {
		return crerr.Wrap(err, "writing message body")
	}
	if err := w.Close(); err != nil {
		return crerr.Wrap(err, "finishing message body")
	}
	if err := c.Quit(); err != nil {
		return crerr.Wrap(err, "closing SMTP session")
	}
	return nil
}

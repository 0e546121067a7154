package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// EmailChannel delivers a rendered alert email.
type EmailChannel interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPChannel sends alert emails through a plain SMTP relay.
type SMTPChannel struct {
	host     string
	port     int
	from     string
	username string
	password string
}

// NewSMTPChannel constructs an SMTP email channel.
func NewSMTPChannel(host string, port int, from, username, password string) (*SMTPChannel, error) {
	if host == "" {
		return nil, errors.New("smtp channel: empty host")
	}
	if from == "" {
		return nil, errors.New("smtp channel: empty from address")
	}
	if port <= 0 {
		port = 587
	}
	return &SMTPChannel{host: host, port: port, from: from, username: username, password: password}, nil
}

// Send delivers one message. The context deadline bounds the whole exchange
// via the connection deadline.
func (c *SMTPChannel) Send(ctx context.Context, to, subject, body string) error {
	if c == nil {
		return errors.New("smtp channel: nil channel")
	}
	if to == "" {
		return errors.New("smtp channel: empty recipient")
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return err
		}
	}
	if c.username != "" {
		auth := smtp.PlainAuth("", c.username, c.password, c.host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(c.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	message := buildMIMEMessage(c.from, to, subject, body)
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMIMEMessage(from, to, subject, body string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}

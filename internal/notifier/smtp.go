package notifier

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPNotifier sends HTML e-mail through an authenticated SMTP relay.
// smtp.SendMail upgrades with STARTTLS when the server offers it.
type SMTPNotifier struct {
	Server   string
	Port     int
	From     string
	Password string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

func NewSMTPNotifier(server string, port int, from, password string) *SMTPNotifier {
	return &SMTPNotifier{
		Server:   server,
		Port:     port,
		From:     from,
		Password: password,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
}

func (s *SMTPNotifier) Name() string { return "smtp" }

// Send mails body to recipient, or to the sender address when recipient is empty.
func (s *SMTPNotifier) Send(ctx context.Context, subject, body, recipient string) error {
	if err := ctx.Err(); err != nil {
		return deliveryError(s.Name(), err)
	}
	if recipient == "" || !strings.Contains(recipient, "@") {
		recipient = s.From
	}
	addr := net.JoinHostPort(s.Server, strconv.Itoa(s.Port))
	auth := smtp.PlainAuth("", s.From, s.Password, s.Server)
	if err := s.sendMail(addr, auth, s.From, []string{recipient}, s.message(subject, body, recipient)); err != nil {
		return deliveryError(s.Name(), err)
	}
	return nil
}

func (s *SMTPNotifier) message(subject, body, to string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "<br>\r\n"))
	return []byte(b.String())
}

package share

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// MailSender is the part of *gomail.Dialer the sink uses
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSink mails images as attachments
type EmailSink struct {
	Mailer  MailSender
	From    string
	To      string
	Subject string
}

// NewEmailSink dials host:port with the given credentials on every save
func NewEmailSink(host string, port int, user, password, from, to string) *EmailSink {
	dialer := gomail.NewDialer(host, port, user, password)
	dialer.SSL = port == 465
	return &EmailSink{
		Mailer:  dialer,
		From:    from,
		To:      to,
		Subject: "Payment QR code",
	}
}

func (s *EmailSink) Save(ctx context.Context, image []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", s.From)
	message.SetHeader("To", s.To)
	message.SetHeader("Subject", s.Subject)
	message.SetBody("text/plain", fmt.Sprintf("The payment QR code is attached as %s.", filename))
	message.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(image)
		return err
	}))

	if err := s.Mailer.DialAndSend(message); err != nil {
		return fmt.Errorf("share: could not send email: %w", err)
	}
	return nil
}

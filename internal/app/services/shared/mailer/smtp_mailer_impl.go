package mailer

import (
	"carelink-service/internal/app/contracts"
	"carelink-service/internal/app/drivers/mailer"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/dto/requests"
	"carelink-service/internal/pkg/exceptions"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type smtpMailerService struct {
	Client *mailer.SMTPClient
	Log    *zap.Logger
	dial   dialFunc
}

func NewSMTPMailerService(client *mailer.SMTPClient, log *zap.Logger) contracts.MailerService {
	dialer := &net.Dialer{}
	return &smtpMailerService{
		Client: client,
		Log:    log,
		dial:   dialer.DialContext,
	}
}

// SendEmail runs the whole SMTP exchange under ctx: its deadline bounds every
// read and write and cancelling it drops the connection.
func (s *smtpMailerService) SendEmail(ctx context.Context, request *requests.EmailPayload) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.Client.Host)

	err := s.deliver(ctx, request.From, request.To, buildMIMEMessage(messageID, request))
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		case errors.Is(err, os.ErrDeadlineExceeded):
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", exceptions.ErrSMTPSendMail(err)
	}

	s.Log.Debug("smtpMailerService.SendEmail delivered",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingMessageIDKey, messageID),
	)
	return messageID, nil
}

func (s *smtpMailerService) deliver(ctx context.Context, from string, to []string, msg []byte) error {
	conn, err := s.dial(ctx, "tcp", s.Client.Address())
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, s.Client.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.Client.Host}); err != nil {
			return err
		}
	}
	if s.Client.Auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(s.Client.Auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return err
		}
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(msg); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMIMEMessage(messageID string, request *requests.EmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", request.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(request.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", request.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	b.WriteString("MIME-Version: 1.0\r\n")
	if request.HTMLCode != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", "text/html; charset=utf-8")
		b.WriteString(request.HTMLCode)
	} else {
		fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", constvars.MIMETextPlainCharsetUTF8)
		b.WriteString(request.Body)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/scholarhub/notify-api/internal/config"
	"github.com/scholarhub/notify-api/internal/model"
)

type Service interface {
	// SendEndorsementNotice tells a record owner that an actor granted a
	// review or endorsement for their record.
	SendEndorsementNotice(ctx context.Context, owner *model.User, record *model.Record, endorsement *model.Endorsement) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendEndorsementNotice(ctx context.Context, owner *model.User, record *model.Record, endorsement *model.Endorsement) error {
	subject := fmt.Sprintf("New %s for %q", endorsement.ReviewType, record.Title)
	body := fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>%s has published a %s for your record <a href=%q>%s</a>.</p>"+
			"<p>You can read it at <a href=%q>%s</a>.</p>",
		owner.DisplayName(),
		endorsement.ActorName,
		endorsement.ReviewType,
		record.URL, record.Title,
		endorsement.ResultURL, endorsement.ResultURL,
	)
	return s.SendCustom(ctx, owner.Email, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

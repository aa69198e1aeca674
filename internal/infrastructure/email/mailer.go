package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/sanosuguru/go-event-backend/internal/config"
	"github.com/sanosuguru/go-event-backend/internal/domain/event"
)

// Mailer は予約通知をSMTPで送信する
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer は新しいMailerを作成する
func NewMailer(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendReservationConfirmation は予約確認メールを送信する
func (m *Mailer) SendReservationConfirmation(_ context.Context, to string, ev *event.Event) error {
	subject := fmt.Sprintf("予約確認: %s", ev.Title)
	body := fmt.Sprintf(
		"イベント「%s」の予約が完了しました。\n開催日時: %s\n場所: %s\n",
		ev.Title, ev.StartAt.Format("2006-01-02 15:04"), ev.Location,
	)
	return m.send(to, subject, body)
}

// SendPaymentReminder は支払いリマインダーメールを送信する
func (m *Mailer) SendPaymentReminder(_ context.Context, to string, ev *event.Event) error {
	subject := fmt.Sprintf("お支払いのお願い: %s", ev.Title)
	body := fmt.Sprintf(
		"イベント「%s」の予約はまだ支払いが完了していません。\n開催日時: %s\n",
		ev.Title, ev.StartAt.Format("2006-01-02 15:04"),
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("メール送信に失敗しました: %w", err)
	}
	return nil
}

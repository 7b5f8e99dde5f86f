package services

import (
	"crypto/tls"
	"fmt"
	"html"

	"github.com/princeprakhar/foodiespace-backend/internal/config"
	"gopkg.in/gomail.v2"
)

type EmailService struct {
	config *config.Config
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	d.TLSConfig = &tls.Config{ServerName: s.config.SMTPHost}

	return d.DialAndSend(m)
}

func (s *EmailService) SendModerationNotice(to, foodName, status string) error {
	subject := fmt.Sprintf("Your review of %s was %s", foodName, status)
	return s.SendEmail(to, subject, moderationNoticeBody(foodName, status))
}

// moderationNoticeBody renders the notice HTML. foodName comes from the review author and is escaped.
func moderationNoticeBody(foodName, status string) string {
	status = html.EscapeString(status)
	return fmt.Sprintf(`
		<h2>Review %s</h2>
		<p>Your review of <strong>%s</strong> is now <strong>%s</strong>.</p>
		<p>Approved reviews are visible to everyone on FoodieSpace.</p>
		<p>Thanks for sharing,<br>The FoodieSpace Team</p>
	`, status, html.EscapeString(foodName), status)
}

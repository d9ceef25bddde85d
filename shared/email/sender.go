package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"trend-finder/internal/models"
	"trend-finder/shared/config"
	"trend-finder/shared/logger"
)

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(template.New("digest.html").Funcs(template.FuncMap{
	"formatCount": models.FormatCount,
	"formatDate":  models.FormatPublished,
}).ParseFS(templateFS, "templates/digest.html"))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendDigest mails the digest. A report without new videos is not sent.
func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if report.NewVideos == 0 {
		logger.Log.Info("Digest has no new videos, skipping e-mail")
		return nil
	}

	subject := fmt.Sprintf("Niche Trend Digest - %d New Videos Across %d Niches (%s)",
		report.NewVideos, len(report.Niches), report.Date.Format("Jan 2, 2006"))

	body, err := renderDigest(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	from := s.config.FromEmail
	if from == "" {
		from = s.config.Username
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)

	if err := s.send(addr, auth, from, []string{s.config.ToEmail}, buildMessage(from, s.config.ToEmail, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	logger.Log.WithField("to", s.config.ToEmail).Infof("Sent e-mail %q", subject)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", to, from, subject, body))
}

func renderDigest(report *models.DigestReport) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

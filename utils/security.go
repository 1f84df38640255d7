package utils

import (
	"context"
	"fmt"
	"log/slog"

	"tasklist/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// dummyHash is compared against when no user matches a login so that
// unknown emails and wrong passwords cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), passwordCost)
}

func CheckPasswordHash(password string, hash []byte) bool {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return err == nil
}

// BurnPasswordCheck spends the time of one failed password comparison.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Mailer sends account emails through SendGrid. A nil *Mailer sends nothing.
type Mailer struct {
	apiKey string
	host   string
	from   *mail.Email
	logger *slog.Logger
}

// NewMailer returns nil when apiKey is empty, which disables mail. host is
// the SendGrid API base URL.
func NewMailer(apiKey, host, fromName, fromAddress string, logger *slog.Logger) *Mailer {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mailer{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

// SendWelcome emails a newly created user.
func (m *Mailer) SendWelcome(ctx context.Context, u models.User) error {
	if m == nil {
		return nil
	}

	subject := "Welcome to Task List"
	to := mail.NewEmail(u.Name, u.Email)
	plainTextContent := fmt.Sprintf("Hi %s, your account is ready. Start by creating your first task.", u.Name)
	htmlContent := fmt.Sprintf("<strong>Hi %s, your account is ready.</strong> Start by creating your first task.", u.Name)
	message := mail.NewSingleEmail(m.from, subject, to, plainTextContent, htmlContent)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send welcome email: %w", &MailError{StatusCode: response.StatusCode, Body: response.Body})
	}

	m.logger.Info("welcome email sent", "user_id", u.ID)
	return nil
}

// MailError is a non-2xx reply from the mail API.
type MailError struct {
	StatusCode int
	Body       string
}

func (e *MailError) Error() string {
	return fmt.Sprintf("mail api returned %d: %s", e.StatusCode, e.Body)
}


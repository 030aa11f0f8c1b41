package services

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailMessage is a plain outbound email.
type MailMessage struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// ConsoleMailer logs messages instead of sending them (no SendGrid key configured).
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, msg MailMessage) error {
	log.Printf("📧 [MAIL] to=%s <%s> subject=%q\n%s", msg.ToName, msg.ToEmail, msg.Subject, msg.Text)
	return nil
}

const sendgridEndpoint = "/v3/mail/send"

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgridMailer(key, appName, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		key:        key,
		host:       "https://api.sendgrid.com",
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

// WithHost points the mailer at another API host (tests).
func (m *SendgridMailer) WithHost(host string) *SendgridMailer {
	m.host = host
	return m
}

// The SendGrid client has no context support at this version; the API call is bounded by its own client timeout.
func (m *SendgridMailer) Send(_ context.Context, msg MailMessage) error {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

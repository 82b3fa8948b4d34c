package mailer

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
)

// Mailer delivers transactional mail. Handlers depend on the interface so
// tests can swap in a recorder.
type Mailer interface {
	SendOtp(to string, name string, otp string) error
}

type HttpMailer struct {
	client *resty.Client
	apiKey string
	from   string
}

func New() *HttpMailer {
	client := resty.New()
	client.SetBaseURL(os.Getenv("MAIL_API_URL"))
	return &HttpMailer{
		client: client,
		apiKey: os.Getenv("MAIL_API_KEY"),
		from:   os.Getenv("MAIL_FROM"),
	}
}

type mailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (m *HttpMailer) SendOtp(to string, name string, otp string) error {
	if m.client.BaseURL == "" {
		return errors.New("MAIL_API_URL is not set")
	}
	res, err := m.client.R().
		SetHeader("Authorization", "Bearer "+m.apiKey).
		SetBody(mailPayload{
			From:    m.from,
			To:      to,
			Subject: "Your verification code",
			Text:    fmt.Sprintf("Hi %s, your one time verification code is %s", name, otp),
		}).
		Post("/v1/send")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("mail api responded %s", res.Status())
	}
	return nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/mailjet/mailjet-apiv3-go/v4"
)

type mailjetConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

type mailjetClient interface {
	SendMailV31(data *mailjet.MessagesV31, options ...mailjet.RequestOptions) (*mailjet.ResultsV31, error)
}

type mailjetSender struct {
	client mailjetClient
	from   mailjet.RecipientV31
}

func init() {
	Register("mailjet", createMailjetSender)
}

func createMailjetSender(args interface{}) (Sender, error) {
	c := mailjetConfig{}
	if err := decodeConfig(args, &c); err != nil {
		return nil, err
	}
	if c.APIKey == "" || c.SecretKey == "" || c.FromEmail == "" {
		return nil, fmt.Errorf("mailjet api_key/secret_key/from_email are required")
	}
	if c.FromName == "" {
		c.FromName = "Medical Reminder"
	}
	return &mailjetSender{
		client: mailjet.NewMailjetClient(c.APIKey, c.SecretKey),
		from:   mailjet.RecipientV31{Email: c.FromEmail, Name: c.FromName},
	}, nil
}

func (m *mailjetSender) Send(_ context.Context, msg Message) error {
	from := m.from
	info := mailjet.InfoMessagesV31{
		From:     &from,
		To:       &mailjet.RecipientsV31{{Email: msg.To, Name: "Patient"}},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
		Headers: map[string]interface{}{
			"List-Unsubscribe": fmt.Sprintf("<mailto:%s?subject=unsubscribe>", m.from.Email),
		},
	}
	res, err := m.client.SendMailV31(&mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{info}})
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	for _, r := range res.ResultsV31 {
		if r.Status != "success" {
			return fmt.Errorf("mailjet send to %s: status %s", msg.To, r.Status)
		}
	}
	return nil
}

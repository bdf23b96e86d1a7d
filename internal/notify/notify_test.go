package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/config"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(config.ProviderConfig{Type: "pigeon"})
	require.Error(t, err)
	_, err = New(config.ProviderConfig{Type: "smtp", Data: map[string]interface{}{"host": "mail"}})
	require.Error(t, err)
	_, err = New(config.ProviderConfig{Type: "mailjet", Data: map[string]interface{}{"api_key": "k"}})
	require.Error(t, err)

	s, err := New(config.ProviderConfig{Type: "smtp", Data: map[string]interface{}{
		"host": "mail", "port": 25, "from": "bot@med.local",
	}})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg string
	s := &smtpSender{
		cfg: smtpConfig{Host: "mail", Port: 2525, From: "bot@med.local"},
		send: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		},
	}
	err := s.Send(context.Background(), Message{To: "a@b.com", Subject: "Hi", Text: "plain", HTML: "<p>rich</p>"})
	require.NoError(t, err)
	require.Equal(t, "mail:2525", gotAddr)
	require.Equal(t, []string{"a@b.com"}, gotTo)
	require.Contains(t, gotMsg, "Subject: Hi\r\n")
	require.Contains(t, gotMsg, "multipart/alternative")
	require.True(t, strings.HasSuffix(gotMsg, "--medassist-alt--\r\n"))
}

type fakeMailjet struct {
	got    *mailjet.MessagesV31
	status string
}

func (f *fakeMailjet) SendMailV31(data *mailjet.MessagesV31, _ ...mailjet.RequestOptions) (*mailjet.ResultsV31, error) {
	f.got = data
	return &mailjet.ResultsV31{ResultsV31: []mailjet.ResultV31{{Status: f.status}}}, nil
}

func TestMailjetSender(t *testing.T) {
	fake := &fakeMailjet{status: "success"}
	s := &mailjetSender{client: fake, from: mailjet.RecipientV31{Email: "bot@med.local", Name: "Medical Reminder"}}
	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.com", Subject: "S", Text: "T"}))
	require.Len(t, fake.got.Info, 1)
	require.Equal(t, "S", fake.got.Info[0].Subject)
	require.Equal(t, "a@b.com", (*fake.got.Info[0].To)[0].Email)

	fake.status = "error"
	require.Error(t, s.Send(context.Background(), Message{To: "a@b.com"}))
}

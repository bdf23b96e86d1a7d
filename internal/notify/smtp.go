package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type smtpConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type smtpSender struct {
	cfg  smtpConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func init() {
	Register("smtp", createSMTPSender)
}

func createSMTPSender(args interface{}) (Sender, error) {
	c := smtpConfig{}
	if err := decodeConfig(args, &c); err != nil {
		return nil, err
	}
	c.From = strings.TrimSpace(c.From)
	if c.Host == "" || c.Port == 0 || c.From == "" {
		return nil, fmt.Errorf("smtp host/port/from are required")
	}
	return &smtpSender{cfg: c, send: smtp.SendMail}, nil
}

func (s *smtpSender) Send(_ context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return s.send(addr, auth, s.cfg.From, []string{msg.To}, buildMIME(s.cfg.From, msg))
}

func buildMIME(from string, msg Message) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + msg.Subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML == "" {
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		sb.WriteString(msg.Text)
		return []byte(sb.String())
	}
	const boundary = "medassist-alt"
	sb.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
	sb.WriteString("--" + boundary + "\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n" + msg.Text + "\r\n")
	sb.WriteString("--" + boundary + "\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n" + msg.HTML + "\r\n")
	sb.WriteString("--" + boundary + "--\r\n")
	return []byte(sb.String())
}

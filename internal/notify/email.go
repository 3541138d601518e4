// Package notify tells operators and downstream systems about new leads.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/agencia-digital/app-leads/internal/models"
	"gopkg.in/gomail.v2"
)

// EmailConfig configures the SMTP relay
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

var leadEmailTemplate = template.Must(template.New("lead").Parse(`New lead received

Name:    {{.Name}}
Email:   {{.Email}}
Phone:   {{.Phone}}
Company: {{.Company}}
Source:  {{.Source}}
{{- with .Campaign}}
Campaign: {{.Platform}} {{.CampaignName}}
{{- end}}
{{- with .Subject}}
Subject: {{.}}
{{- end}}
{{- with .Message}}

{{.}}
{{- end}}

Lead ID: {{.ID.Hex}}
`))

// EmailNotifier mails every new lead to the operator list
type EmailNotifier struct {
	from string
	to   []string
	send func(m ...*gomail.Message) error
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailNotifier{from: cfg.From, to: cfg.To, send: dialer.DialAndSend}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) NotifyLeadCreated(ctx context.Context, lead *models.Lead) error {
	if len(n.to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.buildMessage(lead)
	if err != nil {
		return err
	}
	if err := n.send(msg); err != nil {
		return fmt.Errorf("failed to send lead email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) buildMessage(lead *models.Lead) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := leadEmailTemplate.Execute(&body, lead); err != nil {
		return nil, fmt.Errorf("failed to render lead email: %w", err)
	}

	subject := "New lead"
	if lead.Name != "" {
		subject = "New lead: " + lead.Name
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to...)
	m.SetHeader("Subject", fmt.Sprintf("%s (%s)", subject, lead.Source))
	if lead.Email != "" {
		m.SetHeader("Reply-To", lead.Email)
	}
	m.SetBody("text/plain", body.String())
	return m, nil
}

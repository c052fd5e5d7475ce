package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.resend.com/emails"

// Mailer sends transactional mail.
type Mailer interface {
	SendInvitation(ctx context.Context, to, teamName, inviterName, link string) error
}

// ResendMailer delivers mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint overrides the API endpoint, for tests.
func (m *ResendMailer) WithEndpoint(endpoint string) *ResendMailer {
	m.endpoint = endpoint
	return m
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) SendInvitation(ctx context.Context, to, teamName, inviterName, link string) error {
	subject := fmt.Sprintf("You've been invited to join %s", teamName)
	html := fmt.Sprintf(
		`<p>%s invited you to join the team <strong>%s</strong>.</p>`+
			`<p><a href="%s">Accept the invitation</a></p>`+
			`<p>This invitation expires in 7 days.</p>`,
		inviterName, teamName, link,
	)

	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}

	return nil
}

var _ Mailer = (*ResendMailer)(nil)

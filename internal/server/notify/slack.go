package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sitekit/internal/server/service"
)

// SlackNotifier posts a submission summary to an incoming-webhook URL.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// Notify posts the summary message.
func (s *SlackNotifier) Notify(ctx context.Context, sub *service.Submission) error {
	payload := slackPayload{
		Text: "New Contact Form Submission",
		Attachments: []slackAttachment{{
			Color: "good",
			Fields: []slackField{
				{Title: "Name", Value: sub.FirstName + " " + sub.LastName, Short: true},
				{Title: "Company", Value: sub.Company, Short: true},
				{Title: "Email", Value: sub.Email, Short: true},
				{Title: "Purpose", Value: sub.Purpose, Short: true},
				{Title: "Country", Value: sub.Country, Short: true},
				{Title: "Budget", Value: orDefault(sub.Budget, "Not specified"), Short: true},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sitekit/internal/server/config"
	"sitekit/internal/server/service"
)

func testSubmission() *service.Submission {
	return &service.Submission{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Company:   "Analytical Engines",
		Country:   "UK",
		Purpose:   "ai-ml-consulting",
		Message:   "Interested in your AI consulting services for our new project.",
		Consent:   true,
		IP:        "203.0.113.7",
	}
}

// --- Mail message building ---

func TestBuildNotification(t *testing.T) {
	t.Run("names the purpose in the subject", func(t *testing.T) {
		subject, _ := buildNotification(testSubmission(), nil)
		if subject != "New Contact Form Submission - ai-ml-consulting" {
			t.Errorf("unexpected subject: %s", subject)
		}
	})

	t.Run("includes every field with fallbacks", func(t *testing.T) {
		_, body := buildNotification(testSubmission(), nil)
		for _, want := range []string{
			"Name: Ada Lovelace",
			"Email: ada@example.com",
			"Company: Analytical Engines",
			"Job Title: Not provided",
			"Budget: Not specified",
			"IP Address: 203.0.113.7",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
	})

	t.Run("lists attachments with sizes", func(t *testing.T) {
		_, body := buildNotification(testSubmission(), []service.StoredAttachment{
			{OriginalName: "report.pdf", Size: 2 * 1024 * 1024},
		})
		if !strings.Contains(body, "report.pdf (2.00 MB)") {
			t.Errorf("body missing attachment listing:\n%s", body)
		}
	})
}

func TestMailerRecipients(t *testing.T) {
	cfg := &config.Config{
		FromName:  "DIDC Contact Form",
		FromEmail: "noreply@didc.com",
		ToEmail:   "hello@didc.com",
	}
	m := NewSMTPMailer(cfg)

	t.Run("known purpose resolves the team CC", func(t *testing.T) {
		msg := m.buildMessage(cfg.ToEmail, config.TeamEmails["ai-ml-consulting"], "Ada Lovelace <ada@example.com>", "s", "b")
		if !strings.Contains(string(msg), "Cc: ai@didc.com\r\n") {
			t.Errorf("message missing team CC header:\n%s", msg)
		}
	})

	t.Run("unknown purpose gets no CC header", func(t *testing.T) {
		msg := m.buildMessage(cfg.ToEmail, config.TeamEmails["unknown-purpose"], "Ada <ada@example.com>", "s", "b")
		if strings.Contains(string(msg), "Cc:") {
			t.Errorf("unexpected CC header:\n%s", msg)
		}
	})
}

func TestMailerDisabled(t *testing.T) {
	m := NewSMTPMailer(&config.Config{})

	err := m.SendNotification(context.Background(), testSubmission(), nil)
	if err != ErrMailDisabled {
		t.Errorf("expected ErrMailDisabled, got %v", err)
	}
}

// --- Slack ---

func TestSlackNotify(t *testing.T) {
	t.Run("posts the summary payload", func(t *testing.T) {
		var got slackPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &got); err != nil {
				t.Errorf("invalid payload: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		if err := NewSlackNotifier(srv.URL).Notify(context.Background(), testSubmission()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.Text != "New Contact Form Submission" {
			t.Errorf("unexpected text: %s", got.Text)
		}
		if len(got.Attachments) != 1 || len(got.Attachments[0].Fields) != 6 {
			t.Fatalf("unexpected attachment shape: %+v", got.Attachments)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		if err := NewSlackNotifier(srv.URL).Notify(context.Background(), testSubmission()); err == nil {
			t.Error("expected error for 500 response")
		}
	})
}

// --- HubSpot ---

func TestHubSpotUpsertContact(t *testing.T) {
	t.Run("creates the contact with lead properties", func(t *testing.T) {
		var got hubspotContact
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/crm/v3/objects/contacts" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			auth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		client := NewHubSpotClient("test-key")
		client.baseURL = srv.URL

		if err := client.UpsertContact(context.Background(), testSubmission()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if got.Properties["email"] != "ada@example.com" || got.Properties["lifecyclestage"] != "lead" {
			t.Errorf("unexpected properties: %+v", got.Properties)
		}
	})

	t.Run("rejection status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewHubSpotClient("bad-key")
		client.baseURL = srv.URL

		if err := client.UpsertContact(context.Background(), testSubmission()); err == nil {
			t.Error("expected error for 403 response")
		}
	})
}

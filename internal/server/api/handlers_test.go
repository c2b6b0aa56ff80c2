package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sitekit/internal/server/audit"
	"sitekit/internal/server/config"
	"sitekit/internal/server/ratelimit"
	"sitekit/internal/server/service"
	"sitekit/internal/server/storage"

	"golang.org/x/crypto/bcrypt"
)

type stubMailer struct {
	notifications int
	autoReplies   int
}

func (m *stubMailer) SendNotification(ctx context.Context, sub *service.Submission, attachments []service.StoredAttachment) error {
	m.notifications++
	return nil
}

func (m *stubMailer) SendAutoReply(ctx context.Context, sub *service.Submission) error {
	m.autoReplies++
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubMailer) {
	t.Helper()

	cfg := &config.Config{
		MaxUploadSize:   10 * 1024 * 1024,
		RateLimitWindow: time.Hour,
		RateLimitMax:    5,
	}

	auditLog, err := audit.NewLog(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatalf("failed to create audit log: %v", err)
	}

	mailer := &stubMailer{}
	svc := service.NewContactService(
		cfg,
		ratelimit.NewMemoryLimiter(cfg.RateLimitWindow, cfg.RateLimitMax),
		storage.NewFileSystemStore(t.TempDir()),
		mailer,
		nil, nil, nil,
		auditLog,
	)

	handler := NewHandler(svc, nil, nil, cfg)
	srv := httptest.NewServer(SetupRouter(handler, cfg))
	t.Cleanup(srv.Close)

	return srv, mailer
}

func validForm() url.Values {
	return url.Values{
		"firstName": {"Ada"},
		"lastName":  {"Lovelace"},
		"email":     {"ada@example.com"},
		"company":   {"Analytical Engines"},
		"country":   {"UK"},
		"purpose":   {"ai-ml-consulting"},
		"message":   {"Interested in your AI consulting services."},
		"consent":   {"on"},
	}
}

func postForm(t *testing.T, srv *httptest.Server, form url.Values) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/contact", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return resp, body
}

func TestHandleContact(t *testing.T) {
	t.Run("accepts a valid form submission", func(t *testing.T) {
		srv, mailer := newTestServer(t)

		resp, body := postForm(t, srv, validForm())

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
		}
		if body["success"] != true {
			t.Errorf("expected success=true, got %v", body["success"])
		}
		if msg, _ := body["message"].(string); !strings.Contains(msg, "Thank you") {
			t.Errorf("unexpected message: %v", body["message"])
		}
		if mailer.notifications != 1 || mailer.autoReplies != 1 {
			t.Errorf("expected one notification and one auto-reply, got %d/%d", mailer.notifications, mailer.autoReplies)
		}
	})

	t.Run("reports every validation error", func(t *testing.T) {
		srv, _ := newTestServer(t)

		form := validForm()
		form.Del("firstName")
		form.Set("email", "not-an-email")
		resp, body := postForm(t, srv, form)

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		errs, ok := body["errors"].([]any)
		if !ok || len(errs) < 2 {
			t.Fatalf("expected at least two field errors, got %v", body)
		}
	})

	t.Run("rejects a honeypot submission with a generic error", func(t *testing.T) {
		srv, mailer := newTestServer(t)

		form := validForm()
		form.Set("website", "http://spam.example.com")
		resp, body := postForm(t, srv, form)

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if body["error"] != "Submission rejected" {
			t.Errorf("unexpected error message: %v", body["error"])
		}
		if mailer.notifications != 0 {
			t.Errorf("spam submission must not trigger notifications")
		}
	})

	t.Run("rate limits repeated submissions from one address", func(t *testing.T) {
		srv, _ := newTestServer(t)

		for i := 0; i < 5; i++ {
			resp, body := postForm(t, srv, validForm())
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("submission %d: expected 200, got %d: %v", i+1, resp.StatusCode, body)
			}
		}

		resp, body := postForm(t, srv, validForm())
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.StatusCode)
		}
		if body["error"] != "Too many requests. Please try again later." {
			t.Errorf("unexpected error message: %v", body["error"])
		}
	})

	t.Run("wrong method gets a JSON error", func(t *testing.T) {
		srv, _ := newTestServer(t)

		resp, err := http.Get(srv.URL + "/api/contact")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", resp.StatusCode)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("expected a JSON error body: %v", err)
		}
		if body["error"] == "" {
			t.Error("expected an error message")
		}
	})
}

func TestHandleContactJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{
		"firstName": "Ada",
		"lastName": "Lovelace",
		"email": "ada@example.com",
		"company": "Analytical Engines",
		"country": "UK",
		"purpose": "enterprise-software",
		"message": "We need a partner for a platform rebuild.",
		"consent": true
	}`

	resp, err := http.Post(srv.URL+"/api/contact", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleHealthWithoutDatabase(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "healthy" || body["database"] != "disabled" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestHandleLeadsAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	cfg := &config.Config{AdminPasswordHash: string(hash)}
	handler := NewHandler(nil, nil, nil, cfg)
	srv := httptest.NewServer(SetupRouter(handler, cfg))
	defer srv.Close()

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/leads", nil)
		req.Header.Set("X-Admin-Password", "wrong")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("right password without a database is unavailable", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/leads", nil)
		req.Header.Set("X-Admin-Password", "letmein")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", resp.StatusCode)
		}
	})

	t.Run("hidden when no admin hash is configured", func(t *testing.T) {
		plain := NewHandler(nil, nil, nil, &config.Config{})
		plainSrv := httptest.NewServer(SetupRouter(plain, &config.Config{}))
		defer plainSrv.Close()

		resp, err := http.Get(plainSrv.URL + "/api/leads")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sitekit/internal/server/audit"
	"sitekit/internal/server/config"
	"sitekit/internal/server/database"
	"sitekit/internal/server/ratelimit"
	"sitekit/internal/server/storage"

	"github.com/google/uuid"
)

// Sentinel errors for the service layer.
var (
	ErrRateLimited  = errors.New("too many submissions")
	ErrSpamRejected = errors.New("submission rejected")
)

// ValidationError carries the full list of field errors; every invalid
// field is reported, not just the first.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// allowedExtensions are the attachment types accepted on submissions.
var allowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "txt": true,
	"jpg": true, "jpeg": true, "png": true,
}

// notifyTimeout bounds each outbound notification call so a hung
// dependency cannot hang the request.
const notifyTimeout = 10 * time.Second

// Submission holds the raw field values of one contact-form request.
// Website is the honeypot field: hidden in the form, empty for humans.
type Submission struct {
	FirstName  string `json:"firstName" form:"firstName" validate:"required"`
	LastName   string `json:"lastName" form:"lastName" validate:"required"`
	Email      string `json:"email" form:"email" validate:"required,email"`
	Company    string `json:"company" form:"company" validate:"required"`
	JobTitle   string `json:"jobTitle" form:"jobTitle"`
	Phone      string `json:"phone" form:"phone" validate:"omitempty,phone"`
	Country    string `json:"country" form:"country" validate:"required"`
	Purpose    string `json:"purpose" form:"purpose" validate:"required"`
	Budget     string `json:"budget" form:"budget"`
	Timeline   string `json:"timeline" form:"timeline"`
	Message    string `json:"message" form:"message" validate:"required,min=10"`
	// Checkbox fields arrive as "on" from HTML forms; the handler
	// normalizes them, so form binding is skipped here.
	Consent    bool `json:"consent" form:"-" validate:"required"`
	Newsletter bool `json:"newsletter" form:"-"`

	Website   string `json:"website" form:"website"`
	Timestamp string `json:"timestamp" form:"timestamp"`
	Referrer  string `json:"referrer" form:"referrer"`

	// Set from the request, never from the body
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// StoredAttachment describes one accepted upload.
type StoredAttachment struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
}

// Result is returned after an accepted submission.
type Result struct {
	Message       string
	EmailSent     bool
	AutoReplySent bool
	Attachments   []StoredAttachment
}

// Mailer sends the operator notification and the submitter auto-reply.
type Mailer interface {
	SendNotification(ctx context.Context, sub *Submission, attachments []StoredAttachment) error
	SendAutoReply(ctx context.Context, sub *Submission) error
}

// ChatNotifier posts a submission summary to a chat channel.
type ChatNotifier interface {
	Notify(ctx context.Context, sub *Submission) error
}

// CRMClient upserts the submitter as a CRM contact.
type CRMClient interface {
	UpsertContact(ctx context.Context, sub *Submission) error
}

// LeadStore persists accepted submissions.
type LeadStore interface {
	Create(ctx context.Context, lead *database.Lead) error
}

// AuditLog appends the per-submission audit record.
type AuditLog interface {
	Append(e audit.Entry) error
}

// ContactService contains the business logic for contact-form submissions.
// Optional collaborators (chat, crm, leads) may be nil; the matching
// step is then skipped.
type ContactService struct {
	cfg     *config.Config
	limiter ratelimit.Limiter
	store   storage.Store
	mailer  Mailer
	chat    ChatNotifier
	crm     CRMClient
	leads   LeadStore
	audit   AuditLog
}

// NewContactService creates a new contact service.
func NewContactService(cfg *config.Config, limiter ratelimit.Limiter, store storage.Store, mailer Mailer, chat ChatNotifier, crm CRMClient, leads LeadStore, auditLog AuditLog) *ContactService {
	return &ContactService{
		cfg:     cfg,
		limiter: limiter,
		store:   store,
		mailer:  mailer,
		chat:    chat,
		crm:     crm,
		leads:   leads,
		audit:   auditLog,
	}
}

// Process runs one submission through the pipeline: rate-limit check,
// sanitization, validation, spam filtering, attachment handling,
// notification fan-out, rate-limit commit, persistence and audit.
//
// Spam wins over validation: a spam submission is rejected with a
// generic reason even when field errors exist, so automated senders
// learn nothing about the filter.
func (s *ContactService) Process(ctx context.Context, sub *Submission, files []*multipart.FileHeader) (*Result, error) {
	key := ratelimit.HashKey(sub.IP)

	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("rate-limit check failed: %w", err)
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	sanitizeSubmission(sub)

	fieldErrors := validateSubmission(sub)

	if isSpam(sub) {
		slog.Warn("spam submission rejected", "ip", sub.IP, "honeypot", sub.Website != "")
		return nil, ErrSpamRejected
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	attachments := s.saveAttachments(files)

	emailSent := s.runNotify(ctx, "notification_email", func(ctx context.Context) error {
		return s.mailer.SendNotification(ctx, sub, attachments)
	})
	autoReplySent := s.runNotify(ctx, "auto_reply_email", func(ctx context.Context) error {
		return s.mailer.SendAutoReply(ctx, sub)
	})
	if s.chat != nil {
		s.runNotify(ctx, "chat_webhook", func(ctx context.Context) error {
			return s.chat.Notify(ctx, sub)
		})
	}
	if s.crm != nil {
		s.runNotify(ctx, "crm_upsert", func(ctx context.Context) error {
			return s.crm.UpsertContact(ctx, sub)
		})
	}

	// Commit rate-limit state only for accepted submissions
	if err := s.limiter.Record(ctx, key); err != nil {
		slog.Error("failed to record rate-limit state", "error", err)
	}

	if s.leads != nil {
		lead := &database.Lead{
			ID:         uuid.New().String(),
			FirstName:  sub.FirstName,
			LastName:   sub.LastName,
			Email:      sub.Email,
			Company:    sub.Company,
			JobTitle:   sub.JobTitle,
			Phone:      sub.Phone,
			Country:    sub.Country,
			Purpose:    sub.Purpose,
			Budget:     sub.Budget,
			Timeline:   sub.Timeline,
			Message:    sub.Message,
			Newsletter: sub.Newsletter,
			IP:         sub.IP,
			UserAgent:  sub.UserAgent,
			Referrer:   sub.Referrer,
			EmailSent:  emailSent,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.leads.Create(ctx, lead); err != nil {
			slog.Error("failed to persist lead", "error", err)
		}
	}

	if err := s.audit.Append(audit.Entry{
		Timestamp: time.Now().UTC(),
		IP:        sub.IP,
		Email:     sub.Email,
		Company:   sub.Company,
		Purpose:   sub.Purpose,
		EmailSent: emailSent,
	}); err != nil {
		slog.Error("failed to append audit entry", "error", err)
	}

	slog.Info("submission accepted",
		"email", sub.Email,
		"company", sub.Company,
		"purpose", sub.Purpose,
		"attachments", len(attachments),
		"email_sent", emailSent,
	)

	return &Result{
		Message:       "Thank you for your submission. We will contact you within 24 hours.",
		EmailSent:     emailSent,
		AutoReplySent: autoReplySent,
		Attachments:   attachments,
	}, nil
}

// runNotify executes one best-effort notification step under a timeout.
// Failures are logged and reported, never escalated.
func (s *ContactService) runNotify(ctx context.Context, channel string, fn func(ctx context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		slog.Error("notification failed", "channel", channel, "error", err)
		return false
	}
	return true
}

// saveAttachments validates and stores uploads independently; a file
// failing the size or extension check is dropped, never the submission.
func (s *ContactService) saveAttachments(files []*multipart.FileHeader) []StoredAttachment {
	var stored []StoredAttachment

	for _, fh := range files {
		if fh.Size > s.cfg.MaxUploadSize {
			slog.Warn("attachment dropped", "filename", fh.Filename, "reason", "too large", "size", fh.Size)
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		if !allowedExtensions[ext] {
			slog.Warn("attachment dropped", "filename", fh.Filename, "reason", "extension not allowed")
			continue
		}

		src, err := fh.Open()
		if err != nil {
			slog.Error("failed to open attachment", "filename", fh.Filename, "error", err)
			continue
		}

		name := storage.NewStoredName(fh.Filename)
		size, err := s.store.Save(name, src)
		src.Close()
		if err != nil {
			slog.Error("failed to store attachment", "filename", fh.Filename, "error", err)
			continue
		}

		path, err := s.store.GetPath(name)
		if err != nil {
			slog.Error("stored attachment missing", "name", name, "error", err)
			continue
		}

		stored = append(stored, StoredAttachment{
			OriginalName: fh.Filename,
			StoredName:   name,
			Path:         path,
			Size:         size,
		})
	}

	return stored
}

// --- Sanitization ---

var markupTags = regexp.MustCompile(`<[^>]*>`)

// sanitizeText trims, strips markup tags, and HTML-escapes a field so
// downstream rendering (email bodies, logs) cannot be injected.
func sanitizeText(v string) string {
	v = strings.TrimSpace(v)
	v = markupTags.ReplaceAllString(v, "")
	return html.EscapeString(v)
}

func sanitizeSubmission(sub *Submission) {
	sub.FirstName = sanitizeText(sub.FirstName)
	sub.LastName = sanitizeText(sub.LastName)
	sub.Email = sanitizeText(sub.Email)
	sub.Company = sanitizeText(sub.Company)
	sub.JobTitle = sanitizeText(sub.JobTitle)
	sub.Phone = sanitizeText(sub.Phone)
	sub.Country = sanitizeText(sub.Country)
	sub.Purpose = sanitizeText(sub.Purpose)
	sub.Budget = sanitizeText(sub.Budget)
	sub.Timeline = sanitizeText(sub.Timeline)
	sub.Message = sanitizeText(sub.Message)
	sub.Website = sanitizeText(sub.Website)
}

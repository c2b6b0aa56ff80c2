package database

import (
	"context"
	"fmt"
)

// Repository provides persistence for contact-form leads.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new lead record.
func (r *Repository) Create(ctx context.Context, lead *Lead) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO leads (
			id, first_name, last_name, email, company, job_title, phone,
			country, purpose, budget, timeline, message, newsletter,
			ip, user_agent, referrer, email_sent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		lead.ID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.Company,
		lead.JobTitle,
		lead.Phone,
		lead.Country,
		lead.Purpose,
		lead.Budget,
		lead.Timeline,
		lead.Message,
		lead.Newsletter,
		lead.IP,
		lead.UserAgent,
		lead.Referrer,
		lead.EmailSent,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// ListRecent returns the newest leads, capped at limit.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, first_name, last_name, email, company, job_title, phone,
			   country, purpose, budget, timeline, message, newsletter,
			   ip, user_agent, referrer, email_sent, created_at
		FROM leads ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		lead := &Lead{}
		if err := rows.Scan(
			&lead.ID,
			&lead.FirstName,
			&lead.LastName,
			&lead.Email,
			&lead.Company,
			&lead.JobTitle,
			&lead.Phone,
			&lead.Country,
			&lead.Purpose,
			&lead.Budget,
			&lead.Timeline,
			&lead.Message,
			&lead.Newsletter,
			&lead.IP,
			&lead.UserAgent,
			&lead.Referrer,
			&lead.EmailSent,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// GetStats returns aggregate lead statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 days'),
			COUNT(*) FILTER (WHERE email_sent)
		FROM leads
	`).Scan(
		&stats.TotalLeads,
		&stats.LeadsThisWeek,
		&stats.LeadsThisMonth,
		&stats.EmailsSent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

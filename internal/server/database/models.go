package database

import "time"

// Lead is the durable record of an accepted contact-form submission.
type Lead struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Company    string
	JobTitle   string
	Phone      string
	Country    string
	Purpose    string
	Budget     string
	Timeline   string
	Message    string
	Newsletter bool
	IP         string
	UserAgent  string
	Referrer   string
	EmailSent  bool
	CreatedAt  time.Time
}

// Stats holds aggregate lead statistics.
type Stats struct {
	TotalLeads     int64
	LeadsThisWeek  int64
	LeadsThisMonth int64
	EmailsSent     int64
}

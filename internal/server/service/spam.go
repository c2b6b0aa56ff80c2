package service

import (
	"regexp"
	"strings"
)

// spamPatterns are the case-insensitive phrase filters applied to the
// free-text fields. Promotional, pharma, loan and urgency phrasing
// covers the bulk of automated submissions this form receives.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(viagra|cialis|casino|poker|loan|mortgage)\b`),
	regexp.MustCompile(`(?i)\b(make money|work from home|get paid)\b`),
	regexp.MustCompile(`(?i)\b(click here|visit now|act now)\b`),
}

// isSpam reports whether a submission is likely automated: any value in
// the honeypot field, or a spam phrase in the free-text fields.
func isSpam(sub *Submission) bool {
	if sub.Website != "" {
		return true
	}

	text := strings.Join([]string{sub.FirstName, sub.LastName, sub.Company, sub.Message}, " ")
	for _, pattern := range spamPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

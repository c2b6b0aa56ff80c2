package service

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// phonePattern is deliberately permissive: digits, spaces, hyphens,
// parentheses, an optional leading plus, at least 10 characters.
var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Errors from RegisterValidation only occur for empty tag names.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldMessages maps a failing field to the message surfaced to the
// caller. Messages name the field and the rule; they carry no internals.
var fieldMessages = map[string]string{
	"FirstName": "First name is required",
	"LastName":  "Last name is required",
	"Email":     "Valid email is required",
	"Company":   "Company is required",
	"Country":   "Country is required",
	"Purpose":   "Purpose is required",
	"Message":   "Message is required",
	"Consent":   "Consent is required",
	"Phone":     "Invalid phone number format",
}

// validateSubmission checks required fields and formats, returning one
// message per invalid field. All failures are collected, not just the
// first.
func validateSubmission(sub *Submission) []string {
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid submission"}
	}

	var messages []string
	for _, fe := range verrs {
		if fe.Field() == "Message" && fe.Tag() == "min" {
			messages = append(messages, "Message must be at least 10 characters")
			continue
		}
		if msg, ok := fieldMessages[fe.Field()]; ok {
			messages = append(messages, msg)
			continue
		}
		messages = append(messages, fe.Field()+" is invalid")
	}
	return messages
}

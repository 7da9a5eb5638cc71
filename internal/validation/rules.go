// Package validation checks untrusted form input. Malformed input is an
// expected outcome reported as FieldErrors, never a Go error.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is raw key/value form data as decoded from an urlencoded form or a
// JSON object.
type Input map[string]any

// FieldErrors maps a field name to its human-readable messages.
type FieldErrors map[string][]string

// Add appends msg to field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// FromValues converts urlencoded form values, keeping the first value per key.
func FromValues(values url.Values) Input {
	in := make(Input, len(values))
	for k, v := range values {
		if len(v) > 0 {
			in[k] = v[0]
		}
	}
	return in
}

// String returns the trimmed string form of key. Numbers are formatted;
// anything else reads as empty.
func (in Input) String(key string) string {
	switch v := in[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Validator wraps go-playground/validator with the site's rule set.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// check reports whether value satisfies tag.
func (val *Validator) check(value any, tag string) bool {
	return val.v.Var(value, tag) == nil
}

func (val *Validator) minLen(value string, n int) bool {
	return val.check(value, fmt.Sprintf("min=%d", n))
}

func (val *Validator) email(value string) bool {
	return val.check(value, "required,email")
}

// ContactRules parameterizes the contact form. Deployments choose between
// the strict variant (name required) and the relaxed one (no name field,
// shorter message minimum).
type ContactRules struct {
	RequireName    bool
	NameMin        int
	RequireSubject bool
	MessageMin     int
}

// DefaultContactRules is the strict contact form variant.
var DefaultContactRules = ContactRules{RequireName: true, NameMin: 2, MessageMin: 10}

// Contact is a validated contact form. Subject only feeds the notification
// subject line; it is not persisted.
type Contact struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Contact validates a contact form against rules.
func (val *Validator) Contact(in Input, rules ContactRules) (Contact, FieldErrors) {
	out := Contact{
		Name:    in.String("name"),
		Email:   in.String("email"),
		Subject: in.String("subject"),
		Message: in.String("message"),
	}
	errs := FieldErrors{}

	if rules.RequireName && !val.minLen(out.Name, rules.NameMin) {
		errs.Add("name", fmt.Sprintf("Name must be at least %d characters.", rules.NameMin))
	}
	if !val.email(out.Email) {
		errs.Add("email", "Please enter a valid email address.")
	}
	if rules.RequireSubject && !val.check(out.Subject, "required") {
		errs.Add("subject", "Subject is required.")
	}
	if !val.minLen(out.Message, rules.MessageMin) {
		errs.Add("message", fmt.Sprintf("Message must be at least %d characters.", rules.MessageMin))
	}

	if len(errs) > 0 {
		return Contact{}, errs
	}
	return out, nil
}

// Testimonial is a validated testimonial submission. It has no approval
// field: moderation state is never taken from the client.
type Testimonial struct {
	ClientName string
	Comment    string
	Rating     *int
}

// Testimonial validates a testimonial submission.
func (val *Validator) Testimonial(in Input) (Testimonial, FieldErrors) {
	out := Testimonial{
		ClientName: in.String("client_name"),
		Comment:    in.String("comment"),
	}
	errs := FieldErrors{}

	if !val.minLen(out.ClientName, 2) {
		errs.Add("client_name", "Name must be at least 2 characters.")
	}
	if !val.minLen(out.Comment, 20) {
		errs.Add("comment", "Comment must be at least 20 characters.")
	}
	rating, ok := ParseRating(in["rating"])
	if !ok {
		errs.Add("rating", "Rating must be between 1 and 5 stars.")
	}
	out.Rating = rating

	if len(errs) > 0 {
		return Testimonial{}, errs
	}
	return out, nil
}

// ParseRating coerces a submitted rating. nil, a missing value and "" mean
// no rating. Strings and numbers must denote an integer in [1,5].
func ParseRating(raw any) (*int, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 1 || f > 5 {
		return nil, false
	}
	n := int(f)
	return &n, true
}

// Credentials is a validated sign-in form.
type Credentials struct {
	Email    string
	Password string
}

// Credentials validates a sign-in form. The password is not trimmed.
func (val *Validator) Credentials(in Input) (Credentials, FieldErrors) {
	out := Credentials{
		Email:    in.String("email"),
		Password: rawString(in, "password"),
	}
	errs := FieldErrors{}

	if !val.email(out.Email) {
		errs.Add("email", "Please enter a valid email address.")
	}
	if !val.minLen(out.Password, 6) {
		errs.Add("password", "Password must be at least 6 characters.")
	}

	if len(errs) > 0 {
		return Credentials{}, errs
	}
	return out, nil
}

// PasswordReset validates a new password and its confirmation. A mismatch is
// reported on the confirmation field.
func (val *Validator) PasswordReset(in Input) (string, FieldErrors) {
	password := rawString(in, "password")
	confirm := rawString(in, "confirmPassword")
	errs := FieldErrors{}

	if !val.minLen(password, 6) {
		errs.Add("password", "Password must be at least 6 characters.")
	}
	if val.v.VarWithValue(confirm, password, "eqfield") != nil {
		errs.Add("confirmPassword", "Passwords do not match.")
	}

	if len(errs) > 0 {
		return "", errs
	}
	return password, nil
}

func rawString(in Input, key string) string {
	s, _ := in[key].(string)
	return s
}

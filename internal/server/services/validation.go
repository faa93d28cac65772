package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// FieldError is a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a request. It matches
// common.ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return common.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// asValidationError converts ozzo validation output. Field order is stable
// so responses do not shuffle between calls.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &ValidationError{Fields: make([]FieldError, 0, len(keys))}
	for _, k := range keys {
		out.Fields = append(out.Fields, FieldError{Field: k, Message: verrs[k].Error()})
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Valid email is required"),
		is.Email.Error("Valid email is required"),
	}
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password,
			validation.Required.Error("Password must be at least 6 characters"),
			validation.Length(common.MinSecretLength, 0).Error("Password must be at least 6 characters"),
		),
		validation.Field(&r.FullName, validation.Required.Error("Full name is required")),
		validation.Field(&r.DateOfBirth, validation.Required.Error("Date of birth is required")),
	)
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

// PasswordInput is the password change request.
type PasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r PasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required.Error("Current password is required")),
		validation.Field(&r.NewPassword,
			validation.Required.Error("New password must be at least 6 characters"),
			validation.Length(common.MinSecretLength, 0).Error("New password must be at least 6 characters"),
		),
	)
}

// EmailInput is the email change request.
type EmailInput struct {
	NewEmail string `json:"newEmail"`
}

func (r EmailInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewEmail, emailRules()...),
	)
}

// ProfileInput is a sparse profile change; absent or empty fields are left
// untouched.
type ProfileInput struct {
	FullName    *string `json:"fullName"`
	DateOfBirth *string `json:"dateOfBirth"`
}

func (r ProfileInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(0, 200).Error("Full name must be at most 200 characters")),
		validation.Field(&r.DateOfBirth, validation.Length(0, 32).Error("Date of birth must be at most 32 characters")),
	)
}

// update drops blank fields, so a body of only empty strings is treated as
// having no fields at all.
func (r ProfileInput) update() models.ProfileUpdate {
	return models.ProfileUpdate{FullName: nonBlank(r.FullName), DateOfBirth: nonBlank(r.DateOfBirth)}
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

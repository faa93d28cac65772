package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/dmitrijs2005/policyportal/internal/server/services"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidToken       = "Invalid or expired token"
	msgInternal           = "Internal server error"
	msgValidation         = "Validation failed"
)

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	DateOfBirth  string `json:"dateOfBirth"`
	PolicyNumber string `json:"policyNumber"`
	PolicyStatus string `json:"policyStatus"`
}

func toUser(p *models.Profile) userResponse {
	return userResponse{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		DateOfBirth:  p.DateOfBirth,
		PolicyNumber: p.PolicyNumber,
		PolicyStatus: string(p.PolicyStatus),
	}
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type messageResponse struct {
	Message string        `json:"message"`
	Email   string        `json:"email,omitempty"`
	User    *userResponse `json:"user,omitempty"`
}

type errorResponse struct {
	Error   string                `json:"error"`
	Errors  []services.FieldError `json:"errors,omitempty"`
	Message string                `json:"message,omitempty"`
	Stack   string                `json:"stack,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status and the message shown to
// the client. Anything unrecognised is a 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrManualReconciliationRequired):
		return http.StatusInternalServerError, msgInternal
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, msgValidation
	case errors.Is(err, common.ErrIdentityConflict):
		return http.StatusBadRequest, "A user with this email address has already been registered"
	case errors.Is(err, common.ErrProfileCreationFailed):
		return http.StatusBadRequest, "Profile creation failed"
	case errors.Is(err, common.ErrCurrentSecretIncorrect):
		return http.StatusBadRequest, "Current password is incorrect"
	case errors.Is(err, common.ErrSecretUpdateFailed):
		return http.StatusBadRequest, "Password update failed"
	case errors.Is(err, common.ErrEmailUpdateFailed):
		return http.StatusBadRequest, "Email update failed"
	case errors.Is(err, common.ErrNoFieldsProvided):
		return http.StatusBadRequest, "No fields to update"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, common.ErrProfileNotFound):
		return http.StatusNotFound, "User profile not found"
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests, please try again later"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	}
	return http.StatusInternalServerError, msgInternal
}

// fail writes the error response for err and logs server-side failures.
// Outside production the underlying error text is added as message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)

	resp := errorResponse{Error: msg}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	} else if !s.opts.Production {
		resp.Message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

const maxBodyBytes = 1 << 20

// decode reads a JSON body into v. Malformed JSON is a validation failure.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return &services.ValidationError{Fields: []services.FieldError{{Field: "body", Message: "Request body must be valid JSON"}}}
	}
	return nil
}

package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/policyportal/internal/server/services"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	session, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "identity_id", session.Profile.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{User: toUser(session.Profile), Token: session.Token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	session, err := s.accounts.Login(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: toUser(session.Profile), Token: session.Token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	subject := subjectFrom(r.Context())

	profile, err := s.accounts.GetProfile(r.Context(), subject.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUser(profile))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (s *Server) updatePassword(w http.ResponseWriter, r *http.Request) {
	var in services.PasswordInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.accounts.UpdatePassword(r.Context(), subjectFrom(r.Context()).ID, in); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

func (s *Server) updateEmail(w http.ResponseWriter, r *http.Request) {
	var in services.EmailInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	email, err := s.accounts.UpdateEmail(r.Context(), subjectFrom(r.Context()).ID, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Email updated successfully", Email: email})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	profile, err := s.accounts.UpdateProfile(r.Context(), subjectFrom(r.Context()).ID, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := toUser(profile)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Profile updated successfully", User: &user})
}

// Package services contains server-side business logic. This file implements
// AccountService, which orchestrates registration, login, credential changes
// and profile updates across the credential store, the profile store and the
// session token issuer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/logging"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/identities"
	"github.com/dmitrijs2005/policyportal/internal/server/repositories/profiles"
)

// compensationTimeout bounds a compensating store call. Compensations run
// detached from the request context so a request deadline that broke the
// forward step does not also break the undo.
const compensationTimeout = 5 * time.Second

// Session is the result of a successful registration or login.
type Session struct {
	Profile *models.Profile
	Token   string
}

// TokenIssuer mints and revokes session tokens. *auth.Issuer satisfies it.
type TokenIssuer interface {
	Issue(subjectID, email string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AccountService holds no state of its own; every call is a sequence of
// store calls issued one after another under the caller's context.
type AccountService struct {
	identities identities.Repository
	profiles   profiles.Repository
	tokens     TokenIssuer
	log        logging.Logger
}

func NewAccountService(ids identities.Repository, profs profiles.Repository, tokens TokenIssuer, log logging.Logger) *AccountService {
	if log == nil {
		log = logging.Nop{}
	}
	return &AccountService{
		identities: ids,
		profiles:   profs,
		tokens:     tokens,
		log:        log.With("module", "accounts"),
	}
}

// Register creates the identity, mints its token and then creates the
// profile. If a later step fails the identity is deleted again; if that
// delete fails too the error is ErrManualReconciliationRequired.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := asValidationError(in.Validate()); err != nil {
		return nil, err
	}

	identity, err := s.identities.Create(ctx, in.Email, in.Password, true)
	if err != nil {
		if errors.Is(err, common.ErrIdentityConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	token, err := s.tokens.Issue(identity.ID, identity.Email)
	if err != nil {
		return nil, s.rollbackRegistration(ctx, identity.ID, fmt.Errorf("issue token: %w", err))
	}

	profile, err := s.profiles.Create(ctx, &models.Profile{
		ID:           identity.ID,
		Email:        identity.Email,
		FullName:     in.FullName,
		DateOfBirth:  in.DateOfBirth,
		PolicyStatus: models.PolicyStatusActive,
	})
	if err != nil {
		return nil, s.rollbackRegistration(ctx, identity.ID, fmt.Errorf("%w: %v", common.ErrProfileCreationFailed, err))
	}

	s.log.Info(ctx, "account registered", "identity_id", identity.ID)
	return &Session{Profile: profile, Token: token}, nil
}

// rollbackRegistration deletes the identity and returns cause, or
// ErrManualReconciliationRequired when the delete fails.
func (s *AccountService) rollbackRegistration(ctx context.Context, identityID string, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.identities.Delete(cctx, identityID); err != nil {
		s.log.Error(ctx, "registration rollback failed, identity has no profile",
			"identity_id", identityID, "cause", cause, "error", err)
		return fmt.Errorf("%w: delete identity %s: %v", common.ErrManualReconciliationRequired, identityID, err)
	}

	s.log.Warn(ctx, "registration rolled back", "identity_id", identityID, "cause", cause)
	return cause
}

// Login verifies the credentials and loads the caller's profile. Every
// verification failure is reported as ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := asValidationError(in.Validate()); err != nil {
		return nil, err
	}

	identity, err := s.identities.Verify(ctx, in.Email, in.Password)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidCredentials) {
			s.log.Warn(ctx, "credential verification error", "error", err)
		}
		return nil, common.ErrInvalidCredentials
	}

	profile, err := s.GetProfile(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(identity.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Profile: profile, Token: token}, nil
}

// GetProfile returns the profile of an identity, ErrProfileNotFound when the
// profile store has no row for it.
func (s *AccountService) GetProfile(ctx context.Context, identityID string) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdatePassword proves possession of the current secret before replacing
// it. The check uses the identity's stored email, so a token minted before
// an email change still works.
func (s *AccountService) UpdatePassword(ctx context.Context, identityID string, in PasswordInput) error {
	if err := asValidationError(in.Validate()); err != nil {
		return err
	}

	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: identity %s not found", common.ErrInvalidToken, identityID)
		}
		return fmt.Errorf("get identity: %w", err)
	}

	verified, err := s.identities.Verify(ctx, identity.Email, in.CurrentPassword)
	if err != nil || verified.ID != identityID {
		if err != nil && !errors.Is(err, common.ErrInvalidCredentials) {
			s.log.Warn(ctx, "credential verification error", "identity_id", identityID, "error", err)
		}
		return common.ErrCurrentSecretIncorrect
	}

	if err := s.identities.UpdateSecret(ctx, identityID, in.NewPassword); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretUpdateFailed, err)
	}

	s.log.Info(ctx, "password updated", "identity_id", identityID)
	return nil
}

// UpdateEmail changes the email in the credential store and then in the
// profile store. If the profile step fails the previous email is restored in
// the credential store; if the restore fails the error is
// ErrManualReconciliationRequired. It returns the stored new email.
func (s *AccountService) UpdateEmail(ctx context.Context, identityID string, in EmailInput) (string, error) {
	in.NewEmail = normalizeEmail(in.NewEmail)
	if err := asValidationError(in.Validate()); err != nil {
		return "", err
	}

	previous, err := s.identities.UpdateEmail(ctx, identityID, in.NewEmail)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrEmailUpdateFailed, err)
	}

	if err := s.profiles.UpdateEmail(ctx, identityID, in.NewEmail); err != nil {
		return "", s.rollbackEmail(ctx, identityID, previous, err)
	}

	s.log.Info(ctx, "email updated", "identity_id", identityID)
	return in.NewEmail, nil
}

func (s *AccountService) rollbackEmail(ctx context.Context, identityID, previous string, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := s.identities.UpdateEmail(cctx, identityID, previous); err != nil {
		s.log.Error(ctx, "email rollback failed, stores disagree on email",
			"identity_id", identityID, "cause", cause, "error", err)
		return fmt.Errorf("%w: restore email of identity %s: %v", common.ErrManualReconciliationRequired, identityID, err)
	}

	s.log.Warn(ctx, "email update rolled back", "identity_id", identityID, "cause", cause)
	return fmt.Errorf("%w: %v", common.ErrEmailUpdateFailed, cause)
}

// UpdateProfile applies a sparse change to the caller's profile.
func (s *AccountService) UpdateProfile(ctx context.Context, identityID string, in ProfileInput) (*models.Profile, error) {
	update := in.update()
	if update.Empty() {
		return nil, common.ErrNoFieldsProvided
	}
	if err := asValidationError(ProfileInput(update).Validate()); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Update(ctx, identityID, update)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrProfileNotFound
		case errors.Is(err, common.ErrNoFieldsProvided):
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// Logout revokes the token when the issuer has a denylist and otherwise only
// checks that the token is valid.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

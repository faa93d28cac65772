// Package memory provides in-process credential and profile stores. They back
// the server when the DSN is memory:// and serve as fakes in tests, where the
// Fail* hooks inject store errors into the next matching call.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/dmitrijs2005/policyportal/internal/cryptox"
	"github.com/dmitrijs2005/policyportal/internal/server/models"
	"github.com/google/uuid"
)

// Identities is a mutex-guarded credential store.
type Identities struct {
	mu   sync.Mutex
	byID map[string]*models.Identity

	failDelete      error
	failUpdateEmail error

	// Calls counts method invocations by name; tests assert on side effects.
	Calls map[string]int
}

func NewIdentities() *Identities {
	return &Identities{byID: make(map[string]*models.Identity), Calls: make(map[string]int)}
}

// FailNextDelete makes the next Delete return err.
func (s *Identities) FailNextDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = err
}

// FailNextUpdateEmail makes the next UpdateEmail return err.
func (s *Identities) FailNextUpdateEmail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdateEmail = err
}

func (s *Identities) Create(ctx context.Context, email, secret string, emailConfirmed bool) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Create"]++

	if s.findByEmail(email) != nil {
		return nil, common.ErrIdentityConflict
	}
	now := time.Now()
	identity := &models.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		SecretHash:     hash,
		EmailConfirmed: emailConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.byID[identity.ID] = identity
	out := *identity
	return &out, nil
}

func (s *Identities) Verify(ctx context.Context, email, secret string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.Calls["Verify"]++
	var identity *models.Identity
	if found := s.findByEmail(email); found != nil {
		cp := *found
		identity = &cp
	}
	s.mu.Unlock()

	if identity == nil {
		cryptox.BurnVerification(secret)
		return nil, common.ErrInvalidCredentials
	}
	ok, err := cryptox.VerifySecret(secret, identity.SecretHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return identity, nil
}

func (s *Identities) Get(ctx context.Context, id string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Get"]++

	identity, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *identity
	return &out, nil
}

func (s *Identities) UpdateSecret(ctx context.Context, id, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["UpdateSecret"]++

	identity, ok := s.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	identity.SecretHash = hash
	identity.UpdatedAt = time.Now()
	return nil
}

func (s *Identities) UpdateEmail(ctx context.Context, id, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["UpdateEmail"]++

	if err := s.failUpdateEmail; err != nil {
		s.failUpdateEmail = nil
		return "", err
	}
	identity, ok := s.byID[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	if other := s.findByEmail(email); other != nil && other.ID != id {
		return "", common.ErrIdentityConflict
	}
	previous := identity.Email
	identity.Email = email
	identity.UpdatedAt = time.Now()
	return previous, nil
}

func (s *Identities) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Delete"]++

	if err := s.failDelete; err != nil {
		s.failDelete = nil
		return err
	}
	if _, ok := s.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.byID, id)
	return nil
}

// Len returns the number of stored identities.
func (s *Identities) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Identities) findByEmail(email string) *models.Identity {
	for _, identity := range s.byID {
		if strings.EqualFold(identity.Email, email) {
			return identity
		}
	}
	return nil
}

// Profiles is a mutex-guarded profile store.
type Profiles struct {
	mu   sync.Mutex
	byID map[string]*models.Profile

	failCreate      error
	failUpdateEmail error

	Calls map[string]int
}

func NewProfiles() *Profiles {
	return &Profiles{byID: make(map[string]*models.Profile), Calls: make(map[string]int)}
}

// FailNextCreate makes the next Create return err.
func (s *Profiles) FailNextCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate = err
}

// FailNextUpdateEmail makes the next UpdateEmail return err.
func (s *Profiles) FailNextUpdateEmail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdateEmail = err
}

func (s *Profiles) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Create"]++

	if err := s.failCreate; err != nil {
		s.failCreate = nil
		return nil, err
	}
	if _, exists := s.byID[p.ID]; exists {
		return nil, common.ErrIdentityConflict
	}

	stored := *p
	if stored.PolicyStatus == "" {
		stored.PolicyStatus = models.PolicyStatusActive
	}
	if stored.PolicyNumber == "" {
		n, err := models.NewPolicyNumber()
		if err != nil {
			return nil, err
		}
		stored.PolicyNumber = n
	}
	now := time.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *Profiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Get"]++

	p, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *p
	return &out, nil
}

func (s *Profiles) UpdateEmail(ctx context.Context, id, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["UpdateEmail"]++

	if err := s.failUpdateEmail; err != nil {
		s.failUpdateEmail = nil
		return err
	}
	p, ok := s.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Email = email
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Profiles) Update(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Empty() {
		return nil, common.ErrNoFieldsProvided
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Update"]++

	p, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = *u.DateOfBirth
	}
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

// Len returns the number of stored profiles.
func (s *Profiles) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

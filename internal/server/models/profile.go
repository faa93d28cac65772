package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/common"
)

// PolicyStatus is the lifecycle state of the holder's insurance policy.
type PolicyStatus string

const (
	PolicyStatusActive   PolicyStatus = "Active"
	PolicyStatusInactive PolicyStatus = "Inactive"
	PolicyStatusPending  PolicyStatus = "Pending"
)

// Valid reports whether s is one of the known statuses.
func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyStatusActive, PolicyStatusInactive, PolicyStatusPending:
		return true
	}
	return false
}

// Profile is the application-side user record. ID equals the Identity ID
// and Email is a denormalized copy of Identity.Email.
type Profile struct {
	ID           string
	Email        string
	FullName     string
	DateOfBirth  string
	PolicyNumber string
	PolicyStatus PolicyStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate is a sparse set of profile changes; nil fields are left
// untouched.
type ProfileUpdate struct {
	FullName    *string
	DateOfBirth *string
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.DateOfBirth == nil
}

// NewPolicyNumber returns a fresh policy number such as "POL-3FA85F6457".
func NewPolicyNumber() (string, error) {
	s, err := common.MakeRandHexString(5)
	if err != nil {
		return "", err
	}
	return "POL-" + strings.ToUpper(s), nil
}

package models

import "time"

// Identity is the authentication-side account record. SecretHash never
// leaves the credential store.
type Identity struct {
	ID             string
	Email          string
	SecretHash     string
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

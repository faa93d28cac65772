// Package cryptox hashes and verifies account secrets with Argon2id.
//
// Hashes are stored in the PHC-like form
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
//
// with unpadded standard base64 for salt and hash.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 16
	keyLength   = 32
	timeCost    = 3
	memoryCost  = 64 * 1024
	parallelism = 2
)

var ErrInvalidHash = errors.New("invalid hash format")

var hashPrefix = fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$", argon2.Version, memoryCost, timeCost, parallelism)

// dummyHash is compared against when the account does not exist so that
// unknown-email and wrong-password paths cost the same.
var dummyHash = mustHash("policyportal-dummy-secret")

// HashSecret derives an Argon2id hash of secret with a fresh random salt.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}
	salt := common.GenerateRandByteArray(saltLength)
	key := argon2.IDKey([]byte(secret), salt, timeCost, memoryCost, parallelism, keyLength)

	return hashPrefix +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(key), nil
}

// VerifySecret reports whether secret matches encoded. The comparison is
// constant time.
func VerifySecret(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	got := argon2.IDKey([]byte(secret), salt, timeCost, memoryCost, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// BurnVerification performs one throwaway verification. Call it on the
// unknown-account path of a login.
func BurnVerification(secret string) {
	_, _ = VerifySecret(secret, dummyHash)
}

func mustHash(secret string) string {
	h, err := HashSecret(secret)
	if err != nil {
		panic(err)
	}
	return h
}

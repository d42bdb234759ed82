// AngelaMos | 2026
// password.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/carterperez-dev/mystery-message/internal/config"
)

const dummyPassword = "dummy_password_for_timing_attack_prevention"

// PasswordHasher hashes account passwords with argon2id using the cost
// parameters from the security config. Hashes written under other
// parameters still verify and are reported for rehashing.
type PasswordHasher struct {
	params    config.SecurityConfig
	dummyHash string
}

func NewPasswordHasher(cfg config.SecurityConfig) (*PasswordHasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &PasswordHasher{params: cfg}

	dummy, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	h.dummyHash = dummy

	return h, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.Argon2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Argon2Time,
		h.params.Argon2Memory,
		h.params.Argon2Threads,
		h.params.Argon2KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Argon2Memory,
		h.params.Argon2Time,
		h.params.Argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks password against an encoded hash using the parameters
// recorded in the hash itself.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	stored, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey(
		[]byte(password),
		stored.salt,
		stored.time,
		stored.memory,
		stored.threads,
		uint32(len(stored.key)), //nolint:gosec // argon2 keys are short
	)

	return subtle.ConstantTimeCompare(stored.key, candidate) == 1, nil
}

// VerifyTimingSafe verifies password against encodedHash, or against a
// dummy hash when the account has none, so unknown identities cost the same
// as wrong passwords. The second result is a replacement hash when the
// stored one was written under different parameters.
func (h *PasswordHasher) VerifyTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result is discarded on purpose
		_, _ = h.Verify(password, h.dummyHash)
		return false, "", nil
	}

	valid, err := h.Verify(password, *encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	if !h.NeedsRehash(*encodedHash) {
		return true, "", nil
	}

	newHash, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // password verified; the rehash is retried next sign-in
		return true, "", nil
	}
	return true, newHash, nil
}

func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	stored, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}

	return stored.memory != h.params.Argon2Memory ||
		stored.time != h.params.Argon2Time ||
		stored.threads != h.params.Argon2Threads ||
		uint32(len(stored.key)) != h.params.Argon2KeyLength || //nolint:gosec // argon2 keys are short
		uint32(len(stored.salt)) != h.params.Argon2SaltLength //nolint:gosec // salts are short
}

type encodedArgon struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeHash(encodedHash string) (*encodedArgon, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("incompatible version: %d", version)
	}

	out := &encodedArgon{}
	if _, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&out.memory,
		&out.time,
		&out.threads,
	); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decode hash: %w", err)
	}

	return out, nil
}

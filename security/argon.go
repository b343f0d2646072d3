// Package security contains everything related to the security of user data
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var ErrInvalidHash = errors.New("invalid hash format")

// PasswordHasher produces PHC-style argon2id hashes or bcrypt hashes depending on
// Algorithm. Verification looks at the stored hash itself, so switching the
// algorithm keeps older hashes verifiable.
type PasswordHasher struct {
	Algorithm   string
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

func New() *PasswordHasher {
	return &PasswordHasher{
		Algorithm:   AlgorithmArgon2id,
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
		BcryptCost:  bcrypt.DefaultCost,
	}
}

func (a *PasswordHasher) GenerateFromPassword(p string) (encoded string, err error) {
	if a.Algorithm == AlgorithmBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(p), a.BcryptCost)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	salt, err := genRandByt(a.SaltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(p), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded = fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		a.Memory, a.Iterations, a.Parallelism, b64Salt, b64Hash)

	return encoded, nil
}

// VerifyPasswd compares a password p with the stored encoded hash e
func (a *PasswordHasher) VerifyPasswd(p, e string) (ok bool, err error) {
	if strings.HasPrefix(e, "$2a$") || strings.HasPrefix(e, "$2b$") || strings.HasPrefix(e, "$2y$") {
		err := bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		return err == nil, err
	}

	parts := strings.Split(e, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var memory, iterations uint32
	var parallelism uint8

	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	calcHash := argon2.IDKey([]byte(p), salt, iterations, memory, parallelism, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, calcHash) == 1, nil
}

func genRandByt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}

	return b, nil
}

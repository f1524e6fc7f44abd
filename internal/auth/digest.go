package auth

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Digester is a pluggable one-way password digest. The stored digest format
// is implementation-defined; only Compare can interpret it.
type Digester interface {
	Sum(password string) (string, error)
	Compare(digest, password string) bool
}

// NewDigester returns the digester named by configuration: "sha1" (legacy
// default, compatible with existing user records) or "bcrypt".
func NewDigester(name string) (Digester, error) {
	switch name {
	case "sha1":
		return SHA1Digester{}, nil
	case "bcrypt":
		return BcryptDigester{}, nil
	default:
		return nil, fmt.Errorf("unknown password digest: %q", name)
	}
}

// SHA1Digester is the legacy hex-encoded SHA-1 digest.
type SHA1Digester struct{}

func (SHA1Digester) Sum(password string) (string, error) {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (SHA1Digester) Compare(digest, password string) bool {
	sum := sha1.Sum([]byte(password))
	candidate := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(candidate)) == 1
}

// BcryptDigester wraps bcrypt with its default cost.
type BcryptDigester struct{}

func (BcryptDigester) Sum(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (BcryptDigester) Compare(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// Package credentials provides account stores for HTTP basic authentication.
package credentials

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// hashMethod identifies how an account's password is stored.
type hashMethod string

const (
	methodPlain  hashMethod = "plain"
	methodSHA256 hashMethod = "sha256"
	methodSHA512 hashMethod = "sha512"
)

// Credential is one account to match basic-auth parameters against.
type Credential struct {
	Username string
	method   hashMethod
	// secret is the plain password or the expected hash digest.
	secret []byte
}

// ParseAccount parses an account specification string. Accepted forms:
//
//	user:password
//	user:sha256:<hex digest>
//	user:sha512:<hex digest>
//
// Returns ErrInvalidAccount when the string does not match any form.
func ParseAccount(s string) (Credential, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Credential{}, fmt.Errorf("%w: expected username:password, username:sha256:hash or username:sha512:hash", ErrInvalidAccount)
	}

	if len(parts) == 3 {
		if method := hashMethod(parts[1]); method == methodSHA256 || method == methodSHA512 {
			digest, err := hex.DecodeString(parts[2])
			if err != nil {
				return Credential{}, fmt.Errorf("%w: password hash is not valid hex", ErrInvalidAccount)
			}
			wantLen := sha256.Size
			if method == methodSHA512 {
				wantLen = sha512.Size
			}
			if len(digest) != wantLen {
				return Credential{}, fmt.Errorf("%w: %s hash must be %d bytes", ErrInvalidAccount, method, wantLen)
			}
			return Credential{Username: parts[0], method: method, secret: digest}, nil
		}
		// A password that happens to contain a colon.
		return Credential{Username: parts[0], method: methodPlain, secret: []byte(parts[1] + ":" + parts[2])}, nil
	}

	return Credential{Username: parts[0], method: methodPlain, secret: []byte(parts[1])}, nil
}

// Verify reports whether password matches the stored secret. Comparison is
// constant-time in the secret.
func (c Credential) Verify(password string) bool {
	switch c.method {
	case methodSHA256:
		digest := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare(digest[:], c.secret) == 1
	case methodSHA512:
		digest := sha512.Sum512([]byte(password))
		return subtle.ConstantTimeCompare(digest[:], c.secret) == 1
	default:
		return subtle.ConstantTimeCompare([]byte(password), c.secret) == 1
	}
}

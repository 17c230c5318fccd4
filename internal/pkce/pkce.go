// Package pkce implements the S256 code challenge transformation of
// RFC 7636. It is pure and stateless; the grant engine decides when a
// verifier is required.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// MethodS256 is the only accepted code_challenge_method. The "plain"
// method defeats the purpose of PKCE and is rejected upstream.
const MethodS256 = "S256"

// ChallengeFor computes base64url-no-pad(SHA-256(verifier)).
func ChallengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Verify reports whether verifier matches the stored challenge.
// The comparison is constant-time to avoid leaking prefix matches.
func Verify(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	computed := ChallengeFor(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

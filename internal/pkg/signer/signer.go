// Package signer implements a URL-safe, timestamped HMAC signer for
// out-of-band tokens (email verification links). Tokens are self-contained:
// validity is a function of the signature and the embedded timestamp only,
// nothing is persisted.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadSignature     = errors.New("bad signature")
	ErrSignatureExpired = errors.New("signature expired")
)

// Signer signs values as base64url(value:timestamp:mac) with padding
// stripped. The salt namespaces the key so a verification token can never be
// replayed against another signer (password reset, etc.).
type Signer struct {
	secret []byte
	salt   string

	now func() time.Time
}

func New(secret, salt string) *Signer {
	return &Signer{
		secret: []byte(secret),
		salt:   salt,
		now:    time.Now,
	}
}

func (s *Signer) Sign(value string) string {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	payload := value + ":" + ts
	signed := payload + ":" + s.mac(payload)
	encoded := base64.URLEncoding.EncodeToString([]byte(signed))
	return strings.TrimRight(encoded, "=")
}

// Unsign verifies the signature and the max age, returning the original
// value. A decode failure of any kind is reported as ErrBadSignature; the
// caller gets no hint about which part was wrong.
func (s *Signer) Unsign(token string, maxAge time.Duration) (string, error) {
	if padding := (4 - len(token)%4) % 4; padding > 0 {
		token += strings.Repeat("=", padding)
	}

	// Strict mode: trailing padding bits must be zero, so no two distinct
	// tokens can decode to the same payload.
	decoded, err := base64.URLEncoding.Strict().DecodeString(token)
	if err != nil {
		return "", ErrBadSignature
	}
	signed := string(decoded)

	macIdx := strings.LastIndex(signed, ":")
	if macIdx < 0 {
		return "", ErrBadSignature
	}
	payload, gotMAC := signed[:macIdx], signed[macIdx+1:]

	if !hmac.Equal([]byte(s.mac(payload)), []byte(gotMAC)) {
		return "", ErrBadSignature
	}

	tsIdx := strings.LastIndex(payload, ":")
	if tsIdx < 0 {
		return "", ErrBadSignature
	}
	value, tsStr := payload[:tsIdx], payload[tsIdx+1:]

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return "", ErrBadSignature
	}
	if maxAge > 0 {
		age := s.now().Sub(time.Unix(ts, 0))
		if age > maxAge {
			return "", fmt.Errorf("%w: age %s > %s", ErrSignatureExpired, age.Round(time.Second), maxAge)
		}
	}

	return value, nil
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(s.salt + ":" + payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

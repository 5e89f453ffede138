// Package confirm issues and checks single-use confirmation tokens.
//
// A token is base64url(issuedAt || mac) where issuedAt is 8 bytes of
// big-endian unix seconds and mac is HMAC-SHA256 over purpose, user id and
// issuedAt. The MAC key is derived with HKDF from a secret that is never
// shared with the access token issuer.
package confirm

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	issuedAtLen = 8
	macLen      = sha256.Size
	tokenLen    = issuedAtLen + macLen

	// MaxClockSkew bounds how far in the future issuedAt may be.
	MaxClockSkew = time.Minute

	hkdfInfo = "testmart confirmation token v1"
)

var (
	ErrMalformed = fmt.Errorf("malformed token: %w", common.ErrInvalidToken)
	ErrMismatch  = fmt.Errorf("token mismatch: %w", common.ErrInvalidToken)
	ErrFuture    = fmt.Errorf("token issued in the future: %w", common.ErrInvalidToken)
	ErrExpired   = fmt.Errorf("confirmation token: %w", common.ErrTokenExpired)
	ErrConsumed  = fmt.Errorf("token already used: %w", common.ErrInvalidToken)
)

var b64 = base64.RawURLEncoding

// Codec issues and verifies tokens. It holds only the derived key and the
// validity window and is safe for concurrent use.
type Codec struct {
	key    []byte
	window time.Duration
}

// NewCodec derives the MAC key from secret.
func NewCodec(secret []byte, window time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: confirmation secret is empty", common.ErrorConfiguration)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: confirmation window must be positive", common.ErrorConfiguration)
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return &Codec{key: key, window: window}, nil
}

// Issue returns the token for userID and purpose issued at issuedAt.
// Sub-second precision is dropped.
func (c *Codec) Issue(userID, purpose string, issuedAt time.Time) string {
	buf := make([]byte, tokenLen)
	binary.BigEndian.PutUint64(buf[:issuedAtLen], uint64(issuedAt.Unix()))
	copy(buf[issuedAtLen:], c.mac(userID, purpose, buf[:issuedAtLen]))
	return b64.EncodeToString(buf)
}

// Verify checks token against userID and purpose at time now. consumedBefore,
// when set, is the issue time of the last redeemed token: anything issued at
// or before it is spent. On success it returns the token's issue time, which
// the caller records as the new consumption marker.
func (c *Codec) Verify(userID, purpose, token string, now time.Time, consumedBefore *time.Time) (time.Time, error) {
	raw, err := b64.DecodeString(token)
	if err != nil || len(raw) != tokenLen {
		return time.Time{}, ErrMalformed
	}

	want := c.mac(userID, purpose, raw[:issuedAtLen])
	if !hmac.Equal(want, raw[issuedAtLen:]) {
		return time.Time{}, ErrMismatch
	}

	issuedAt := time.Unix(int64(binary.BigEndian.Uint64(raw[:issuedAtLen])), 0).UTC()

	if issuedAt.After(now.Add(MaxClockSkew)) {
		return time.Time{}, ErrFuture
	}
	if !now.Before(issuedAt.Add(c.window)) {
		return time.Time{}, ErrExpired
	}
	if consumedBefore != nil && !issuedAt.After(consumedBefore.Truncate(time.Second)) {
		return time.Time{}, ErrConsumed
	}

	return issuedAt, nil
}

func (c *Codec) mac(userID, purpose string, issuedAt []byte) []byte {
	m := hmac.New(sha256.New, c.key)
	writeField(m, []byte(purpose))
	writeField(m, []byte(userID))
	m.Write(issuedAt)
	return m.Sum(nil)
}

// writeField length-prefixes b so adjacent fields cannot run into each other.
func writeField(w io.Writer, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	w.Write(n[:])
	w.Write(b)
}

// IsRejection reports whether err came from Verify rejecting a token.
func IsRejection(err error) bool {
	return errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired)
}

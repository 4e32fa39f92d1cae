package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
)

const (
	// HashSize is the length of a raw digest in bytes.
	HashSize = sha1.Size
	// HashHexSize is the length of a hex-encoded digest.
	HashHexSize = 2 * HashSize
)

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// ParseHash validates s as a full lowercase hex digest.
func ParseHash(s string) (Hash, error) {
	if !isHex(s) || len(s) != HashHexSize {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return Hash(s), nil
}

// HashFromRaw encodes a raw 20-byte digest.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("%w: raw digest is %d bytes", ErrInvalidHash, len(raw))
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// Raw returns the 20-byte binary form of h.
func (h Hash) Raw() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, string(h))
	}
	return hex.DecodeString(string(h))
}

// Valid reports whether h is a full lowercase hex digest.
func (h Hash) Valid() bool {
	return len(h) == HashHexSize && isHex(string(h))
}

// Short returns the first n characters of h, or all of it when n is out of range.
func (h Hash) Short(n int) string {
	if n <= 0 || n >= len(h) {
		return string(h)
	}
	return string(h[:n])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// Canonical returns the envelope "type len\0payload" that object digests
// are computed over. The length is decimal.
func Canonical(objType ObjectType, payload []byte) []byte {
	out := make([]byte, 0, len(objType)+24+len(payload))
	out = appendHeader(out, objType, len(payload))
	return append(out, payload...)
}

func appendHeader(dst []byte, objType ObjectType, n int) []byte {
	dst = append(dst, objType...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, 0)
}

// HashObject computes the SHA-1 of the envelope "type len\0payload",
// the identity of every stored object.
func HashObject(objType ObjectType, payload []byte) Hash {
	h := sha1.New()
	h.Write(appendHeader(nil, objType, len(payload)))
	h.Write(payload)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

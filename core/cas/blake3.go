// Package cas computes and verifies BLAKE3 content digests for verse
// sources and statement artifacts.
package cas

import (
	"encoding/hex"
	"regexp"

	"github.com/zeebo/blake3"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
)

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Blake3Hash computes the hex BLAKE3-256 digest of data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Hasher accumulates a BLAKE3 digest over streamed writes.
type Hasher struct {
	h *blake3.Hasher
	n int64
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: blake3.New()}
}

// Write adds p to the digest. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	h.n += int64(len(p))
	return h.h.Write(p)
}

// Hex returns the hex digest of everything written so far.
func (h *Hasher) Hex() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// Size returns the number of bytes written.
func (h *Hasher) Size() int64 {
	return h.n
}

// IsValidDigest reports whether s is a lowercase hex BLAKE3-256 digest.
func IsValidDigest(s string) bool {
	return digestPattern.MatchString(s)
}

// Verify checks data against an expected digest and returns an
// IntegrityError naming the artifact on mismatch.
func Verify(name string, data []byte, want string) error {
	if !IsValidDigest(want) {
		return mushaferrors.NewIntegrity("digest", "%s: malformed digest %q", name, want)
	}
	if got := Blake3Hash(data); got != want {
		return mushaferrors.NewIntegrity("digest", "%s: blake3 %s, manifest records %s", name, got, want)
	}
	return nil
}

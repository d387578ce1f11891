// Package ident derives the stable placeholder identifiers substituted for
// redacted values. Identifiers are linkable across operations under one salt
// and unrecoverable without the receipt's stored ciphertext.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/scrubward/scrubward/internal/types"
)

// ErrNoSalt is returned when constructing a generator without a salt.
var ErrNoSalt = errors.New("identifier salt not configured")

// digestLen is the hex length kept from the digest. Ten hex chars (~40 bits)
// are enough for linkage; truncation collisions at very large volumes are an
// accepted trade-off, not a uniqueness guarantee.
const digestLen = 10

// Generator derives identifiers under one immutable process-scoped salt.
// The salt is supplied at construction and never echoed anywhere.
type Generator struct {
	salt []byte
}

// New returns a Generator for the given salt.
func New(salt []byte) (*Generator, error) {
	if len(salt) == 0 {
		return nil, ErrNoSalt
	}
	s := make([]byte, len(salt))
	copy(s, salt)
	return &Generator{salt: s}, nil
}

// Identifier returns "{tier}::{label}::{10-hex}" for the raw value. The same
// (salt, value) pair always yields the same identifier.
func (g *Generator) Identifier(tier types.Tier, label, value string) string {
	h := sha256.New()
	h.Write(g.salt)
	h.Write([]byte(value))
	digest := hex.EncodeToString(h.Sum(nil))[:digestLen]
	return fmt.Sprintf("%s::%s::%s", tier, label, digest)
}

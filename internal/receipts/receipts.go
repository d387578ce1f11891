// Package receipts persists the encrypted reversible material of scrub
// operations. Receipts are write-once; the store exclusively owns receipt
// persistence and decryption.
package receipts

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scrubward/scrubward/internal/types"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrConflict rejects a second persist under an existing operation id.
	ErrConflict = errors.New("receipt already exists")
	// ErrNotFound marks a reversal target that was never persisted.
	ErrNotFound = errors.New("receipt not found")
	// ErrEncryptionUnavailable aborts receipt-bearing operations when no
	// usable key is configured. Redaction without a recoverable receipt is
	// not permitted unless explicitly requested.
	ErrEncryptionUnavailable = errors.New("receipt encryption unavailable")
)

// Entry is the reversible record for one scrubbed entity. Span addresses the
// original content; OutSpan addresses the scrubbed output, so reversal can
// splice without re-deriving offsets.
type Entry struct {
	Identifier string       `json:"identifier"`
	Label      string       `json:"label"`
	Tier       types.Tier   `json:"tier"`
	Action     types.Action `json:"action"`
	Confidence float64      `json:"confidence"`
	Span       types.Span   `json:"span"`
	OutSpan    types.Span   `json:"out_span"`
	Coordinate string       `json:"coordinate,omitempty"`
	Ciphertext string       `json:"ciphertext"`

	// Value is the plaintext original, present only while handing the entry
	// to Put. Never serialized.
	Value string `json:"-"`
}

// Receipt is the write-once reversible record of one operation.
type Receipt struct {
	OperationID     string            `json:"operation_id"`
	CreatedAt       time.Time         `json:"created_at"`
	OriginalHash    string            `json:"original_hash"`
	ScrubbedHash    string            `json:"scrubbed_hash"`
	RequestedTier   types.Tier        `json:"requested_tier"`
	ManifestVersion string            `json:"manifest_version"`
	Scrubbed        string            `json:"scrubbed"`
	PlaceholderMap  map[string]string `json:"placeholder_map"`
	Entries         []Entry           `json:"entries"`
}

// Store writes and reads receipts under one directory, one JSON file per
// operation id, encrypted with a deployment-scoped AEAD key.
type Store struct {
	dir  string
	aead cipher.AEAD
}

// Open prepares a store rooted at dir. The key must be exactly 32 bytes; a
// missing or malformed key yields ErrEncryptionUnavailable so callers abort
// before performing any redaction they could not reverse.
func Open(dir string, key []byte) (*Store, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: need %d-byte key, have %d", ErrEncryptionUnavailable, chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionUnavailable, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("receipts dir: %w", err)
	}
	return &Store{dir: dir, aead: aead}, nil
}

func (s *Store) path(operationID string) string {
	return filepath.Join(s.dir, operationID+".json")
}

// Put encrypts entry values and persists the receipt. A receipt under an
// existing operation id is rejected with ErrConflict, never overwritten.
func (s *Store) Put(r *Receipt) error {
	if r.OperationID == "" {
		return errors.New("receipt: empty operation id")
	}
	sealed := *r
	sealed.Entries = make([]Entry, len(r.Entries))
	for i, e := range r.Entries {
		ct, err := s.seal(e.Value)
		if err != nil {
			return fmt.Errorf("receipt %s: %w", r.OperationID, err)
		}
		e.Ciphertext = ct
		e.Value = ""
		sealed.Entries[i] = e
	}
	if sealed.CreatedAt.IsZero() {
		sealed.CreatedAt = time.Now().UTC()
	}

	f, err := os.OpenFile(s.path(r.OperationID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrConflict, r.OperationID)
		}
		return fmt.Errorf("receipt %s: %w", r.OperationID, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&sealed); err != nil {
		return fmt.Errorf("receipt %s: %w", r.OperationID, err)
	}
	return nil
}

// Get loads a receipt by operation id.
func (s *Store) Get(operationID string) (*Receipt, error) {
	b, err := os.ReadFile(s.path(operationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, operationID)
		}
		return nil, fmt.Errorf("receipt %s: %w", operationID, err)
	}
	var r Receipt
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("receipt %s: %w", operationID, err)
	}
	return &r, nil
}

// Decrypt recovers the plaintext original value of one entry.
func (s *Store) Decrypt(e Entry) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", e.Identifier, err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("decrypt %s: ciphertext too short", e.Identifier)
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", e.Identifier, err)
	}
	return string(plain), nil
}

// Discard removes a receipt whose audit append failed. A receipt without a
// corresponding audit entry must never be treated as redeemable.
func (s *Store) Discard(operationID string) error {
	if err := os.Remove(s.path(operationID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard receipt %s: %w", operationID, err)
	}
	return nil
}

func (s *Store) seal(value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := s.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cuemby/driftnote/pkg/types"
)

// ErrKeyMissing is returned when an operation requires a RepoKey but none
// was configured.
var ErrKeyMissing = errors.New("security: repo key not configured")

// ErrCipherMAC is returned when an EncryptedOp fails to authenticate,
// either because the ciphertext was tampered with or because it is being
// opened under the wrong sequence number.
var ErrCipherMAC = errors.New("security: authentication failed")

// EncryptedOp is the on-disk/wire representation of an encrypted
// LedgerEntry. Nonce is 12 bytes (AES-GCM standard nonce size).
type EncryptedOp struct {
	Nonce      [12]byte `json:"nonce"`
	Ciphertext []byte   `json:"ciphertext"`
}

// RepoKey is a per-repository AES-256 symmetric key held only in memory.
// The zero value is not usable; construct with NewRepoKey.
type RepoKey struct {
	key []byte
}

// NewRepoKey wraps a 32-byte AES-256 key.
func NewRepoKey(key []byte) (*RepoKey, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("security: repo key must be 32 bytes for AES-256, got %d", len(key))
	}
	return &RepoKey{key: key}, nil
}

// Zero overwrites the in-memory key material. Callers should invoke this
// on teardown; the key is never written to disk or logged, so this is the
// only place it needs to be scrubbed.
func (k *RepoKey) Zero() {
	for i := range k.key {
		k.key[i] = 0
	}
}

func (k *RepoKey) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func seqAAD(seq types.Seq) []byte {
	aad := make([]byte, 8)
	binary.BigEndian.PutUint64(aad, uint64(seq))
	return aad
}

// Encrypt serializes entry to JSON and seals it with AES-256-GCM,
// authenticating seq as associated data.
func (k *RepoKey) Encrypt(entry types.LedgerEntry, seq types.Seq) (EncryptedOp, error) {
	gcm, err := k.gcm()
	if err != nil {
		return EncryptedOp{}, err
	}

	plaintext, err := json.Marshal(entry)
	if err != nil {
		return EncryptedOp{}, fmt.Errorf("security: marshal entry: %w", err)
	}

	var nonce [12]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return EncryptedOp{}, fmt.Errorf("security: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce[:], plaintext, seqAAD(seq))
	return EncryptedOp{Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Decrypt opens an EncryptedOp, authenticating against seq. If the op was
// sealed under a different seq, authentication fails and ErrCipherMAC is
// returned — this is the mechanism that binds an entry to its slot.
func (k *RepoKey) Decrypt(op EncryptedOp, seq types.Seq) (types.LedgerEntry, error) {
	gcm, err := k.gcm()
	if err != nil {
		return types.LedgerEntry{}, err
	}

	plaintext, err := gcm.Open(nil, op.Nonce[:], op.Ciphertext, seqAAD(seq))
	if err != nil {
		return types.LedgerEntry{}, ErrCipherMAC
	}

	var entry types.LedgerEntry
	if err := json.Unmarshal(plaintext, &entry); err != nil {
		return types.LedgerEntry{}, fmt.Errorf("security: unmarshal entry: %w", err)
	}
	return entry, nil
}

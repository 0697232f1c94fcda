package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cuemby/driftnote/pkg/types"
)

// DerivePeerID computes the stable PeerID for a peer's public key: the
// hex-encoded SHA-256 digest.
func DerivePeerID(pubKey []byte) types.PeerID {
	sum := sha256.Sum256(pubKey)
	return types.PeerID(hex.EncodeToString(sum[:]))
}

// Sha256Hex returns the hex-encoded SHA-256 digest of data, used wherever
// the ledger needs a stable content fingerprint (e.g. commit ids derived
// from staged content).
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

/*
Package security provides the envelope cipher that protects every ledger
entry at rest, and the peer-identity hashing used to derive a PeerID from
a public key.

# Envelope cipher

Each on-disk ledger value is an AES-256-GCM ciphertext whose associated
data is the 8-byte big-endian sequence number of the slot it occupies.
Binding the seq into the AEAD tag means moving or renumbering an entry
invalidates its MAC — an entry only decrypts correctly in the slot it was
sealed for. The key itself (RepoKey) never touches disk; it is supplied by
the host process at boot and held in memory only.

This mirrors the project's existing secrets-encryption convention (AES-GCM
with a random 96-bit nonce, carried here in EncryptedOp's own Nonce field
rather than prepended to the ciphertext) but generalizes the
associated data from "none" to "the entry's sequence number", since here
the threat we defend against is not just disclosure but slot confusion
across a partition that is append-only and range-synced between peers.
*/
package security

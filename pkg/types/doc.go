/*
Package types defines the core identifiers and edit-operation vocabulary
shared by every layer of the ledger: the on-disk partitions, the sync
engine, the reconciler, and the merge algorithm all speak in terms of the
types declared here.

# Identifiers

DocID and RepoID are 128-bit UUIDs (github.com/google/uuid). PeerID is a
short stable string derived from a peer's public key (see pkg/security).
Seq is a 64-bit unsigned integer, monotone within a single partition but
not comparable across partitions.

# Operations

An Op is one of Insert, Delete, or NodeOp. Insert and Delete address
content using UTF-16 code-unit offsets, not byte or rune offsets — the
core commits to this encoding end-to-end because the reference front-end's
cursor API is UTF-16 native. NodeOp carries structural changes (create,
rename, delete of a path) as their own ledger entries rather than being
inferred from content edits.

# LedgerEntry

A LedgerEntry is the append-only unit of the system: one Op, tagged with
the document it applies to, the peer that authored it, a millisecond
timestamp, and the sequence number assigned by the owning partition at
append time.
*/
package types

package types

import (
	"github.com/google/uuid"
)

// DocID identifies a single document within a repository.
type DocID = uuid.UUID

// RepoID identifies a repository (a logical collection of documents shared
// between peers).
type RepoID = uuid.UUID

// PeerID is a stable short string derived from a peer's public key
// (SHA-256, hex-encoded). See pkg/security.DerivePeerID.
type PeerID string

// Seq is a monotone sequence number, unique within one partition. Two
// different partitions may reuse the same Seq value for unrelated entries.
type Seq uint64

// OpKind distinguishes the variants of Op.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpDelete OpKind = "delete"
	OpNode   OpKind = "node"
)

// NodeOpKind distinguishes the structural changes a NodeOp can carry.
type NodeOpKind string

const (
	NodeCreate NodeOpKind = "create"
	NodeRename NodeOpKind = "rename"
	NodeDelete NodeOpKind = "delete"
)

// Op is an edit operation. Pos and Len are always UTF-16 code-unit offsets
// into the document's current content, never byte or rune offsets.
//
// Insert and Delete are the two content-editing variants; NodeOp is the
// reserved structural variant for file create/rename/delete, carried as
// its own ledger entry rather than inferred from path edits.
type Op struct {
	Kind OpKind `json:"kind"`

	// Insert / Delete fields.
	Pos     uint32 `json:"pos,omitempty"`
	Content string `json:"content,omitempty"`
	Len     uint32 `json:"len,omitempty"`

	// NodeOp fields.
	NodeKind NodeOpKind `json:"node_kind,omitempty"`
	Path     string     `json:"path,omitempty"`
	NewPath  string     `json:"new_path,omitempty"`
}

// Insert builds an Insert op at a UTF-16 offset.
func Insert(pos uint32, content string) Op {
	return Op{Kind: OpInsert, Pos: pos, Content: content}
}

// Delete builds a Delete op over a UTF-16 offset range.
func Delete(pos, length uint32) Op {
	return Op{Kind: OpDelete, Pos: pos, Len: length}
}

// NewNodeOp builds a structural op.
func NewNodeOp(kind NodeOpKind, path, newPath string) Op {
	return Op{Kind: OpNode, NodeKind: kind, Path: path, NewPath: newPath}
}

// LedgerEntry is the append-only unit of the ledger: one Op plus the
// provenance needed to reconstruct content and resolve conflicts.
type LedgerEntry struct {
	DocID       DocID  `json:"doc_id"`
	Op          Op     `json:"op"`
	TimestampMs int64  `json:"timestamp_ms"`
	PeerID      PeerID `json:"peer_id"`
	Seq         Seq    `json:"seq"`
}

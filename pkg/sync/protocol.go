package sync

import (
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/types"
)

// Mode selects whether inbound remote ops fold into local automatically or
// wait in a PendingOpsBuffer for an explicit MergePending call.
type Mode string

const (
	Automatic Mode = "automatic"
	Manual    Mode = "manual"
)

// SyncRequest asks a peer for its ops in a repo over a half-open sequence
// range. Transport-agnostic: JSON-serializable, carried over whatever a
// host's network layer is.
type SyncRequest struct {
	PeerID types.PeerID
	RepoID types.RepoID
	Range  [2]uint64
}

// SyncResponse carries a batch of still-encrypted ops answering a
// SyncRequest. Range is the half-open sequence range the ops occupy in
// their origin partition; Ops[i] occupies Range[0]+i.
type SyncResponse struct {
	PeerID types.PeerID
	RepoID types.RepoID
	Range  [2]uint64
	Ops    []security.EncryptedOp
}

package repository

import (
	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/metrics"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/sourcecontrol"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

// Repository is the single handle a CLI or service layer drives one
// repository through. It composes a ledger.Manager, a tree.Index and a
// sourcecontrol.Store scoped to one RepoID, exposing list/get/append on
// the ledger side and list-changes/diff/stage/commit on the
// source-control side. AppendRemoteOp takes an explicit PeerID since a
// node may hold a shadow partition per remote peer, not just one.
type Repository struct {
	mgr     *ledger.Manager
	tree    *tree.Index
	sc      *sourcecontrol.Store
	repoID  types.RepoID
	repoKey *security.RepoKey
}

// New builds a Repository over mgr's local partition for repoID, using
// treeIdx for path resolution and repoKey to seal/open entries.
func New(mgr *ledger.Manager, treeIdx *tree.Index, repoID types.RepoID, repoKey *security.RepoKey) *Repository {
	return &Repository{
		mgr:     mgr,
		tree:    treeIdx,
		sc:      sourcecontrol.NewStore(mgr, treeIdx, repoID, repoKey),
		repoID:  repoID,
		repoKey: repoKey,
	}
}

// ListDocs returns every known path and the DocID it resolves to.
func (r *Repository) ListDocs() (map[string]types.DocID, error) {
	return r.tree.AllPaths()
}

// GetDocContent reconstructs docID's current content from its local op
// log, resuming from the nearest snapshot checkpoint rather than folding
// the document's entire history (see ledger.Manager.ReconstructLocal).
func (r *Repository) GetDocContent(docID types.DocID) (string, error) {
	return r.mgr.ReconstructLocal(r.repoID, r.repoKey, docID)
}

// GetLocalOps returns every local ledger entry for docID, in sequence
// order.
func (r *Repository) GetLocalOps(docID types.DocID) ([]types.LedgerEntry, error) {
	maxSeq, err := r.mgr.MaxSeqLocal(r.repoID)
	if err != nil {
		return nil, err
	}
	entries, err := r.mgr.GetLocalOps(r.repoID, r.repoKey, 0, maxSeq+1)
	if err != nil {
		return nil, err
	}
	return filterDoc(entries, docID), nil
}

// AppendLocalOp seals and appends entry to the local partition, allocating
// the next sequence number.
func (r *Repository) AppendLocalOp(entry types.LedgerEntry) (types.Seq, error) {
	seq, err := r.mgr.AppendLocal(r.repoID, r.repoKey, entry)
	if err != nil {
		return 0, err
	}
	metrics.LedgerAppendsTotal.WithLabelValues("local").Inc()
	return seq, nil
}

// AppendRemoteOp seals and appends entry to the shadow partition mirroring
// peerID's copy of this repository.
func (r *Repository) AppendRemoteOp(peerID types.PeerID, entry types.LedgerEntry) (types.Seq, error) {
	seq, err := r.mgr.AppendRemote(peerID, r.repoID, r.repoKey, entry)
	if err != nil {
		return 0, err
	}
	metrics.LedgerAppendsTotal.WithLabelValues("shadow").Inc()
	return seq, nil
}

// ListChanges reports every path that differs from the last commit.
func (r *Repository) ListChanges() ([]sourcecontrol.ChangeEntry, error) {
	return r.sc.ListChanges()
}

// DiffDocPath returns a unified diff between path's last-committed content
// and its current content, empty if they match.
func (r *Repository) DiffDocPath(path string) (string, error) {
	return r.sc.DiffDocPath(path)
}

// StageFile stages path's current content for the next commit.
func (r *Repository) StageFile(path string) error {
	return r.sc.StageFile(path)
}

// CommitStaged freezes the staging set into a new commit.
func (r *Repository) CommitStaged(message string) (sourcecontrol.CommitInfo, error) {
	info, err := r.sc.CommitStaged(message)
	if err != nil {
		return sourcecontrol.CommitInfo{}, err
	}
	metrics.CommitsTotal.Inc()
	return info, nil
}

func filterDoc(entries []types.LedgerEntry, docID types.DocID) []types.LedgerEntry {
	out := make([]types.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.DocID == docID {
			out = append(out, e)
		}
	}
	return out
}

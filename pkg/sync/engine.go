package sync

import (
	"fmt"
	"sync"

	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/ledgererr"
	"github.com/cuemby/driftnote/pkg/log"
	"github.com/cuemby/driftnote/pkg/merge"
	"github.com/cuemby/driftnote/pkg/metrics"
	"github.com/cuemby/driftnote/pkg/opstate"
	"github.com/cuemby/driftnote/pkg/reconcile"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/types"
)

// Engine drives the sync protocol against a ledger.Manager: it serves
// outbound SyncRequests with the caller's own stored ciphertext, and it
// applies inbound SyncResponses by decrypting into a shadow partition and,
// in Automatic mode, folding the result toward local.
type Engine struct {
	local     *ledger.Manager
	repoKey   *security.RepoKey
	localPeer types.PeerID
	mode      Mode
	pending   *PendingOpsBuffer

	mu        sync.Mutex
	watermark map[types.DocID]uint64 // local seq as of this doc's last successful automatic fold
	conflicts map[types.DocID]merge.Result
}

// NewEngine builds an Engine bound to a single RepoKey and Manager.
func NewEngine(local *ledger.Manager, repoKey *security.RepoKey, localPeer types.PeerID, mode Mode) *Engine {
	return &Engine{
		local:     local,
		repoKey:   repoKey,
		localPeer: localPeer,
		mode:      mode,
		pending:   NewPendingOpsBuffer(),
		watermark: make(map[types.DocID]uint64),
		conflicts: make(map[types.DocID]merge.Result),
	}
}

// Mode reports the engine's current automatic/manual setting.
func (e *Engine) Mode() Mode { return e.mode }

// Pending exposes the manual-mode buffer for hosts that want visibility
// into queue depth without draining it.
func (e *Engine) Pending() *PendingOpsBuffer { return e.pending }

// Conflict returns the most recent unresolved merge conflict recorded for
// docID during an automatic fold, if any.
func (e *Engine) Conflict(docID types.DocID) (merge.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.conflicts[docID]
	return r, ok
}

// GetOpsForSync serves an outbound sync request, forwarding the caller's
// own stored ciphertext for the requested range unchanged.
func (e *Engine) GetOpsForSync(req SyncRequest) (SyncResponse, error) {
	if e.repoKey == nil {
		return SyncResponse{}, ledgererr.KeyMissing
	}

	var (
		ops []security.EncryptedOp
		err error
	)
	if req.PeerID == e.localPeer {
		ops, err = e.local.RawLocalOps(req.RepoID, req.Range[0], req.Range[1])
	} else {
		ops, err = e.local.RawShadowOps(req.PeerID, req.RepoID, req.Range[0], req.Range[1])
	}
	if err != nil {
		return SyncResponse{}, err
	}

	return SyncResponse{
		PeerID: req.PeerID,
		RepoID: req.RepoID,
		Range:  req.Range,
		Ops:    ops,
	}, nil
}

// ApplyRemoteOps decrypts resp's ops and appends them into the shadow
// partition for resp.PeerID/resp.RepoID under their origin sequence
// numbers. In Automatic mode, every document touched by the batch is
// immediately reconciled and merged toward local. In Manual mode the
// response is queued instead and applied is 0.
func (e *Engine) ApplyRemoteOps(resp SyncResponse) (applied uint64, err error) {
	if e.repoKey == nil {
		return 0, ledgererr.KeyMissing
	}

	if e.mode == Manual {
		e.pending.Push(resp)
		metrics.SyncPendingDepth.Set(float64(e.pending.Count()))
		return 0, nil
	}

	return e.applyNow(resp)
}

func (e *Engine) applyNow(resp SyncResponse) (uint64, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncBatchDuration)

	touched := make(map[types.DocID]bool)

	for i, op := range resp.Ops {
		seq := types.Seq(resp.Range[0] + uint64(i))
		entry, err := e.repoKey.Decrypt(op, seq)
		if err != nil {
			return 0, &ledgererr.CipherError{Seq: uint64(seq), Err: err}
		}
		if err := e.local.AppendRemoteAt(resp.PeerID, resp.RepoID, e.repoKey, seq, entry); err != nil {
			return 0, err
		}
		touched[entry.DocID] = true
	}

	for docID := range touched {
		if err := e.foldDoc(resp.PeerID, resp.RepoID, docID); err != nil {
			return uint64(len(resp.Ops)), fmt.Errorf("sync: fold doc %s: %w", docID, err)
		}
	}

	metrics.SyncOpsAppliedTotal.WithLabelValues(string(resp.PeerID)).Add(float64(len(resp.Ops)))
	return uint64(len(resp.Ops)), nil
}

// MergePending drains the manual-mode buffer, applying every queued
// response as if it had just arrived in Automatic mode.
func (e *Engine) MergePending() (uint64, error) {
	var total uint64
	for _, resp := range e.pending.TakeAll() {
		n, err := e.applyNow(resp)
		total += n
		if err != nil {
			metrics.SyncPendingDepth.Set(float64(e.pending.Count()))
			return total, err
		}
	}
	metrics.SyncPendingDepth.Set(0)
	return total, nil
}

// ClearPending discards the manual-mode buffer without merging it.
func (e *Engine) ClearPending() {
	e.pending.Clear()
	metrics.SyncPendingDepth.Set(0)
}

// foldDoc three-way-merges docID's local content (since the last fold)
// against its full history, and the shadow partition's reconstructed
// content, appending a compensating diff locally on a clean merge. On
// Conflict, local is left untouched and the conflict is recorded for the
// host to resolve (e.g. via pkg/sourcecontrol) rather than silently
// picking a side.
func (e *Engine) foldDoc(peerID types.PeerID, repoID types.RepoID, docID types.DocID) error {
	maxSeq, err := e.local.MaxSeqLocal(repoID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	watermark, seen := e.watermark[docID]
	if !seen {
		// First contact for this doc: nothing is known about a shared
		// ancestor, so the doc's entire current local history is treated
		// as the base. This makes the very first fold for a doc a clean
		// adopt-remote, with real conflicts only possible afterward, once
		// a watermark from a prior fold exists.
		watermark = maxSeq
	}
	e.mu.Unlock()

	baseOps, err := e.local.GetLocalOps(repoID, e.repoKey, 0, watermark+1)
	if err != nil {
		return err
	}
	localOps, err := e.local.GetLocalOps(repoID, e.repoKey, 0, maxSeq+1)
	if err != nil {
		return err
	}
	remoteOps, err := e.local.GetShadowOps(peerID, repoID, e.repoKey, 0, ^uint64(0))
	if err != nil {
		return err
	}

	base := opstate.ReconstructContent(filterDoc(baseOps, docID))
	local := opstate.ReconstructContent(filterDoc(localOps, docID))
	remote := opstate.ReconstructContent(filterDoc(remoteOps, docID))

	if local == remote {
		e.mu.Lock()
		e.watermark[docID] = maxSeq
		delete(e.conflicts, docID)
		e.mu.Unlock()
		return nil
	}

	result := merge.Merge(base, local, remote)
	if result.Status == merge.Conflict {
		e.mu.Lock()
		e.conflicts[docID] = result
		e.mu.Unlock()
		metrics.MergeConflictsTotal.Inc()
		log.WithPeerID(string(peerID)).Warn().
			Str("doc_id", docID.String()).
			Msg("fold produced a conflict, local left untouched")
		return nil
	}
	metrics.MergeSuccessTotal.Inc()

	entries, err := reconcile.ComputeReconcileOps(docID, filterDoc(localOps, docID), result.Merged, peerID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := e.local.AppendLocal(repoID, e.repoKey, entry); err != nil {
			return err
		}
	}

	newMax, err := e.local.MaxSeqLocal(repoID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.watermark[docID] = newMax
	delete(e.conflicts, docID)
	e.mu.Unlock()
	return nil
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

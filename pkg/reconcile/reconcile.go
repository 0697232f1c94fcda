package reconcile

import (
	"strings"
	"time"

	"github.com/cuemby/driftnote/pkg/opstate"
	"github.com/cuemby/driftnote/pkg/types"
)

func normalizeCRLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// ComputeReconcileOps compares the content reconstructed from ledgerOps
// against observedContent (disk, or a peer's reconstructed state) and
// returns the ops needed to bring the ledger side in line with it. Returns
// nil if the two already match after CRLF normalization.
//
// Seq is left at zero on every returned entry — the caller is expected to
// append through ledger.Manager.AppendLocal, which assigns the real
// sequence atomically (mirrors the placeholder-seq convention in
// original_source/sync/reconcile.rs).
//
// Caveat: the UTF-16 positional contract in pkg/opstate assumes both sides
// of a diff reason about position in UTF-16 code units. A disk watcher
// observing a raw UTF-8 byte stream has no such notion — opstate.ComputeDiff
// re-projects its rune-level diff onto UTF-16 offsets after the fact, which
// is a mitigation, not a proof that no UTF-8/UTF-16 boundary case can slip
// through. This is flagged, not fixed, per the open design question it
// traces back to.
func ComputeReconcileOps(docID types.DocID, ledgerOps []types.LedgerEntry, observedContent string, watcherPeer types.PeerID) ([]types.LedgerEntry, error) {
	ledgerContent := normalizeCRLF(opstate.ReconstructContent(ledgerOps))
	observed := normalizeCRLF(observedContent)

	if ledgerContent == observed {
		return nil, nil
	}

	diffOps := opstate.ComputeDiff(ledgerContent, observed)
	now := time.Now().UnixMilli()
	entries := make([]types.LedgerEntry, 0, len(diffOps))
	for _, op := range diffOps {
		entries = append(entries, types.LedgerEntry{
			DocID:       docID,
			Op:          op,
			TimestampMs: now,
			PeerID:      watcherPeer,
			Seq:         0,
		})
	}
	return entries, nil
}

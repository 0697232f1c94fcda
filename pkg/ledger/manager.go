package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/driftnote/pkg/ledgererr"
	"github.com/cuemby/driftnote/pkg/log"
	"github.com/cuemby/driftnote/pkg/opstate"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/snapshot"
	"github.com/cuemby/driftnote/pkg/storage"
	"github.com/cuemby/driftnote/pkg/types"
)

const (
	dirMode   = 0o700
	localDir  = "local"
	remoteDir = "remotes"
)

// Manager owns the local partition and a lazily populated cache of shadow
// partitions, one per (peer, repo) pair. All handle lookups go through a
// single RWMutex: bbolt already serializes writers within one .db file, so
// the mutex exists only to protect the Go-level map of open handles.
type Manager struct {
	mu            sync.RWMutex
	ledgerDir     string
	local         map[types.RepoID]*storage.SeqStore
	shadows       map[types.PeerID]map[types.RepoID]*storage.SeqStore
	snapshotDepth int
	snapshotPlan  snapshot.Policy
}

// NewManager creates a Manager rooted at ledgerDir. Directories are created
// lazily as partitions are opened.
func NewManager(ledgerDir string, snapshotDepth int) *Manager {
	return &Manager{
		ledgerDir:     ledgerDir,
		local:         make(map[types.RepoID]*storage.SeqStore),
		shadows:       make(map[types.PeerID]map[types.RepoID]*storage.SeqStore),
		snapshotDepth: snapshotDepth,
		snapshotPlan:  snapshot.DefaultPolicy(),
	}
}

// SnapshotDepth returns the configured retention depth for this manager's
// partitions.
func (m *Manager) SnapshotDepth() int { return m.snapshotDepth }

// OpenLocal returns (opening if necessary) the local partition for repoID.
func (m *Manager) OpenLocal(repoID types.RepoID) (*storage.SeqStore, error) {
	m.mu.RLock()
	if s, ok := m.local[repoID]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.local[repoID]; ok {
		return s, nil
	}

	dir := filepath.Join(m.ledgerDir, localDir)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, ledgererr.WrapStore("mkdir local", err)
	}
	s, err := storage.Open(dir, repoID.String())
	if err != nil {
		return nil, ledgererr.WrapStore("open local partition", err)
	}
	m.local[repoID] = s
	return s, nil
}

// OpenShadow returns (opening if necessary) the shadow partition mirroring
// peerID's copy of repoID.
func (m *Manager) OpenShadow(peerID types.PeerID, repoID types.RepoID) (*storage.SeqStore, error) {
	m.mu.RLock()
	if byRepo, ok := m.shadows[peerID]; ok {
		if s, ok := byRepo[repoID]; ok {
			m.mu.RUnlock()
			return s, nil
		}
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	byRepo, ok := m.shadows[peerID]
	if !ok {
		byRepo = make(map[types.RepoID]*storage.SeqStore)
		m.shadows[peerID] = byRepo
	}
	if s, ok := byRepo[repoID]; ok {
		return s, nil
	}

	dir := filepath.Join(m.ledgerDir, remoteDir, string(peerID))
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, ledgererr.WrapStore("mkdir shadow", err)
	}
	s, err := storage.Open(dir, repoID.String())
	if err != nil {
		return nil, ledgererr.WrapStore("open shadow partition", err)
	}
	byRepo[repoID] = s
	return s, nil
}

// AppendLocal encrypts entry under a freshly allocated sequence number and
// appends it to repoID's local partition.
func (m *Manager) AppendLocal(repoID types.RepoID, key *security.RepoKey, entry types.LedgerEntry) (types.Seq, error) {
	store, err := m.OpenLocal(repoID)
	if err != nil {
		return 0, err
	}
	return appendEncrypted(store, key, entry)
}

// AppendRemote encrypts entry and appends it to the shadow partition
// mirroring peerID's copy of repoID, allocating a fresh local sequence.
func (m *Manager) AppendRemote(peerID types.PeerID, repoID types.RepoID, key *security.RepoKey, entry types.LedgerEntry) (types.Seq, error) {
	store, err := m.OpenShadow(peerID, repoID)
	if err != nil {
		return 0, err
	}
	return appendEncrypted(store, key, entry)
}

// AppendRemoteAt encrypts entry and stores it at an explicit sequence
// number in the shadow partition for (peerID, repoID), mirroring the
// sender's own sequence numbering instead of allocating a local one. Used
// when applying a SyncResponse whose ops carry their origin's sequence.
func (m *Manager) AppendRemoteAt(peerID types.PeerID, repoID types.RepoID, key *security.RepoKey, seq types.Seq, entry types.LedgerEntry) error {
	if key == nil {
		return ledgererr.KeyMissing
	}
	store, err := m.OpenShadow(peerID, repoID)
	if err != nil {
		return err
	}
	op, err := key.Encrypt(entry, seq)
	if err != nil {
		return fmt.Errorf("ledger: encrypt entry: %w", err)
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("ledger: marshal encrypted op: %w", err)
	}
	if err := store.AppendAt(uint64(seq), raw); err != nil {
		return ledgererr.WrapStore("append at", err)
	}
	return nil
}

func appendEncrypted(store *storage.SeqStore, key *security.RepoKey, entry types.LedgerEntry) (types.Seq, error) {
	if key == nil {
		return 0, ledgererr.KeyMissing
	}

	// AEAD associated data binds ciphertext to the slot it lands in, so the
	// entry must be sealed with the sequence it will actually occupy
	// before it's written. Append allocates that sequence atomically and
	// takes a builder so the value committed under it can depend on it.
	var sealErr error
	seq, appendErr := store.AppendWithSeq(func(allocated uint64) ([]byte, error) {
		op, err := key.Encrypt(entry, types.Seq(allocated))
		if err != nil {
			sealErr = err
			return nil, err
		}
		return json.Marshal(op)
	})
	if sealErr != nil {
		return 0, fmt.Errorf("ledger: encrypt entry: %w", sealErr)
	}
	if appendErr != nil {
		return 0, ledgererr.WrapStore("append", appendErr)
	}
	return types.Seq(seq), nil
}

// GetLocalOps decrypts and returns every entry in repoID's local partition
// with lo <= seq < hi. Entries whose envelope fails to decode are
// quarantined and logged rather than failing the whole range.
func (m *Manager) GetLocalOps(repoID types.RepoID, key *security.RepoKey, lo, hi uint64) ([]types.LedgerEntry, error) {
	store, err := m.OpenLocal(repoID)
	if err != nil {
		return nil, err
	}
	entries, quarantined, err := decryptRange(store, key, lo, hi)
	logQuarantined(repoID, quarantined)
	return entries, err
}

// ReconstructLocal reconstructs docID's current content from repoID's
// local partition, resuming from the newest snapshot at or before the
// document's current max sequence instead of folding the document's full
// history from scratch. Deleting every snapshot never changes the
// result; this is only a shortcut over decryptRange(0, maxSeq+1) plus
// opstate.ReconstructContent. After folding, it consults the adaptive
// snapshot policy and writes a fresh checkpoint when due.
func (m *Manager) ReconstructLocal(repoID types.RepoID, key *security.RepoKey, docID types.DocID) (string, error) {
	store, err := m.OpenLocal(repoID)
	if err != nil {
		return "", err
	}
	maxSeq, err := store.MaxSeq()
	if err != nil {
		return "", ledgererr.WrapStore("max seq", err)
	}

	start := time.Now()

	base := ""
	lo := uint64(0)
	snap, found, err := snapshot.LoadLatest(store, docID, maxSeq)
	if err != nil {
		return "", ledgererr.WrapStore("load snapshot", err)
	}
	if found {
		base = snap.Content
		lo = snap.UpToSeq + 1
	}

	entries, quarantined, err := decryptRange(store, key, lo, maxSeq+1)
	if err != nil {
		return "", err
	}
	logQuarantined(repoID, quarantined)
	docEntries := filterDocEntries(entries, docID)

	content := opstate.FoldFrom(base, docEntries)
	lastOpenMs := time.Since(start).Milliseconds()

	if m.snapshotPlan.ShouldSnapshot(len(content), uint64(len(docEntries)), lastOpenMs) {
		_ = snapshot.Save(store, docID, maxSeq, content, m.snapshotDepth)
	}

	return content, nil
}

func filterDocEntries(entries []types.LedgerEntry, docID types.DocID) []types.LedgerEntry {
	out := make([]types.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.DocID == docID {
			out = append(out, e)
		}
	}
	return out
}

// GetShadowOps decrypts and returns every entry in the shadow partition for
// (peerID, repoID) with lo <= seq < hi. Entries whose envelope fails to
// decode are quarantined and logged rather than failing the whole range.
func (m *Manager) GetShadowOps(peerID types.PeerID, repoID types.RepoID, key *security.RepoKey, lo, hi uint64) ([]types.LedgerEntry, error) {
	store, err := m.OpenShadow(peerID, repoID)
	if err != nil {
		return nil, err
	}
	entries, quarantined, err := decryptRange(store, key, lo, hi)
	logQuarantined(repoID, quarantined)
	return entries, err
}

// decryptRange decrypts lo <= seq < hi from store. An envelope that fails to
// unmarshal is quarantined (kept on disk, skipped in reconstruction, and
// reported to the caller) rather than aborting the scan, mirroring
// opstate.ReconstructWithQuarantine's quarantine-and-continue behavior one
// layer up. A decrypt failure (CipherError) is a different failure kind — it
// means the key doesn't open this partition's data at all — and still
// aborts the whole range.
func decryptRange(store *storage.SeqStore, key *security.RepoKey, lo, hi uint64) ([]types.LedgerEntry, []*ledgererr.CorruptOp, error) {
	if key == nil {
		return nil, nil, ledgererr.KeyMissing
	}
	values, err := store.RangeSlice(lo, hi)
	if err != nil {
		return nil, nil, ledgererr.WrapStore("range", err)
	}

	entries := make([]types.LedgerEntry, 0, len(values))
	var quarantined []*ledgererr.CorruptOp
	for _, v := range values {
		var op security.EncryptedOp
		if err := json.Unmarshal(v.Value, &op); err != nil {
			quarantined = append(quarantined, &ledgererr.CorruptOp{Seq: v.Seq, Err: err})
			continue
		}
		entry, err := key.Decrypt(op, types.Seq(v.Seq))
		if err != nil {
			return nil, nil, &ledgererr.CipherError{Seq: v.Seq, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, quarantined, nil
}

// logQuarantined reports entries decryptRange skipped because their
// envelope failed to decode. The entries stay on disk; only reconstruction
// skips them.
func logQuarantined(repoID types.RepoID, quarantined []*ledgererr.CorruptOp) {
	for _, q := range quarantined {
		log.WithRepoID(repoID.String()).Warn().
			Uint64("seq", q.Seq).
			Err(q.Err).
			Msg("quarantined corrupt op")
	}
}

// RawRange returns the stored EncryptedOp envelopes for lo <= seq < hi
// without decrypting them. Used by the sync engine to serve outbound sync
// requests: the responder forwards ciphertext as-is, never decrypting its
// own data to hand it to a peer.
func RawRange(store *storage.SeqStore, lo, hi uint64) ([]security.EncryptedOp, error) {
	values, err := store.RangeSlice(lo, hi)
	if err != nil {
		return nil, ledgererr.WrapStore("range", err)
	}
	ops := make([]security.EncryptedOp, 0, len(values))
	for _, v := range values {
		var op security.EncryptedOp
		if err := json.Unmarshal(v.Value, &op); err != nil {
			return nil, &ledgererr.CorruptOp{Seq: v.Seq, Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// MaxSeqLocal returns the highest sequence number appended to repoID's
// local partition.
func (m *Manager) MaxSeqLocal(repoID types.RepoID) (uint64, error) {
	store, err := m.OpenLocal(repoID)
	if err != nil {
		return 0, err
	}
	return store.MaxSeq()
}

// ShadowPartitionCount returns the number of open shadow partition handles
// across every remote peer, for the metrics collector to sample.
func (m *Manager) ShadowPartitionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, byRepo := range m.shadows {
		n += len(byRepo)
	}
	return n
}

// RawLocalOps returns the stored EncryptedOp envelopes from repoID's local
// partition for lo <= seq < hi, without decrypting them.
func (m *Manager) RawLocalOps(repoID types.RepoID, lo, hi uint64) ([]security.EncryptedOp, error) {
	store, err := m.OpenLocal(repoID)
	if err != nil {
		return nil, err
	}
	return RawRange(store, lo, hi)
}

// RawShadowOps returns the stored EncryptedOp envelopes from the shadow
// partition for (peerID, repoID) with lo <= seq < hi, without decrypting
// them.
func (m *Manager) RawShadowOps(peerID types.PeerID, repoID types.RepoID, lo, hi uint64) ([]security.EncryptedOp, error) {
	store, err := m.OpenShadow(peerID, repoID)
	if err != nil {
		return nil, err
	}
	return RawRange(store, lo, hi)
}

// Close closes every open partition handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, s := range m.local {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, byRepo := range m.shadows {
		for _, s := range byRepo {
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

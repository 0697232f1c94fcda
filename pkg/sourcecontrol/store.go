package sourcecontrol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/ledgererr"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/storage"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

// Store is the source-control view over one repository's local ledger: a
// process-local staging area plus a durable commit history in the local
// partition's commits bucket.
type Store struct {
	mgr     *ledger.Manager
	tree    *tree.Index
	repoID  types.RepoID
	repoKey *security.RepoKey

	mu      sync.Mutex
	staging map[string]string // path -> staged content
}

// NewStore builds a Store over mgr's local partition for repoID, using
// treeIdx to resolve paths to DocIDs.
func NewStore(mgr *ledger.Manager, treeIdx *tree.Index, repoID types.RepoID, repoKey *security.RepoKey) *Store {
	return &Store{
		mgr:     mgr,
		tree:    treeIdx,
		repoID:  repoID,
		repoKey: repoKey,
		staging: make(map[string]string),
	}
}

// StageFile registers path (if not already known) and records its current
// reconstructed content into the staging area.
func (s *Store) StageFile(path string) error {
	docID, err := s.tree.Register(path)
	if err != nil {
		return err
	}
	content, err := s.currentContent(docID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.staging[path] = content
	s.mu.Unlock()
	return nil
}

// CommitStaged freezes the current staging set into a new commit record and
// clears staging. It fails if nothing is staged.
func (s *Store) CommitStaged(message string) (CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.staging) == 0 {
		return CommitInfo{}, fmt.Errorf("sourcecontrol: nothing staged")
	}

	snapshot := make(map[string]string, len(s.staging))
	for p, c := range s.staging {
		snapshot[p] = c
	}

	info := CommitInfo{
		Message:     message,
		TimestampMs: time.Now().UnixMilli(),
		DocCount:    uint32(len(snapshot)),
	}
	info.ID = commitID(info, snapshot)

	raw, err := json.Marshal(commitRecord{Info: info, Snapshot: snapshot})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("sourcecontrol: encode commit: %w", err)
	}

	store, err := s.mgr.OpenLocal(s.repoID)
	if err != nil {
		return CommitInfo{}, err
	}
	err = store.Update(storage.BucketCommits(), func(b *bolt.Bucket) error {
		key, err := nextCommitKey(b)
		if err != nil {
			return err
		}
		return b.Put(key, raw)
	})
	if err != nil {
		return CommitInfo{}, ledgererr.WrapStore("commit", err)
	}

	s.staging = make(map[string]string)
	return info, nil
}

// ListChanges reports every path that differs from the last commit's
// snapshot (or every known path as Added, if there is no commit yet).
func (s *Store) ListChanges() ([]ChangeEntry, error) {
	last, err := s.lastCommit()
	if err != nil {
		return nil, err
	}
	baseline := map[string]string{}
	if last != nil {
		baseline = last.Snapshot
	}

	current, err := s.currentPathContents()
	if err != nil {
		return nil, err
	}

	var changes []ChangeEntry
	for p, c := range current {
		if old, ok := baseline[p]; !ok {
			changes = append(changes, ChangeEntry{Path: p, Status: Added})
		} else if old != c {
			changes = append(changes, ChangeEntry{Path: p, Status: Modified})
		}
	}
	for p := range baseline {
		if _, ok := current[p]; !ok {
			changes = append(changes, ChangeEntry{Path: p, Status: Deleted})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// DiffDocPath returns a unified diff between path's last-committed content
// and its current reconstructed content. The result is empty if they match.
func (s *Store) DiffDocPath(path string) (string, error) {
	docID, ok, err := s.tree.GetDocID(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("sourcecontrol: unknown path %q: %w", path, ledgererr.NotFound)
	}

	current, err := s.currentContent(docID)
	if err != nil {
		return "", err
	}

	last, err := s.lastCommit()
	if err != nil {
		return "", err
	}
	var old string
	if last != nil {
		old = last.Snapshot[path]
	}

	if old == current {
		return "", nil
	}
	return unifiedDiff(old, current, path), nil
}

func (s *Store) currentContent(docID types.DocID) (string, error) {
	return s.mgr.ReconstructLocal(s.repoID, s.repoKey, docID)
}

func (s *Store) currentPathContents() (map[string]string, error) {
	paths, err := s.tree.AllPaths()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(paths))
	for p, docID := range paths {
		content, err := s.currentContent(docID)
		if err != nil {
			return nil, err
		}
		out[p] = content
	}
	return out, nil
}

func (s *Store) lastCommit() (*commitRecord, error) {
	store, err := s.mgr.OpenLocal(s.repoID)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = store.View(storage.BucketCommits(), func(b *bolt.Bucket) error {
		_, v := b.Cursor().Last()
		if v == nil {
			return nil
		}
		raw = make([]byte, len(v))
		copy(raw, v)
		return nil
	})
	if err != nil {
		return nil, ledgererr.WrapStore("last commit", err)
	}
	if raw == nil {
		return nil, nil
	}

	var rec commitRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("sourcecontrol: decode commit: %w", err)
	}
	return &rec, nil
}

// commitID derives a content-addressed commit id from the commit's
// message, timestamp, doc count and path-sorted snapshot contents, so two
// commits collide on id only when all of those are identical.
func commitID(info CommitInfo, snapshot map[string]string) string {
	paths := make([]string, 0, len(snapshot))
	for p := range snapshot {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%d\n%d\n", info.Message, info.TimestampMs, info.DocCount)
	for _, p := range paths {
		fmt.Fprintf(&buf, "%s\x00%s\x00", p, snapshot[p])
	}
	return security.Sha256Hex(buf.Bytes())
}

// nextCommitKey allocates the next 8-byte big-endian commit key, mirroring
// storage.SeqStore's own sequence scheme for a bucket that store doesn't
// expose sequence allocation for directly.
func nextCommitKey(b *bolt.Bucket) ([]byte, error) {
	k, _ := b.Cursor().Last()
	var next uint64
	if k != nil {
		next = binary.BigEndian.Uint64(k) + 1
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, next)
	return key, nil
}

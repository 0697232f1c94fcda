package tree

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/driftnote/pkg/storage"
	"github.com/cuemby/driftnote/pkg/types"
)

// NodeKind distinguishes a leaf document from a directory-only node.
type NodeKind string

const (
	NodeFile NodeKind = "file"
	NodeDir  NodeKind = "dir"
)

// NodeMeta is a single node in the tree. It stores only a ParentID, never a
// list of children — children are found by scanning paths, not by walking a
// back-pointer graph (see doc.go).
type NodeMeta struct {
	ID       uuid.UUID  `json:"id"`
	ParentID uuid.UUID  `json:"parent_id"`
	Name     string     `json:"name"`
	Kind     NodeKind   `json:"kind"`
	DocID    types.DocID `json:"doc_id,omitempty"`
}

// Index maps slash-separated paths to NodeMeta and DocIDs. It is a cache:
// everything it holds can be registered again from observed filesystem
// paths (see ResolveOrRecover); it does not append NodeOp entries to the
// ledger.
type Index struct {
	store  *storage.SeqStore
	broker *Broker
}

// NewIndex wraps a SeqStore's paths/nodes buckets as a tree index. No
// deltas are published; use NewIndexWithBroker for a watchable index.
func NewIndex(store *storage.SeqStore) *Index {
	return &Index{store: store}
}

// NewIndexWithBroker wraps a SeqStore as a tree index that publishes a
// Delta to broker on every structural change (Register, Rename,
// DeletePrefix), so external watchers can react incrementally instead of
// re-scanning the whole tree.
func NewIndexWithBroker(store *storage.SeqStore, broker *Broker) *Index {
	return &Index{store: store, broker: broker}
}

func (idx *Index) publish(d *Delta) {
	if idx.broker != nil {
		idx.broker.Publish(d)
	}
}

// stableNodeID derives a deterministic structural node id from a path,
// stable across process restarts — unlike a freshly minted random uuid,
// rebuilding the index from the same set of paths always yields the same
// node ids.
func stableNodeID(p string) uuid.UUID {
	h1 := StableHash([]byte(p))
	h2 := StableHash([]byte("driftnote-node:" + p))
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[:8], h1)
	binary.BigEndian.PutUint64(id[8:], h2)
	return id
}

func cleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// GetDocID looks up the document id registered at path.
func (idx *Index) GetDocID(p string) (types.DocID, bool, error) {
	p = cleanPath(p)
	var meta NodeMeta
	found := false
	err := idx.store.View(storage.BucketPaths(), func(b *bolt.Bucket) error {
		v := b.Get([]byte(p))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &meta)
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("tree: get %q: %w", p, err)
	}
	if !found {
		return uuid.Nil, false, nil
	}
	return meta.DocID, true, nil
}

// Register assigns a fresh node and DocID to path if none exists yet, and
// returns the (possibly pre-existing) DocID.
func (idx *Index) Register(p string) (types.DocID, error) {
	p = cleanPath(p)
	if p == "" {
		return uuid.Nil, fmt.Errorf("tree: cannot register empty path")
	}

	var docID types.DocID
	created := false
	err := idx.store.Update(storage.BucketPaths(), func(paths *bolt.Bucket) error {
		if existing := paths.Get([]byte(p)); existing != nil {
			var meta NodeMeta
			if err := json.Unmarshal(existing, &meta); err != nil {
				return err
			}
			docID = meta.DocID
			return nil
		}

		meta := NodeMeta{
			ID:    stableNodeID(p),
			Name:  path.Base(p),
			Kind:  NodeFile,
			DocID: uuid.New(),
		}
		if parent := parentOf(p); parent != "" {
			if pv := paths.Get([]byte(parent)); pv != nil {
				var pm NodeMeta
				if err := json.Unmarshal(pv, &pm); err == nil {
					meta.ParentID = pm.ID
				}
			}
		}

		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		docID = meta.DocID
		created = true
		return paths.Put([]byte(p), raw)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("tree: register %q: %w", p, err)
	}

	if err := idx.putNode(docID, p); err != nil {
		return uuid.Nil, err
	}
	if created {
		idx.publish(&Delta{Kind: DeltaAdded, Path: p, DocID: docID})
	}
	return docID, nil
}

// RegisterWithDocID behaves like Register but, when path is not yet
// known, registers it against an explicit docID instead of minting a
// fresh one — used to recover a path's identity from in-band content
// (see TryRecoverFromContent) instead of silently creating a second DocID
// for the same document.
func (idx *Index) RegisterWithDocID(p string, docID types.DocID) error {
	p = cleanPath(p)
	if p == "" {
		return fmt.Errorf("tree: cannot register empty path")
	}

	created := false
	err := idx.store.Update(storage.BucketPaths(), func(paths *bolt.Bucket) error {
		if paths.Get([]byte(p)) != nil {
			return nil
		}
		meta := NodeMeta{
			ID:    stableNodeID(p),
			Name:  path.Base(p),
			Kind:  NodeFile,
			DocID: docID,
		}
		if parent := parentOf(p); parent != "" {
			if pv := paths.Get([]byte(parent)); pv != nil {
				var pm NodeMeta
				if err := json.Unmarshal(pv, &pm); err == nil {
					meta.ParentID = pm.ID
				}
			}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		created = true
		return paths.Put([]byte(p), raw)
	})
	if err != nil {
		return fmt.Errorf("tree: register %q with doc %s: %w", p, docID, err)
	}
	if err := idx.putNode(docID, p); err != nil {
		return err
	}
	if created {
		idx.publish(&Delta{Kind: DeltaAdded, Path: p, DocID: docID})
	}
	return nil
}

// ResolveOrRecover looks up path's DocID in the index. If the path has no
// entry but content carries in-band "uuid: <uuid>" frontmatter (see
// TryRecoverFromContent), the path is re-registered against the recovered
// DocID instead of minting a new one — the case where the index bucket
// was lost and is being rebuilt from disk. Falls back to a fresh
// Register when content carries no recoverable identity.
func (idx *Index) ResolveOrRecover(p, content string) (types.DocID, error) {
	if docID, ok, err := idx.GetDocID(p); err != nil {
		return uuid.Nil, err
	} else if ok {
		return docID, nil
	}

	if docID, ok := TryRecoverFromContent(content); ok {
		if err := idx.RegisterWithDocID(p, docID); err != nil {
			return uuid.Nil, err
		}
		return docID, nil
	}

	return idx.Register(p)
}

// putNode mirrors the node by id into the nodes bucket so ConsistencyCheck
// can resolve a DocID back to a path without scanning all of paths.
func (idx *Index) putNode(docID types.DocID, p string) error {
	key, err := docID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("tree: marshal doc id: %w", err)
	}
	return idx.store.Update(storage.BucketNodes(), func(b *bolt.Bucket) error {
		return b.Put(key, []byte(p))
	})
}

// AllPaths returns every registered path and the DocID it resolves to. Used
// by the source-control layer to enumerate the current working set without
// needing its own copy of the path index.
func (idx *Index) AllPaths() (map[string]types.DocID, error) {
	out := make(map[string]types.DocID)
	err := idx.store.View(storage.BucketPaths(), func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			var meta NodeMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			out[string(k)] = meta.DocID
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("tree: list paths: %w", err)
	}
	return out, nil
}

// Rename rewrites oldPrefix to newPrefix across the entry at oldPrefix and
// every descendant beneath it, atomically.
func (idx *Index) Rename(oldPrefix, newPrefix string) error {
	oldPrefix = cleanPath(oldPrefix)
	newPrefix = cleanPath(newPrefix)

	type move struct {
		oldKey, newKey string
		raw            []byte
	}

	var moved []move
	err := idx.store.Update(storage.BucketPaths(), func(b *bolt.Bucket) error {
		var moves []move
		c := b.Cursor()
		prefixBytes := []byte(oldPrefix)
		for k, v := c.Seek(prefixBytes); k != nil; k, v = c.Next() {
			key := string(k)
			if key != oldPrefix && !strings.HasPrefix(key, oldPrefix+"/") {
				if !strings.HasPrefix(key, oldPrefix) {
					break
				}
				continue
			}
			newKey := newPrefix + strings.TrimPrefix(key, oldPrefix)
			raw := make([]byte, len(v))
			copy(raw, v)
			moves = append(moves, move{oldKey: key, newKey: newKey, raw: raw})
		}

		for _, m := range moves {
			var meta NodeMeta
			if err := json.Unmarshal(m.raw, &meta); err != nil {
				return err
			}
			meta.Name = path.Base(m.newKey)
			raw, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := b.Delete([]byte(m.oldKey)); err != nil {
				return err
			}
			if err := b.Put([]byte(m.newKey), raw); err != nil {
				return err
			}
		}
		moved = moves
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range moved {
		var meta NodeMeta
		_ = json.Unmarshal(m.raw, &meta)
		idx.publish(&Delta{Kind: DeltaMoved, Path: m.newKey, OldPath: m.oldKey, DocID: meta.DocID})
	}
	return nil
}

// DeletePrefix removes the entry at prefix and every descendant beneath it.
func (idx *Index) DeletePrefix(prefix string) error {
	prefix = cleanPath(prefix)
	var removed []string
	err := idx.store.Update(storage.BucketPaths(), func(b *bolt.Bucket) error {
		var dead [][]byte
		c := b.Cursor()
		for k, _ := c.Seek([]byte(prefix)); k != nil; k, _ = c.Next() {
			key := string(k)
			if key != prefix && !strings.HasPrefix(key, prefix+"/") {
				if !strings.HasPrefix(key, prefix) {
					break
				}
				continue
			}
			dup := make([]byte, len(k))
			copy(dup, k)
			dead = append(dead, dup)
		}
		for _, k := range dead {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed = append(removed, string(k))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, p := range removed {
		idx.publish(&Delta{Kind: DeltaRemoved, Path: p})
	}
	return nil
}

// ConsistencyCheck reports which of docsWithOps have no corresponding entry
// in the node index — ledger content exists for them but no path resolves
// to them, e.g. because the index bucket was dropped and only partially
// rebuilt. Callers typically feed this the set of DocIDs with entries in a
// repository's ledger.
func (idx *Index) ConsistencyCheck(docsWithOps []types.DocID) []types.DocID {
	var orphans []types.DocID
	for _, id := range docsWithOps {
		key, err := id.MarshalBinary()
		if err != nil {
			orphans = append(orphans, id)
			continue
		}
		var found bool
		_ = idx.store.View(storage.BucketNodes(), func(b *bolt.Bucket) error {
			found = b.Get(key) != nil
			return nil
		})
		if !found {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

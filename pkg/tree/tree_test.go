package tree

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/driftnote/pkg/storage"
)

func openIndex(t *testing.T) *Index {
	t.Helper()
	store, err := storage.Open(t.TempDir(), "repo")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewIndex(store)
}

func openWatchedIndex(t *testing.T) (*Index, *Broker) {
	t.Helper()
	store, err := storage.Open(t.TempDir(), "repo")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	b := NewBroker()
	b.Start()
	t.Cleanup(b.Stop)
	return NewIndexWithBroker(store, b), b
}

func TestRegisterIsIdempotent(t *testing.T) {
	idx := openIndex(t)

	id1, err := idx.Register("notes/todo.md")
	require.NoError(t, err)

	id2, err := idx.Register("notes/todo.md")
	require.NoError(t, err)

	require.Equal(t, id1, id2)

	got, ok, err := idx.GetDocID("notes/todo.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id1, got)
}

func TestGetDocIDMissingReturnsFalse(t *testing.T) {
	idx := openIndex(t)

	_, ok, err := idx.GetDocID("nope.md")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRenamePropagatesToDescendants(t *testing.T) {
	idx := openIndex(t)

	rootID, err := idx.Register("project")
	require.NoError(t, err)
	aID, err := idx.Register("project/a.md")
	require.NoError(t, err)
	bID, err := idx.Register("project/sub/b.md")
	require.NoError(t, err)

	require.NoError(t, idx.Rename("project", "archive"))

	_, ok, err := idx.GetDocID("project")
	require.NoError(t, err)
	require.False(t, ok)

	got, ok, err := idx.GetDocID("archive")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rootID, got)

	got, ok, err = idx.GetDocID("archive/a.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, aID, got)

	got, ok, err = idx.GetDocID("archive/sub/b.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bID, got)
}

func TestRenameDoesNotTouchUnrelatedSiblingPrefix(t *testing.T) {
	idx := openIndex(t)

	_, err := idx.Register("project/a.md")
	require.NoError(t, err)
	_, err = idx.Register("project-notes/other.md")
	require.NoError(t, err)

	require.NoError(t, idx.Rename("project", "archive"))

	_, ok, err := idx.GetDocID("project-notes/other.md")
	require.NoError(t, err)
	require.True(t, ok, "sibling path sharing a string prefix must not be touched")
}

func TestDeletePrefixRemovesSubtree(t *testing.T) {
	idx := openIndex(t)

	_, err := idx.Register("docs/a.md")
	require.NoError(t, err)
	_, err = idx.Register("docs/b.md")
	require.NoError(t, err)
	_, err = idx.Register("keep.md")
	require.NoError(t, err)

	require.NoError(t, idx.DeletePrefix("docs"))

	_, ok, err := idx.GetDocID("docs/a.md")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = idx.GetDocID("docs/b.md")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = idx.GetDocID("keep.md")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConsistencyCheckFindsOrphans(t *testing.T) {
	idx := openIndex(t)

	known, err := idx.Register("a.md")
	require.NoError(t, err)

	orphan := uuid.New()
	orphans := idx.ConsistencyCheck([]uuid.UUID{known, orphan})

	require.Equal(t, []uuid.UUID{orphan}, orphans)
}

// TestStableNodeIDIsDeterministic confirms node ids derived from a path
// survive an index rebuild from the same set of paths, unlike a randomly
// minted uuid.
func TestStableNodeIDIsDeterministic(t *testing.T) {
	require.Equal(t, stableNodeID("notes/a.md"), stableNodeID("notes/a.md"))
	require.NotEqual(t, stableNodeID("notes/a.md"), stableNodeID("notes/b.md"))
}

func TestResolveOrRecoverUsesExistingEntry(t *testing.T) {
	idx := openIndex(t)
	want, err := idx.Register("notes/a.md")
	require.NoError(t, err)

	got, err := idx.ResolveOrRecover("notes/a.md", "irrelevant content")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResolveOrRecoverRecoversFromFrontmatter(t *testing.T) {
	idx := openIndex(t)
	lost := uuid.New()
	content := "uuid: " + lost.String() + "\ntitle: reindexed after a wipe\n"

	got, err := idx.ResolveOrRecover("notes/lost.md", content)
	require.NoError(t, err)
	require.Equal(t, lost, got)

	again, ok, err := idx.GetDocID("notes/lost.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, lost, again)
}

func TestResolveOrRecoverMintsFreshWhenNoFrontmatter(t *testing.T) {
	idx := openIndex(t)
	got, err := idx.ResolveOrRecover("notes/new.md", "no identity here")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, got)
}

func TestRegisterPublishesAddedDelta(t *testing.T) {
	idx, b := openWatchedIndex(t)
	w := b.Watch()
	defer b.Unwatch(w)

	docID, err := idx.Register("notes/a.md")
	require.NoError(t, err)

	select {
	case d := <-w:
		require.Equal(t, DeltaAdded, d.Kind)
		require.Equal(t, "notes/a.md", d.Path)
		require.Equal(t, docID, d.DocID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for added delta")
	}

	// Re-registering an existing path is a no-op: no second delta.
	_, err = idx.Register("notes/a.md")
	require.NoError(t, err)
	select {
	case d := <-w:
		t.Fatalf("unexpected delta on idempotent re-register: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRenamePublishesMovedDelta(t *testing.T) {
	idx, b := openWatchedIndex(t)
	_, err := idx.Register("project/a.md")
	require.NoError(t, err)

	w := b.Watch()
	defer b.Unwatch(w)
	require.NoError(t, idx.Rename("project", "archive"))

	select {
	case d := <-w:
		require.Equal(t, DeltaMoved, d.Kind)
		require.Equal(t, "archive/a.md", d.Path)
		require.Equal(t, "project/a.md", d.OldPath)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for moved delta")
	}
}

func TestDeletePrefixPublishesRemovedDelta(t *testing.T) {
	idx, b := openWatchedIndex(t)
	_, err := idx.Register("docs/a.md")
	require.NoError(t, err)

	w := b.Watch()
	defer b.Unwatch(w)
	require.NoError(t, idx.DeletePrefix("docs"))

	select {
	case d := <-w:
		require.Equal(t, DeltaRemoved, d.Kind)
		require.Equal(t, "docs/a.md", d.Path)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for removed delta")
	}
}

func TestBrokerDeliversToWatchers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	w := b.Watch()
	defer b.Unwatch(w)

	b.Publish(&Delta{Kind: DeltaAdded, Path: "a.md"})

	select {
	case d := <-w:
		require.Equal(t, DeltaAdded, d.Kind)
		require.Equal(t, "a.md", d.Path)
		require.False(t, d.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delta")
	}
}

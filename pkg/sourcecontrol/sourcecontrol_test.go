package sourcecontrol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/ledgererr"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

func testKey(t *testing.T) *security.RepoKey {
	t.Helper()
	key, err := security.NewRepoKey(make([]byte, 32))
	require.NoError(t, err)
	return key
}

func newTestStore(t *testing.T) (*Store, *ledger.Manager, types.RepoID, *security.RepoKey) {
	t.Helper()
	key := testKey(t)
	mgr := ledger.NewManager(t.TempDir(), 32)
	t.Cleanup(func() { mgr.Close() })

	repo := uuid.New()
	idxStore, err := mgr.OpenLocal(repo)
	require.NoError(t, err)
	idx := tree.NewIndex(idxStore)

	return NewStore(mgr, idx, repo, key), mgr, repo, key
}

func TestCommitStagedFailsWhenNothingStaged(t *testing.T) {
	sc, _, _, _ := newTestStore(t)
	_, err := sc.CommitStaged("empty")
	require.Error(t, err)
}

func TestStageAndCommitFreezesSnapshot(t *testing.T) {
	sc, mgr, repo, key := newTestStore(t)

	docID, err := sc.tree.Register("notes/a.md")
	require.NoError(t, err)
	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "hello")})
	require.NoError(t, err)

	require.NoError(t, sc.StageFile("notes/a.md"))
	info, err := sc.CommitStaged("first commit")
	require.NoError(t, err)
	require.Equal(t, "first commit", info.Message)
	require.Equal(t, uint32(1), info.DocCount)
	require.NotEmpty(t, info.ID)

	// Staging clears after commit.
	_, err = sc.CommitStaged("again")
	require.Error(t, err)
}

func TestListChangesReportsAddedThenModified(t *testing.T) {
	sc, mgr, repo, key := newTestStore(t)

	docID, err := sc.tree.Register("notes/a.md")
	require.NoError(t, err)
	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "v1")})
	require.NoError(t, err)

	require.NoError(t, sc.StageFile("notes/a.md"))
	_, err = sc.CommitStaged("v1")
	require.NoError(t, err)

	changes, err := sc.ListChanges()
	require.NoError(t, err)
	require.Empty(t, changes)

	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(2, "-edit")})
	require.NoError(t, err)

	changes, err = sc.ListChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "notes/a.md", changes[0].Path)
	require.Equal(t, Modified, changes[0].Status)
}

func TestListChangesTreatsUncommittedPathAsAdded(t *testing.T) {
	sc, mgr, repo, key := newTestStore(t)

	docID, err := sc.tree.Register("notes/new.md")
	require.NoError(t, err)
	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "draft")})
	require.NoError(t, err)

	changes, err := sc.ListChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, Added, changes[0].Status)
}

func TestDiffDocPathProducesUnifiedDiff(t *testing.T) {
	sc, mgr, repo, key := newTestStore(t)

	docID, err := sc.tree.Register("notes/a.md")
	require.NoError(t, err)
	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "line one")})
	require.NoError(t, err)
	require.NoError(t, sc.StageFile("notes/a.md"))
	_, err = sc.CommitStaged("base")
	require.NoError(t, err)

	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(8, "\nline two")})
	require.NoError(t, err)

	diff, err := sc.DiffDocPath("notes/a.md")
	require.NoError(t, err)
	require.Contains(t, diff, "a/notes/a.md")
	require.Contains(t, diff, "b/notes/a.md")
	require.Contains(t, diff, "line two")
}

func TestDiffDocPathEmptyWhenUnchanged(t *testing.T) {
	sc, mgr, repo, key := newTestStore(t)

	docID, err := sc.tree.Register("notes/a.md")
	require.NoError(t, err)
	_, err = mgr.AppendLocal(repo, key, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "stable")})
	require.NoError(t, err)
	require.NoError(t, sc.StageFile("notes/a.md"))
	_, err = sc.CommitStaged("base")
	require.NoError(t, err)

	diff, err := sc.DiffDocPath("notes/a.md")
	require.NoError(t, err)
	require.Empty(t, diff)
}

func TestDiffDocPathUnknownPathErrors(t *testing.T) {
	sc, _, _, _ := newTestStore(t)
	_, err := sc.DiffDocPath("nope.md")
	require.Error(t, err)
	require.ErrorIs(t, err, ledgererr.NotFound)
}

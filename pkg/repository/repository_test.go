package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/driftnote/pkg/ledger"
	"github.com/cuemby/driftnote/pkg/security"
	"github.com/cuemby/driftnote/pkg/tree"
	"github.com/cuemby/driftnote/pkg/types"
)

func newTestRepository(t *testing.T) (*Repository, types.PeerID) {
	t.Helper()
	key, err := security.NewRepoKey(make([]byte, 32))
	require.NoError(t, err)

	mgr := ledger.NewManager(t.TempDir(), 32)
	t.Cleanup(func() { mgr.Close() })

	repoID := uuid.New()
	idxStore, err := mgr.OpenLocal(repoID)
	require.NoError(t, err)
	idx := tree.NewIndex(idxStore)

	return New(mgr, idx, repoID, key), types.PeerID("peer-remote")
}

func TestListDocsReflectsRegisteredPaths(t *testing.T) {
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.StageFile("notes/a.md"))

	docs, err := repo.ListDocs()
	require.NoError(t, err)
	require.Contains(t, docs, "notes/a.md")
}

func TestAppendLocalOpAndGetDocContentRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.StageFile("notes/a.md"))
	docs, err := repo.ListDocs()
	require.NoError(t, err)
	docID := docs["notes/a.md"]

	seq, err := repo.AppendLocalOp(types.LedgerEntry{DocID: docID, Op: types.Insert(0, "hello")})
	require.NoError(t, err)
	require.Equal(t, types.Seq(1), seq)

	content, err := repo.GetDocContent(docID)
	require.NoError(t, err)
	require.Equal(t, "hello", content)

	ops, err := repo.GetLocalOps(docID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
}

func TestAppendRemoteOpIsolatedFromLocal(t *testing.T) {
	repo, peerID := newTestRepository(t)

	require.NoError(t, repo.StageFile("notes/a.md"))
	docs, err := repo.ListDocs()
	require.NoError(t, err)
	docID := docs["notes/a.md"]

	_, err = repo.AppendRemoteOp(peerID, types.LedgerEntry{DocID: docID, Op: types.Insert(0, "from peer")})
	require.NoError(t, err)

	// The remote op lands in the shadow partition, not the local one.
	content, err := repo.GetDocContent(docID)
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestStageCommitAndListChanges(t *testing.T) {
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.StageFile("notes/a.md"))
	docs, err := repo.ListDocs()
	require.NoError(t, err)
	docID := docs["notes/a.md"]

	_, err = repo.AppendLocalOp(types.LedgerEntry{DocID: docID, Op: types.Insert(0, "v1")})
	require.NoError(t, err)
	require.NoError(t, repo.StageFile("notes/a.md"))

	info, err := repo.CommitStaged("first commit")
	require.NoError(t, err)
	require.Equal(t, "first commit", info.Message)

	changes, err := repo.ListChanges()
	require.NoError(t, err)
	require.Empty(t, changes)

	_, err = repo.AppendLocalOp(types.LedgerEntry{DocID: docID, Op: types.Insert(2, "-edit")})
	require.NoError(t, err)

	changes, err = repo.ListChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "notes/a.md", changes[0].Path)
}

func TestDiffDocPathAfterCommit(t *testing.T) {
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.StageFile("notes/a.md"))
	docs, err := repo.ListDocs()
	require.NoError(t, err)
	docID := docs["notes/a.md"]

	_, err = repo.AppendLocalOp(types.LedgerEntry{DocID: docID, Op: types.Insert(0, "line one")})
	require.NoError(t, err)
	require.NoError(t, repo.StageFile("notes/a.md"))
	_, err = repo.CommitStaged("base")
	require.NoError(t, err)

	_, err = repo.AppendLocalOp(types.LedgerEntry{DocID: docID, Op: types.Insert(8, "\nline two")})
	require.NoError(t, err)

	diff, err := repo.DiffDocPath("notes/a.md")
	require.NoError(t, err)
	require.Contains(t, diff, "line two")
}

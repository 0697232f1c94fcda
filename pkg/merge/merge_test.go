package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMergeConflict checks that overlapping edits on the same line
// surface as a conflict hunk rather than silently picking a side.
func TestMergeConflict(t *testing.T) {
	base := "a\nb\nc\n"
	local := "a\nB\nc\n"
	remote := "a\nB'\nc\n"

	result := Merge(base, local, remote)
	require.Equal(t, Conflict, result.Status)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, 1, result.Conflicts[0].StartLine)
	require.Equal(t, 1, result.Conflicts[0].Length)
	require.Equal(t, []string{"B"}, result.Conflicts[0].LocalLines)
	require.Equal(t, []string{"B'"}, result.Conflicts[0].RemoteLines)
}

func TestMergeTieBreakWhenSidesMatch(t *testing.T) {
	base := "a\nb\nc\n"
	local := "a\nB\nc\n"
	remote := "a\nB\nc\n"

	result := Merge(base, local, remote)
	require.Equal(t, Success, result.Status)
	require.Equal(t, "a\nB\nc\n", result.Merged)
}

func TestMergeIdenticalInputsIsIdentity(t *testing.T) {
	x := "line one\nline two\nline three"
	result := Merge(x, x, x)
	require.Equal(t, Success, result.Status)
	require.Equal(t, x, result.Merged)
}

func TestMergeUnchangedLocalTakesRemote(t *testing.T) {
	base := "a\nb\nc"
	remote := "a\nb2\nc"
	result := Merge(base, base, remote)
	require.Equal(t, Success, result.Status)
	require.Equal(t, remote, result.Merged)
}

func TestMergeUnchangedRemoteTakesLocal(t *testing.T) {
	base := "a\nb\nc"
	local := "a\nb2\nc"
	result := Merge(base, local, base)
	require.Equal(t, Success, result.Status)
	require.Equal(t, local, result.Merged)
}

func TestMergeIdenticalSideChangesIsSuccess(t *testing.T) {
	base := "a\nb\nc"
	x := "a\nb2\nc2"
	result := Merge(base, x, x)
	require.Equal(t, Success, result.Status)
	require.Equal(t, x, result.Merged)
}

func TestMergeNonOverlappingChangesBothApply(t *testing.T) {
	base := "a\nb\nc\nd\ne"
	local := "A\nb\nc\nd\ne"
	remote := "a\nb\nc\nd\nE"

	result := Merge(base, local, remote)
	require.Equal(t, Success, result.Status)
	require.Equal(t, "A\nb\nc\nd\nE", result.Merged)
}

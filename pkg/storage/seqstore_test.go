package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAllocatesMonotoneSeq(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "repo1")
	require.NoError(t, err)
	defer store.Close()

	var last uint64
	for i := 0; i < 10; i++ {
		seq, err := store.Append([]byte("entry"))
		require.NoError(t, err)
		require.Greater(t, seq, last)
		last = seq
	}

	max, err := store.MaxSeq()
	require.NoError(t, err)
	require.Equal(t, last, max)
}

func TestRangeSliceIsHalfOpenAndOrdered(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "repo1")
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		_, err := store.Append([]byte{byte(i)})
		require.NoError(t, err)
	}

	got, err := store.RangeSlice(2, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(2), got[0].Seq)
	require.Equal(t, uint64(3), got[1].Seq)
}

func TestMaxSeqEmptyIsZero(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "empty")
	require.NoError(t, err)
	defer store.Close()

	max, err := store.MaxSeq()
	require.NoError(t, err)
	require.Equal(t, uint64(0), max)
}

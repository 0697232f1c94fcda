package merge

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Status tags a merge outcome.
type Status string

const (
	Success  Status = "success"
	Conflict Status = "conflict"
)

// ConflictHunk is a region where base, local and remote all diverge and no
// side's text matches another's.
type ConflictHunk struct {
	StartLine   int
	Length      int
	LocalLines  []string
	RemoteLines []string
}

// Result is the outcome of a three-way merge.
type Result struct {
	Status    Status
	Merged    string
	Conflicts []ConflictHunk
}

type anchor struct {
	baseStart, baseEnd     int
	localStart, localEnd   int
	remoteStart, remoteEnd int
}

// Merge performs a line-level three-way merge of local and remote against
// their common ancestor base.
//
// Synchronization points ("anchors") are base regions that read back
// identically in both local and remote — found by intersecting base's
// matching blocks against local with its matching blocks against remote.
// Between anchors lie hunks: if only one side changed relative to base,
// that side's text wins; if both changed to the same text, that's a clean
// merge (tie-break); if both changed to different text, it's a Conflict
// for that hunk.
func Merge(base, local, remote string) Result {
	baseLines := splitLines(base)
	localLines := splitLines(local)
	remoteLines := splitLines(remote)

	localBlocks := matchingBlocks(baseLines, localLines)
	remoteBlocks := matchingBlocks(baseLines, remoteLines)
	anchors := intersectAnchors(localBlocks, remoteBlocks)

	var merged []string
	var conflicts []ConflictHunk

	prev := anchor{}
	flush := func(next anchor) {
		baseHunk := sliceLines(baseLines, prev.baseEnd, next.baseStart)
		localHunk := sliceLines(localLines, prev.localEnd, next.localStart)
		remoteHunk := sliceLines(remoteLines, prev.remoteEnd, next.remoteStart)

		switch {
		case len(localHunk) == 0 && len(remoteHunk) == 0:
			// nothing to add
		case equalLines(localHunk, baseHunk):
			merged = append(merged, remoteHunk...)
		case equalLines(remoteHunk, baseHunk):
			merged = append(merged, localHunk...)
		case equalLines(localHunk, remoteHunk):
			merged = append(merged, localHunk...)
		default:
			conflicts = append(conflicts, ConflictHunk{
				StartLine:   prev.baseEnd,
				Length:      next.baseStart - prev.baseEnd,
				LocalLines:  localHunk,
				RemoteLines: remoteHunk,
			})
		}
		// anchor text itself, common to all three
		merged = append(merged, sliceLines(baseLines, next.baseStart, next.baseEnd)...)
	}

	for _, a := range anchors {
		flush(a)
		prev = a
	}
	// trailing hunk after the last anchor
	flush(anchor{baseStart: len(baseLines), localStart: len(localLines), remoteStart: len(remoteLines)})

	if len(conflicts) > 0 {
		return Result{Status: Conflict, Conflicts: conflicts}
	}
	return Result{Status: Success, Merged: strings.Join(merged, "\n")}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func sliceLines(lines []string, lo, hi int) []string {
	if lo >= hi {
		return nil
	}
	out := make([]string, hi-lo)
	copy(out, lines[lo:hi])
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func matchingBlocks(a, b []string) []difflib.Match {
	m := difflib.NewMatcher(a, b)
	blocks := m.GetMatchingBlocks()
	// drop the trailing sentinel match of size 0
	if n := len(blocks); n > 0 && blocks[n-1].Size == 0 {
		blocks = blocks[:n-1]
	}
	return blocks
}

// intersectAnchors finds base ranges covered by an equal block in both
// localBlocks and remoteBlocks, returning the corresponding (base, local,
// remote) anchor ranges in base order.
func intersectAnchors(localBlocks, remoteBlocks []difflib.Match) []anchor {
	var anchors []anchor
	i, j := 0, 0
	for i < len(localBlocks) && j < len(remoteBlocks) {
		l := localBlocks[i]
		r := remoteBlocks[j]
		lStart, lEnd := l.A, l.A+l.Size
		rStart, rEnd := r.A, r.A+r.Size

		s := maxInt(lStart, rStart)
		e := minInt(lEnd, rEnd)
		if s < e {
			localOff := l.B + (s - l.A)
			remoteOff := r.B + (s - r.A)
			anchors = append(anchors, anchor{
				baseStart:   s,
				baseEnd:     e,
				localStart:  localOff,
				localEnd:    localOff + (e - s),
				remoteStart: remoteOff,
				remoteEnd:   remoteOff + (e - s),
			})
		}

		if lEnd < rEnd {
			i++
		} else {
			j++
		}
	}
	return anchors
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

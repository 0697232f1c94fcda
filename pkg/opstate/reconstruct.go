package opstate

import (
	"errors"
	"unicode/utf16"

	"github.com/cuemby/driftnote/pkg/types"
)

// ErrCorruptOp is returned when an op's position would split a UTF-16
// surrogate pair — a malformed op payload, not a legitimate out-of-range
// reference.
var ErrCorruptOp = errors.New("opstate: operation would split a UTF-16 surrogate pair")

func toUTF16(s string) []uint16   { return utf16.Encode([]rune(s)) }
func fromUTF16(u []uint16) string { return string(utf16.Decode(u)) }

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u <= 0xDBFF }
func isLowSurrogate(u uint16) bool  { return u >= 0xDC00 && u <= 0xDFFF }

// splitsPair reports whether pos sits strictly between the two halves of a
// surrogate pair in content.
func splitsPair(content []uint16, pos int) bool {
	if pos <= 0 || pos >= len(content) {
		return false
	}
	return isHighSurrogate(content[pos-1]) && isLowSurrogate(content[pos])
}

func clampPos(pos, max int) int {
	if pos < 0 {
		return 0
	}
	if pos > max {
		return max
	}
	return pos
}

// ApplyOp applies a single op to content (a UTF-16 unit slice), returning
// the updated slice. Out-of-range positions are clamped to content's
// bounds. ErrCorruptOp is returned if the op would split a surrogate pair.
func ApplyOp(content []uint16, op types.Op) ([]uint16, error) {
	switch op.Kind {
	case types.OpInsert:
		pos := clampPos(int(op.Pos), len(content))
		if splitsPair(content, pos) {
			return nil, ErrCorruptOp
		}
		ins := toUTF16(op.Content)
		out := make([]uint16, 0, len(content)+len(ins))
		out = append(out, content[:pos]...)
		out = append(out, ins...)
		out = append(out, content[pos:]...)
		return out, nil

	case types.OpDelete:
		start := clampPos(int(op.Pos), len(content))
		end := clampPos(int(op.Pos)+int(op.Len), len(content))
		if end < start {
			end = start
		}
		if splitsPair(content, start) || splitsPair(content, end) {
			return nil, ErrCorruptOp
		}
		out := make([]uint16, 0, len(content)-(end-start))
		out = append(out, content[:start]...)
		out = append(out, content[end:]...)
		return out, nil

	case types.OpNode:
		// Structural ops carry no content delta.
		return content, nil

	default:
		return content, nil
	}
}

// ReconstructContent folds entries into the content they describe,
// starting from the empty string. Entries whose op would split a
// surrogate pair are skipped (never aborts the fold); use
// ReconstructWithQuarantine when the caller needs to know which entries
// were skipped.
func ReconstructContent(entries []types.LedgerEntry) string {
	content, _ := ReconstructWithQuarantine(entries)
	return content
}

// ReconstructWithQuarantine folds entries like ReconstructContent but also
// returns the entries that were skipped because their op would split a
// surrogate pair, so the caller can quarantine them (kept on disk, omitted
// from reconstruction, reported to the host).
func ReconstructWithQuarantine(entries []types.LedgerEntry) (string, []types.LedgerEntry) {
	content := make([]uint16, 0)
	var quarantined []types.LedgerEntry
	for _, e := range entries {
		next, err := ApplyOp(content, e.Op)
		if err != nil {
			quarantined = append(quarantined, e)
			continue
		}
		content = next
	}
	return fromUTF16(content), quarantined
}

// FoldFrom extends an existing content string by folding entries onto it.
// This is the path reconstruction takes when resuming from a snapshot
// checkpoint instead of replaying a document's full history from scratch:
// content is the snapshot's materialized text and entries are everything
// appended since. Entries that would split a surrogate pair are skipped,
// matching ReconstructContent's never-fail behavior.
func FoldFrom(content string, entries []types.LedgerEntry) string {
	units := toUTF16(content)
	for _, e := range entries {
		next, err := ApplyOp(units, e.Op)
		if err != nil {
			continue
		}
		units = next
	}
	return fromUTF16(units)
}

// ApplyOps applies ops in sequence directly to an existing content string,
// rather than folding LedgerEntry values from scratch. This is the
// operation the diff contract is defined against: ApplyOps(a,
// ComputeDiff(a, b)) == b. Ops that would split a surrogate pair are
// skipped, matching ReconstructContent's never-fail behavior.
func ApplyOps(content string, ops []types.Op) string {
	units := toUTF16(content)
	for _, op := range ops {
		next, err := ApplyOp(units, op)
		if err != nil {
			continue
		}
		units = next
	}
	return fromUTF16(units)
}

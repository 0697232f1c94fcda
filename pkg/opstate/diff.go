package opstate

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/cuemby/driftnote/pkg/types"
)

// ComputeDiff produces a minimal sequence of Insert/Delete ops, with
// UTF-16 positions, that transform old into new when applied in order via
// ApplyOps. It re-projects a rune-level LCS (difflib.SequenceMatcher) onto
// UTF-16 offsets: each opcode's position is tracked as "how many UTF-16
// units have been consumed from the evolving buffer so far", so the
// resulting ops are valid when applied sequentially starting from old —
// not from scratch.
func ComputeDiff(old, new string) []types.Op {
	oldRunes := splitRunes(old)
	newRunes := splitRunes(new)

	matcher := difflib.NewMatcher(oldRunes, newRunes)

	var ops []types.Op
	offset := 0
	for _, oc := range matcher.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			offset += utf16LenOfRunes(oldRunes[oc.I1:oc.I2])

		case 'd':
			delLen := utf16LenOfRunes(oldRunes[oc.I1:oc.I2])
			ops = append(ops, types.Delete(uint32(offset), uint32(delLen)))

		case 'i':
			content := strings.Join(newRunes[oc.J1:oc.J2], "")
			ops = append(ops, types.Insert(uint32(offset), content))
			offset += utf16LenOfRunes(newRunes[oc.J1:oc.J2])

		case 'r':
			delLen := utf16LenOfRunes(oldRunes[oc.I1:oc.I2])
			ops = append(ops, types.Delete(uint32(offset), uint32(delLen)))
			content := strings.Join(newRunes[oc.J1:oc.J2], "")
			ops = append(ops, types.Insert(uint32(offset), content))
			offset += utf16LenOfRunes(newRunes[oc.J1:oc.J2])
		}
	}
	return ops
}

func splitRunes(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func utf16LenOfRunes(rs []string) int {
	n := 0
	for _, r := range rs {
		n += len(toUTF16(r))
	}
	return n
}

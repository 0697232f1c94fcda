package sourcecontrol

import (
	"github.com/pmezard/go-difflib/difflib"
)

// unifiedDiff renders a unified diff between oldText and newText, headered
// a/path and b/path the way `git diff` headers a file, falling back to
// a/unknown and b/unknown for an empty path.
func unifiedDiff(oldText, newText, path string) string {
	fromFile, toFile := "a/"+path, "b/"+path
	if path == "" {
		fromFile, toFile = "a/unknown", "b/unknown"
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

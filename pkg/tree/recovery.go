package tree

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/cuemby/driftnote/pkg/types"
)

var uuidFrontmatter = regexp.MustCompile(`(?m)^uuid:\s*([a-fA-F0-9-]{36})`)

// TryRecoverFromContent looks for a "uuid: <uuid>" frontmatter line at the
// start of some line in content and returns the DocID it names. Used by
// Index.ResolveOrRecover when a path has lost its path-index entry (e.g.
// the index was deleted and rebuilt) but still carries its own identity
// in-band.
func TryRecoverFromContent(content string) (types.DocID, bool) {
	m := uuidFrontmatter.FindStringSubmatch(content)
	if m == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

package issuecorrelation

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/scan-io-git/issuetrack/pkg/textrange"
)

// Hash is a content digest used as a matching key.
type Hash string

// Digest returns the md5 hex digest of content with every whitespace character
// removed, so re-indenting or re-wrapping code keeps its hash. The empty string
// is a valid input.
func Digest(content string) Hash {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, content)
	sum := md5.Sum([]byte(stripped)) // #nosec G401 -- content addressing, not security
	return Hash(hex.EncodeToString(sum[:]))
}

// LineHash digests the full text of a 1-based line. It returns nil for a nil
// line or one the document does not contain.
func LineHash(doc *textrange.Document, line *int) *Hash {
	if doc == nil || line == nil {
		return nil
	}
	text, ok := doc.Line(*line)
	if !ok {
		return nil
	}
	h := Digest(text)
	return &h
}

// RangeHash digests the exact text covered by r. It returns nil when the range
// cannot be resolved against the document.
func RangeHash(doc *textrange.Document, r *textrange.Range) *Hash {
	pos, ok := textrange.RangePosition(doc, r)
	if !ok {
		return nil
	}
	h := Digest(doc.Slice(pos))
	return &h
}

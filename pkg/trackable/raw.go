package trackable

import (
	"github.com/scan-io-git/issuetrack/pkg/issuecorrelation"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
)

// Finding is what an analyzer reports for one file, in analyzer coordinates.
type Finding struct {
	RuleKey string
	Message string
	// Line is used when TextRange is nil; both nil means a file-level finding.
	Line               *int
	TextRange          *textrange.Range
	Severity           Severity
	Type               IssueType
	CleanCodeAttribute string
	Impacts            []Impact
}

// NewRaw builds a raw trackable, computing its hashes from the live document.
// Locations the document cannot resolve keep their line but get no hash.
func NewRaw(doc *textrange.Document, f Finding) Raw {
	line := clonePtr(f.Line)
	if f.TextRange != nil && f.TextRange.StartLine > 0 {
		start := f.TextRange.StartLine
		line = &start
	}

	var message *string
	if f.Message != "" {
		m := f.Message
		message = &m
	}

	attrs := Attributes{
		Line:               line,
		Message:            message,
		RuleKey:            f.RuleKey,
		TextRange:          clonePtr(f.TextRange),
		TextRangeHash:      issuecorrelation.RangeHash(doc, f.TextRange),
		LineHash:           issuecorrelation.LineHash(doc, line),
		Severity:           f.Severity,
		Type:               f.Type,
		CleanCodeAttribute: f.CleanCodeAttribute,
	}
	if f.Impacts != nil {
		attrs.Impacts = append([]Impact(nil), f.Impacts...)
	}
	return Raw{Attributes: attrs}
}

// Locate resolves where a trackable should be highlighted in doc: its precise
// range when it has one, otherwise its whole line. It returns false for
// file-level findings and stale locations.
func Locate(doc *textrange.Document, t Trackable) (textrange.Position, bool) {
	attrs := t.Attrs()
	if attrs.TextRange != nil {
		if pos, ok := textrange.RangePosition(doc, attrs.TextRange); ok {
			return pos, true
		}
	}
	if attrs.Line != nil {
		return textrange.LinePosition(doc, *attrs.Line)
	}
	return textrange.Position{}, false
}

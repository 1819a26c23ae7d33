// Package textrange resolves analyzer line/column locations to absolute
// character offsets in a live document.
//
// Analyzers report 1-based lines and 0-based column offsets relative to line
// content only. The absolute offset of a line depends on the width of every
// delimiter before it, so two documents that differ only in \n vs \r\n
// delimiters resolve the same range to the same length at shifted offsets.
package textrange

// Position is an absolute span inside a Document.
type Position struct {
	Offset uint32
	Length uint32
}

// End returns the offset just past the span.
func (p Position) End() uint32 {
	return p.Offset + p.Length
}

// Range is a location in analyzer coordinates: 1-based lines, 0-based
// character offsets within the line.
type Range struct {
	StartLine       int `json:"start_line" msgpack:"start_line"`
	StartLineOffset int `json:"start_line_offset" msgpack:"start_line_offset"`
	EndLine         int `json:"end_line" msgpack:"end_line"`
	EndLineOffset   int `json:"end_line_offset" msgpack:"end_line_offset"`
}

// LinePosition resolves a whole 1-based line to its offset and length,
// excluding the line delimiter. It returns false when the line does not exist
// in the document, e.g. the analyzer reported a location in a file that has
// since shrunk.
func LinePosition(doc *Document, line int) (Position, bool) {
	if doc == nil {
		return Position{}, false
	}
	info, ok := doc.line(line)
	if !ok {
		return Position{}, false
	}
	return toPosition(info.start, info.length)
}

// RangePosition resolves a possibly multi-line range. It returns false for a
// nil range or one without a start line, when either line is out of bounds,
// and when the resolved end precedes the start or lies past the document end.
func RangePosition(doc *Document, r *Range) (Position, bool) {
	if doc == nil || r == nil || r.StartLine < 1 {
		return Position{}, false
	}
	startLine, ok := doc.line(r.StartLine)
	if !ok {
		return Position{}, false
	}

	endLineStart := startLine.start
	if r.EndLine != r.StartLine {
		endLine, ok := doc.line(r.EndLine)
		if !ok {
			return Position{}, false
		}
		endLineStart = endLine.start
	}

	start := startLine.start + r.StartLineOffset
	end := endLineStart + r.EndLineOffset
	if start < 0 || end < start || end > doc.Len() {
		return Position{}, false
	}
	return toPosition(start, end-start)
}

package textrange

import (
	"bytes"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// Document is an immutable, line-indexed view over a text buffer. Offsets and
// lengths are counted in characters (runes), never in bytes.
type Document struct {
	text  []rune
	lines []lineInfo
}

// lineInfo describes one line: where it starts, how many characters of
// content it holds, and the width of the delimiter that terminates it
// (0 for the last line, 1 for \n or a lone \r, 2 for \r\n).
type lineInfo struct {
	start  int
	length int
	delim  int
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewDocument builds the line index for content. \n, \r\n and a lone \r all
// terminate a line, so a document always has at least one (possibly empty) line.
func NewDocument(content string) *Document {
	text := []rune(content)
	lines := make([]lineInfo, 0, len(text)/32+1)

	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, lineInfo{start: start, length: i - start, delim: 1})
			start = i + 1
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				lines = append(lines, lineInfo{start: start, length: i - start, delim: 2})
				i++
			} else {
				lines = append(lines, lineInfo{start: start, length: i - start, delim: 1})
			}
			start = i + 1
		}
	}
	lines = append(lines, lineInfo{start: start, length: len(text) - start})

	return &Document{text: text, lines: lines}
}

// LoadDocument reads a file from disk and indexes it. A leading UTF-8 BOM is
// dropped; line delimiters are kept as they are on disk.
func LoadDocument(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", path, err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	return NewDocument(string(content)), nil
}

// NumberOfLines returns the number of lines, counting the (possibly empty)
// line after a trailing delimiter.
func (d *Document) NumberOfLines() int {
	return len(d.lines)
}

// Len returns the document length in characters, delimiters included.
func (d *Document) Len() int {
	return len(d.text)
}

// Text returns the whole document content.
func (d *Document) Text() string {
	return string(d.text)
}

// Line returns the content of a 1-based line without its delimiter.
func (d *Document) Line(line int) (string, bool) {
	info, ok := d.line(line)
	if !ok {
		return "", false
	}
	return string(d.text[info.start : info.start+info.length]), true
}

// Slice returns the text covered by p. Out of range positions yield "".
func (d *Document) Slice(p Position) string {
	start, end := int(p.Offset), int(p.Offset)+int(p.Length)
	if start > len(d.text) || end > len(d.text) {
		return ""
	}
	return string(d.text[start:end])
}

// DelimiterWidth returns the width of the delimiter terminating a 1-based line.
func (d *Document) DelimiterWidth(line int) (int, bool) {
	info, ok := d.line(line)
	if !ok {
		return 0, false
	}
	return info.delim, true
}

func (d *Document) line(line int) (lineInfo, bool) {
	if line < 1 || line > len(d.lines) {
		return lineInfo{}, false
	}
	return d.lines[line-1], true
}

func toPosition(offset, length int) (Position, bool) {
	off, err := safecast.Conv[uint32](offset)
	if err != nil {
		return Position{}, false
	}
	ln, err := safecast.Conv[uint32](length)
	if err != nil {
		return Position{}, false
	}
	return Position{Offset: off, Length: ln}, true
}

// Package serverissues defines what the tracker exchanges with a remote
// server to reconcile local findings with the server's view, and provides an
// HTTP client and a reconciler implementing that exchange.
package serverissues

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/scan-io-git/issuetrack/pkg/issuecorrelation"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// ProjectBinding ties a local project to a server project and branch, and
// describes how project-relative paths translate to server paths.
type ProjectBinding struct {
	ProjectKey       string `json:"project_key"`
	Branch           string `json:"branch,omitempty"`
	IdePathPrefix    string `json:"ide_path_prefix,omitempty"`
	ServerPathPrefix string `json:"server_path_prefix,omitempty"`
}

// ServerPath translates a project-relative path into the path the server
// knows the file by: IdePathPrefix is stripped, then ServerPathPrefix prepended.
func (b ProjectBinding) ServerPath(localPath string) string {
	p := path.Clean(strings.ReplaceAll(localPath, "\\", "/"))
	if p == "." {
		p = ""
	}

	if prefix := strings.Trim(b.IdePathPrefix, "/"); prefix != "" {
		if p == prefix {
			p = ""
		} else {
			p = strings.TrimPrefix(p, prefix+"/")
		}
	}
	if prefix := strings.Trim(b.ServerPathPrefix, "/"); prefix != "" {
		p = path.Join(prefix, p)
	}
	return p
}

// TextRangeWithHash is a precise location plus the digest of its text.
type TextRangeWithHash struct {
	textrange.Range
	Hash string `json:"hash,omitempty"`
}

// LineWithHash is a line number plus the digest of the full line.
type LineWithHash struct {
	Number int    `json:"number"`
	Hash   string `json:"hash,omitempty"`
}

// LocalIssue is the wire shape of one tracked issue sent for reconciliation.
type LocalIssue struct {
	ID             uuid.UUID          `json:"id"`
	RuleKey        string             `json:"rule_key"`
	Message        string             `json:"message,omitempty"`
	TextRange      *TextRangeWithHash `json:"text_range,omitempty"`
	Line           *LineWithHash      `json:"line,omitempty"`
	ServerIssueKey *string            `json:"server_issue_key,omitempty"`
}

// FromTracked converts a tracked issue to its wire shape.
func FromTracked(t trackable.Tracked) LocalIssue {
	issue := LocalIssue{
		ID:             t.ID,
		RuleKey:        t.RuleKey,
		ServerIssueKey: t.ServerKey(),
	}
	if t.Message != nil {
		issue.Message = *t.Message
	}
	if t.TextRange != nil {
		issue.TextRange = &TextRangeWithHash{Range: *t.TextRange, Hash: hashValue(t.TextRangeHash)}
	}
	if t.Line != nil {
		issue.Line = &LineWithHash{Number: *t.Line, Hash: hashValue(t.LineHash)}
	}
	return issue
}

// Metadata makes LocalIssue matchable against server issues.
func (i LocalIssue) Metadata() issuecorrelation.IssueMetadata {
	md := issuecorrelation.IssueMetadata{
		RuleKey:        i.RuleKey,
		ServerIssueKey: i.ServerIssueKey,
	}
	if i.Message != "" {
		msg := i.Message
		md.Message = &msg
	}
	if i.TextRange != nil {
		md.TextRangeHash = hashPtr(i.TextRange.Hash)
	}
	if i.Line != nil {
		n := i.Line.Number
		md.Line = &n
		md.LineHash = hashPtr(i.Line.Hash)
	}
	return md
}

// Result is the server's verdict for one local issue: either matched to a
// server issue or local only.
type Result struct {
	Matched        bool   `json:"matched"`
	ServerIssueKey string `json:"server_issue_key,omitempty"`
	Resolved       bool   `json:"resolved"`
}

// MatchedResult reports that the server knows the issue under key.
func MatchedResult(key string, resolved bool) Result {
	return Result{Matched: true, ServerIssueKey: key, Resolved: resolved}
}

// LocalOnlyResult reports that the server has no counterpart.
func LocalOnlyResult() Result {
	return Result{}
}

func hashValue(h *trackable.Hash) string {
	if h == nil {
		return ""
	}
	return string(*h)
}

func hashPtr(s string) *issuecorrelation.Hash {
	if s == "" {
		return nil
	}
	h := issuecorrelation.Hash(s)
	return &h
}

// Package store persists tracked issues between runs. Two backends are
// provided: FileStore keeps one msgpack file per source file, SQLiteStore
// keeps everything in a single database.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// record is the persisted form of one tracked issue, shared by both backends.
// Creation dates are kept as UTC unix nanoseconds.
type record struct {
	ID                 string             `msgpack:"id"`
	RuleKey            string             `msgpack:"rule_key"`
	Message            *string            `msgpack:"message,omitempty"`
	Line               *int               `msgpack:"line,omitempty"`
	TextRange          *textrange.Range   `msgpack:"text_range,omitempty"`
	TextRangeHash      *string            `msgpack:"text_range_hash,omitempty"`
	LineHash           *string            `msgpack:"line_hash,omitempty"`
	Severity           string             `msgpack:"severity,omitempty"`
	Type               string             `msgpack:"type,omitempty"`
	CleanCodeAttribute string             `msgpack:"clean_code_attribute,omitempty"`
	Impacts            []trackable.Impact `msgpack:"impacts"`
	ServerIssueKey     *string            `msgpack:"server_issue_key,omitempty"`
	Resolved           bool               `msgpack:"resolved"`
	CreationDate       *int64             `msgpack:"creation_date,omitempty"`
}

func toRecord(t trackable.Tracked) record {
	r := record{
		ID:                 t.ID.String(),
		RuleKey:            t.RuleKey,
		Message:            t.Message,
		Line:               t.Line,
		TextRange:          t.TextRange,
		TextRangeHash:      hashString(t.TextRangeHash),
		LineHash:           hashString(t.LineHash),
		Severity:           string(t.Severity),
		Type:               string(t.Type),
		CleanCodeAttribute: t.CleanCodeAttribute,
		Impacts:            t.Impacts,
		ServerIssueKey:     t.ServerIssueKey,
		Resolved:           t.Resolved,
	}
	if t.CreationDate != nil {
		n := t.CreationDate.UnixNano()
		r.CreationDate = &n
	}
	return r
}

func (r record) toTracked() (trackable.Tracked, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return trackable.Tracked{}, fmt.Errorf("invalid issue identity %q: %w", r.ID, err)
	}

	t := trackable.Tracked{
		ID: id,
		Attributes: trackable.Attributes{
			Line:               r.Line,
			Message:            r.Message,
			RuleKey:            r.RuleKey,
			TextRange:          r.TextRange,
			TextRangeHash:      hashPtr(r.TextRangeHash),
			LineHash:           hashPtr(r.LineHash),
			Severity:           trackable.Severity(r.Severity),
			Type:               trackable.IssueType(r.Type),
			CleanCodeAttribute: r.CleanCodeAttribute,
			Impacts:            r.Impacts,
		},
		ServerIssueKey: r.ServerIssueKey,
		Resolved:       r.Resolved,
	}
	if r.CreationDate != nil {
		created := time.Unix(0, *r.CreationDate).UTC()
		t.CreationDate = &created
	}
	return t, nil
}

func toRecords(issues []trackable.Tracked) []record {
	out := make([]record, 0, len(issues))
	for _, t := range issues {
		out = append(out, toRecord(t.Clone()))
	}
	return out
}

func fromRecords(records []record) ([]trackable.Tracked, error) {
	out := make([]trackable.Tracked, 0, len(records))
	for _, r := range records {
		t, err := r.toTracked()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func hashString(h *trackable.Hash) *string {
	if h == nil {
		return nil
	}
	s := string(*h)
	return &s
}

func hashPtr(s *string) *trackable.Hash {
	if s == nil {
		return nil
	}
	h := trackable.Hash(*s)
	return &h
}

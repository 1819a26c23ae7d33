// Package trackable models findings in their three lifecycle states: Raw
// (fresh from one analyzer run), Tracked (stable identity across runs) and
// Server (a remote system's view). The variants are distinct types sharing a
// read-only Trackable contract.
package trackable

import (
	"time"

	"github.com/google/uuid"

	"github.com/scan-io-git/issuetrack/pkg/issuecorrelation"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
)

// Hash is a content digest, see issuecorrelation.Digest.
type Hash = issuecorrelation.Hash

// Severity is the legacy five level severity of a finding.
type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

// IssueType classifies a finding.
type IssueType string

const (
	TypeBug             IssueType = "BUG"
	TypeVulnerability   IssueType = "VULNERABILITY"
	TypeCodeSmell       IssueType = "CODE_SMELL"
	TypeSecurityHotspot IssueType = "SECURITY_HOTSPOT"
)

// Impact is the effect of a finding on one software quality.
type Impact struct {
	SoftwareQuality string `json:"software_quality" msgpack:"software_quality"`
	Severity        string `json:"severity" msgpack:"severity"`
}

// Attributes holds the fields every variant carries. Optional values are
// pointers; nil means absent.
type Attributes struct {
	Line               *int
	Message            *string
	RuleKey            string
	TextRange          *textrange.Range
	TextRangeHash      *Hash
	LineHash           *Hash
	Severity           Severity
	Type               IssueType
	CleanCodeAttribute string
	Impacts            []Impact
}

// Trackable is the read-only contract shared by Raw, Tracked and Server.
type Trackable interface {
	issuecorrelation.Matchable
	Attrs() Attributes
	ServerKey() *string
	IsResolved() bool
	CreatedAt() *time.Time
}

var (
	_ Trackable = Raw{}
	_ Trackable = Tracked{}
	_ Trackable = Server{}
)

// Raw is a finding reported by one analyzer run. It has no identity.
type Raw struct {
	Attributes
}

func (r Raw) Metadata() issuecorrelation.IssueMetadata { return r.Attributes.metadata(nil) }
func (r Raw) Attrs() Attributes                        { return r.Attributes.clone() }
func (r Raw) ServerKey() *string                       { return nil }
func (r Raw) IsResolved() bool                         { return false }
func (r Raw) CreatedAt() *time.Time                    { return nil }

// Tracked is the durable record of a finding. ID, CreationDate, Resolved and
// ServerIssueKey survive analyzer runs for as long as the finding keeps matching.
type Tracked struct {
	ID uuid.UUID
	Attributes
	ServerIssueKey *string
	Resolved       bool
	// CreationDate is nil when the finding predates the first observation of its file.
	CreationDate *time.Time
}

// NewTracked promotes a raw finding to a tracked one.
func NewTracked(id uuid.UUID, raw Raw, creationDate *time.Time) Tracked {
	return Tracked{
		ID:           id,
		Attributes:   raw.Attributes.clone(),
		CreationDate: clonePtr(creationDate),
	}
}

func (t Tracked) Metadata() issuecorrelation.IssueMetadata {
	return t.Attributes.metadata(t.ServerIssueKey)
}
func (t Tracked) Attrs() Attributes     { return t.Attributes.clone() }
func (t Tracked) ServerKey() *string    { return clonePtr(t.ServerIssueKey) }
func (t Tracked) IsResolved() bool      { return t.Resolved }
func (t Tracked) CreatedAt() *time.Time { return clonePtr(t.CreationDate) }

// UpdateFromFreshAnalysis overwrites the display fields (message, severity,
// hashes, location...) with the ones from a newer analyzer run. Identity,
// creation date, resolution and server key are kept.
func (t *Tracked) UpdateFromFreshAnalysis(raw Raw) {
	t.Attributes = raw.Attributes.clone()
}

// UpdateFromServerMatch records the server counterpart of the finding.
func (t *Tracked) UpdateFromServerMatch(serverIssueKey string, resolved bool) {
	t.ServerIssueKey = &serverIssueKey
	t.Resolved = resolved
}

// UpdateAsLocalOnly records that the server knows no counterpart. Resolution
// only ever comes from the server, so it is reset as well.
func (t *Tracked) UpdateAsLocalOnly() {
	t.ServerIssueKey = nil
	t.Resolved = false
}

// Clone returns a deep copy.
func (t Tracked) Clone() Tracked {
	return Tracked{
		ID:             t.ID,
		Attributes:     t.Attributes.clone(),
		ServerIssueKey: clonePtr(t.ServerIssueKey),
		Resolved:       t.Resolved,
		CreationDate:   clonePtr(t.CreationDate),
	}
}

// Server is a finding as known to the remote system.
type Server struct {
	Key string
	Attributes
	Resolved     bool
	CreationDate *time.Time
}

func (s Server) Metadata() issuecorrelation.IssueMetadata {
	key := s.Key
	return s.Attributes.metadata(&key)
}
func (s Server) Attrs() Attributes  { return s.Attributes.clone() }
func (s Server) ServerKey() *string { key := s.Key; return &key }
func (s Server) IsResolved() bool   { return s.Resolved }
func (s Server) CreatedAt() *time.Time {
	return clonePtr(s.CreationDate)
}

func (a Attributes) metadata(serverKey *string) issuecorrelation.IssueMetadata {
	return issuecorrelation.IssueMetadata{
		Line:           a.Line,
		Message:        a.Message,
		RuleKey:        a.RuleKey,
		TextRangeHash:  a.TextRangeHash,
		LineHash:       a.LineHash,
		ServerIssueKey: serverKey,
	}
}

func (a Attributes) clone() Attributes {
	out := a
	out.Line = clonePtr(a.Line)
	out.Message = clonePtr(a.Message)
	out.TextRange = clonePtr(a.TextRange)
	out.TextRangeHash = clonePtr(a.TextRangeHash)
	out.LineHash = clonePtr(a.LineHash)
	if a.Impacts != nil {
		out.Impacts = append([]Impact(nil), a.Impacts...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

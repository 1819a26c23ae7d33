package issuecorrelation

import "strconv"

// IssueMetadata describes the minimal metadata required to correlate issues.
// Fields:
//   - Line: 1-based line, nil for file-level findings.
//   - Message: optional, carried for logging; not a matching key.
//   - RuleKey: the rule that produced the finding; required by every stage.
//   - TextRangeHash, LineHash: content digests of the precise range and of the
//     whole enclosing line.
//   - ServerIssueKey: only consulted by ServerKeyStage.
type IssueMetadata struct {
	Line           *int
	Message        *string
	RuleKey        string
	TextRangeHash  *Hash
	LineHash       *Hash
	ServerIssueKey *string
}

// Matchable is implemented by anything the Correlator can pair.
type Matchable interface {
	Metadata() IssueMetadata
}

// Stage is one tier of the correlation cascade. Key returns the value two
// issues must share to be paired in this stage, or false when the issue is not
// eligible (e.g. the hash the stage relies on is absent).
type Stage struct {
	Name string
	Key  func(IssueMetadata) (string, bool)
}

var (
	// TextRangeHashStage pairs issues of the same rule whose precise range text is unchanged.
	TextRangeHashStage = Stage{Name: "text-range-hash", Key: func(m IssueMetadata) (string, bool) {
		if m.TextRangeHash == nil {
			return "", false
		}
		return m.RuleKey + "\x00" + string(*m.TextRangeHash), true
	}}

	// LineHashStage pairs issues of the same rule whose enclosing line text is unchanged.
	LineHashStage = Stage{Name: "line-hash", Key: func(m IssueMetadata) (string, bool) {
		if m.LineHash == nil {
			return "", false
		}
		return m.RuleKey + "\x00" + string(*m.LineHash), true
	}}

	// LineStage pairs issues of the same rule anchored to the same line number.
	// Two file-level issues (no line) are on the same "line".
	LineStage = Stage{Name: "line", Key: func(m IssueMetadata) (string, bool) {
		if m.Line == nil {
			return m.RuleKey + "\x00-", true
		}
		return m.RuleKey + "\x00" + strconv.Itoa(*m.Line), true
	}}

	// ServerKeyStage pairs issues that already carry the same server issue key.
	ServerKeyStage = Stage{Name: "server-key", Key: func(m IssueMetadata) (string, bool) {
		if m.ServerIssueKey == nil || *m.ServerIssueKey == "" {
			return "", false
		}
		return *m.ServerIssueKey, true
	}}
)

// DefaultStages is the cascade used when NewCorrelator gets no explicit stages.
var DefaultStages = []Stage{TextRangeHashStage, LineHashStage, LineStage}

// Match pairs a new issue with the known issue it correlates to.
type Match[N, K Matchable] struct {
	New        N
	Known      K
	NewIndex   int
	KnownIndex int
	Stage      string
}

// Correlator accepts slices of new and known issues and computes a partial
// bijection between them: every issue ends up either in exactly one Match or
// in its unmatched remainder. Use NewCorrelator to create an instance and call
// Process() to compute matches; Matches(), UnmatchedNew() and UnmatchedKnown()
// invoke it on demand.
//
// Ties are broken by input order: new issues are visited in order, and each one
// takes the first still-unmatched eligible known issue. Inputs are never mutated.
type Correlator[N, K Matchable] struct {
	NewIssues   []N
	KnownIssues []K
	stages      []Stage

	// populated by Process(); -1 marks an unmatched index
	newToKnown []int
	knownToNew []int
	stageOf    []string

	processed bool
}

// NewCorrelator constructs a Correlator. Stages run in the given order; with no
// stages DefaultStages is used. The correlator is inert until Process() is called.
func NewCorrelator[N, K Matchable](newIssues []N, knownIssues []K, stages ...Stage) *Correlator[N, K] {
	if len(stages) == 0 {
		stages = DefaultStages
	}
	return &Correlator[N, K]{
		NewIssues:   newIssues,
		KnownIssues: knownIssues,
		stages:      stages,
	}
}

// Process runs the stages in order. Issues matched by an earlier stage are
// excluded from later ones. Process is idempotent.
func (c *Correlator[N, K]) Process() {
	if c.processed {
		return
	}
	c.newToKnown = filled(len(c.NewIssues), -1)
	c.knownToNew = filled(len(c.KnownIssues), -1)
	c.stageOf = make([]string, len(c.NewIssues))

	newMeta := make([]IssueMetadata, len(c.NewIssues))
	for i, n := range c.NewIssues {
		newMeta[i] = n.Metadata()
	}
	knownMeta := make([]IssueMetadata, len(c.KnownIssues))
	for i, k := range c.KnownIssues {
		knownMeta[i] = k.Metadata()
	}

	for _, stage := range c.stages {
		c.processStage(stage, newMeta, knownMeta)
	}

	c.processed = true
}

func (c *Correlator[N, K]) processStage(stage Stage, newMeta, knownMeta []IssueMetadata) {
	// known indices per key, in input order
	candidates := make(map[string][]int)
	for ki, k := range knownMeta {
		if c.knownToNew[ki] >= 0 {
			continue
		}
		if key, ok := stage.Key(k); ok {
			candidates[key] = append(candidates[key], ki)
		}
	}
	if len(candidates) == 0 {
		return
	}

	for ni, n := range newMeta {
		if c.newToKnown[ni] >= 0 {
			continue
		}
		key, ok := stage.Key(n)
		if !ok {
			continue
		}
		queue := candidates[key]
		if len(queue) == 0 {
			continue
		}
		ki := queue[0]
		candidates[key] = queue[1:]

		c.newToKnown[ni] = ki
		c.knownToNew[ki] = ni
		c.stageOf[ni] = stage.Name
	}
}

// Matches returns the matched pairs ordered by the new issue's input position.
func (c *Correlator[N, K]) Matches() []Match[N, K] {
	c.Process()

	var out []Match[N, K]
	for ni, ki := range c.newToKnown {
		if ki < 0 {
			continue
		}
		out = append(out, Match[N, K]{
			New:        c.NewIssues[ni],
			Known:      c.KnownIssues[ki],
			NewIndex:   ni,
			KnownIndex: ki,
			Stage:      c.stageOf[ni],
		})
	}
	return out
}

// UnmatchedNew returns, in input order, the new issues without a known counterpart.
func (c *Correlator[N, K]) UnmatchedNew() []N {
	c.Process()

	var out []N
	for ni, n := range c.NewIssues {
		if c.newToKnown[ni] < 0 {
			out = append(out, n)
		}
	}
	return out
}

// UnmatchedKnown returns, in input order, the known issues no new issue correlated to.
func (c *Correlator[N, K]) UnmatchedKnown() []K {
	c.Process()

	var out []K
	for ki, k := range c.KnownIssues {
		if c.knownToNew[ki] < 0 {
			out = append(out, k)
		}
	}
	return out
}

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

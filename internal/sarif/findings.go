package sarif

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/issuetrack/pkg/shared/files"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// DocumentLoader reads the current content of a source file.
type DocumentLoader func(absPath string) (*textrange.Document, error)

// FileIssues is the analyzer output for one source file.
type FileIssues struct {
	// Path is relative to the source folder, slash separated.
	Path     string
	Document *textrange.Document
	Raws     []trackable.Raw
}

// RawIssues converts every result of the report into raw trackables grouped
// by file. SARIF columns are 1-based; they become 0-based line offsets.
// Results pointing outside the source folder or to unreadable files are
// skipped with a warning. Files are sorted by path and results keep report order.
// The second result lists, sorted, the reported paths whose file could not be
// loaded: they have findings that could not be converted.
func (r Report) RawIssues(load DocumentLoader) ([]FileIssues, []string, error) {
	if load == nil {
		load = textrange.LoadDocument
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	r.EnrichResultsLevelProperty()

	byPath := map[string]*FileIssues{}
	failed := map[string]bool{}

	for _, run := range r.Runs {
		rules := rulesByID(run)
		for _, result := range run.Results {
			rel, abs, ok := r.resultPath(result)
			if !ok {
				r.logger.Warn("skipping result without a usable location", "rule", ruleID(result))
				continue
			}
			if failed[rel] {
				continue
			}

			fi, ok := byPath[rel]
			if !ok {
				doc, err := load(abs)
				if err != nil {
					r.logger.Warn("failed to load source file, skipping its results", "path", rel, "error", err)
					failed[rel] = true
					continue
				}
				fi = &FileIssues{Path: rel, Document: doc}
				byPath[rel] = fi
			}

			fi.Raws = append(fi.Raws, trackable.NewRaw(fi.Document, findingFromResult(result, rules[ruleID(result)], fi.Document)))
		}
	}

	out := make([]FileIssues, 0, len(byPath))
	for _, fi := range byPath {
		out = append(out, *fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	unreadable := make([]string, 0, len(failed))
	for p := range failed {
		unreadable = append(unreadable, p)
	}
	sort.Strings(unreadable)

	r.logger.Debug("converted sarif results", "files", len(out), "unreadable", len(unreadable))
	return out, unreadable, nil
}

// resultPath returns the source-folder-relative and absolute path of the
// result's first location.
func (r Report) resultPath(result *sarif.Result) (string, string, bool) {
	if len(result.Locations) == 0 {
		return "", "", false
	}
	loc := result.Locations[0]
	if loc.PhysicalLocation == nil || loc.PhysicalLocation.ArtifactLocation == nil || loc.PhysicalLocation.ArtifactLocation.URI == nil {
		return "", "", false
	}

	rawURI := strings.TrimSpace(*loc.PhysicalLocation.ArtifactLocation.URI)
	rawURI = strings.TrimPrefix(rawURI, "file://")
	if rawURI == "" {
		return "", "", false
	}

	abs := filepath.FromSlash(rawURI)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.sourceFolder, abs)
	}
	rel, err := files.RelativeToRoot(r.sourceFolder, abs)
	if err != nil || rel == "." {
		return "", "", false
	}
	return rel, abs, true
}

func findingFromResult(result *sarif.Result, rule *sarif.ReportingDescriptor, doc *textrange.Document) trackable.Finding {
	f := trackable.Finding{
		RuleKey:  ruleID(result),
		Severity: severityFromLevel(fmt.Sprint(result.Properties["Level"])),
		Type:     issueTypeFromRule(rule),
	}
	if result.Message.Text != nil {
		f.Message = *result.Message.Text
	} else if rule != nil && rule.ShortDescription != nil && rule.ShortDescription.Text != nil {
		f.Message = *rule.ShortDescription.Text
	}

	region := result.Locations[0].PhysicalLocation.Region
	if region == nil || region.StartLine == nil || *region.StartLine < 1 {
		// file-level finding
		return f
	}

	startLine := *region.StartLine
	if region.StartColumn == nil {
		f.Line = &startLine
		return f
	}

	endLine := startLine
	if region.EndLine != nil && *region.EndLine >= startLine {
		endLine = *region.EndLine
	}

	var endOffset int
	if region.EndColumn != nil {
		endOffset = *region.EndColumn - 1
	} else if line, ok := doc.Line(endLine); ok {
		// the region runs to the end of its last line
		endOffset = len([]rune(line))
	} else {
		f.Line = &startLine
		return f
	}

	f.TextRange = &textrange.Range{
		StartLine:       startLine,
		StartLineOffset: *region.StartColumn - 1,
		EndLine:         endLine,
		EndLineOffset:   endOffset,
	}
	return f
}

// severityFromLevel maps a SARIF level to a severity.
func severityFromLevel(level string) trackable.Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return trackable.SeverityCritical
	case "warning":
		return trackable.SeverityMajor
	case "note":
		return trackable.SeverityMinor
	default:
		return trackable.SeverityInfo
	}
}

// issueTypeFromRule marks rules tagged "security" as vulnerabilities.
func issueTypeFromRule(rule *sarif.ReportingDescriptor) trackable.IssueType {
	if rule == nil || rule.Properties == nil {
		return trackable.TypeCodeSmell
	}

	var tags []string
	if v, ok := rule.Properties["tags"]; ok && v != nil {
		switch tv := v.(type) {
		case []string:
			tags = tv
		case []interface{}:
			for _, it := range tv {
				if s, ok := it.(string); ok {
					tags = append(tags, s)
				}
			}
		}
	}

	for _, tag := range tags {
		if strings.EqualFold(tag, "security") {
			return trackable.TypeVulnerability
		}
	}
	return trackable.TypeCodeSmell
}

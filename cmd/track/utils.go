package track

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/issuetrack/internal/sarif"
	"github.com/scan-io-git/issuetrack/internal/workspace"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// run tracks one report. Stored files absent from the report are processed
// with no findings so their issues are recorded as gone.
func run(cfg *config.Config, o RunOptions, lg hclog.Logger) (Summary, error) {
	var summary Summary

	ws, err := workspace.Open(cfg, lg, o.SourceFolder, o.StorePath)
	if err != nil {
		return summary, err
	}
	defer ws.Close()

	report, err := sarif.ReadReport(o.SarifPath, lg, ws.SourceFolder, o.NoSuppressions)
	if err != nil {
		return summary, err
	}
	if tool, err := report.ExtractToolNameAndVersion(); err == nil {
		lg.Info("report loaded", "tool", tool.Name, "version", versionValue(tool.Version))
	}

	fileIssues, unreadable, err := report.RawIssues(nil)
	if err != nil {
		return summary, fmt.Errorf("failed to extract findings: %w", err)
	}

	stored, err := ws.Store.Paths()
	if err != nil {
		return summary, fmt.Errorf("failed to list stored files: %w", err)
	}

	// Unreadable files still have findings; their tracked issues are kept as is.
	reported := make(map[string]struct{}, len(fileIssues)+len(unreadable))
	for _, p := range unreadable {
		reported[p] = struct{}{}
		summary.Unreadable++
		lg.Warn("source file is not readable, keeping its tracked issues", "path", p)
	}
	for _, fi := range fileIssues {
		reported[fi.Path] = struct{}{}

		known := knownIDs(ws, fi.Path)
		tracked := ws.Tracker.ProcessRawIssues(fi.Path, fi.Raws)
		summary.Files++
		summary.Tracked += len(tracked)
		summary.New += countNew(known, tracked)
	}
	for _, p := range stored {
		if _, ok := reported[p]; ok {
			continue
		}
		if !hasTrackedIssues(ws, p) {
			ws.Tracker.Forget(p)
			continue
		}
		ws.Tracker.ProcessRawIssues(p, nil)
		summary.Emptied++
		lg.Debug("no findings reported for stored file", "path", p)
	}

	if err := ws.Tracker.FlushAll(); err != nil {
		return summary, err
	}
	return summary, nil
}

// knownIDs returns the identities tracked for path before this run, or nil on
// the file's first analysis.
func knownIDs(ws *workspace.Workspace, path string) map[uuid.UUID]struct{} {
	if !ws.Tracker.Load(path) {
		return nil
	}
	tracked, _ := ws.Tracker.GetTracked(path)
	ids := make(map[uuid.UUID]struct{}, len(tracked))
	for _, t := range tracked {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// hasTrackedIssues reports whether path had tracked issues before this run.
// Paths already emptied by an earlier run are left alone.
func hasTrackedIssues(ws *workspace.Workspace, path string) bool {
	if !ws.Tracker.Load(path) {
		return false
	}
	tracked, _ := ws.Tracker.GetTracked(path)
	return len(tracked) > 0
}

// countNew counts identities that did not exist before. Nothing is new on a
// file's first analysis.
func countNew(known map[uuid.UUID]struct{}, tracked []trackable.Tracked) int {
	if known == nil {
		return 0
	}
	n := 0
	for _, t := range tracked {
		if _, ok := known[t.ID]; !ok {
			n++
		}
	}
	return n
}

func versionValue(v *string) string {
	if v == nil {
		return "unknown"
	}
	return *v
}

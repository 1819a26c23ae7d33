package show

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/issuetrack/internal/workspace"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

var (
	pathColor     = color.New(color.FgCyan, color.Bold)
	resolvedColor = color.New(color.FgHiBlack)
	severityColor = map[trackable.Severity]*color.Color{
		trackable.SeverityBlocker:  color.New(color.FgRed, color.Bold),
		trackable.SeverityCritical: color.New(color.FgRed),
		trackable.SeverityMajor:    color.New(color.FgYellow, color.Bold),
		trackable.SeverityMinor:    color.New(color.FgYellow),
		trackable.SeverityInfo:     color.New(color.FgBlue),
	}
)

func run(out io.Writer, cfg *config.Config, o RunOptions, lg hclog.Logger) error {
	if o.NoColor {
		color.NoColor = true
	}

	ws, err := workspace.Open(cfg, lg, o.SourceFolder, o.StorePath)
	if err != nil {
		return err
	}
	defer ws.Close()

	paths, err := ws.LoadAll()
	if err != nil {
		return err
	}
	if o.File != "" {
		if !ws.Tracker.Load(o.File) {
			return fmt.Errorf("no tracked issues for %q", o.File)
		}
		paths = []string{o.File}
	}

	for _, p := range paths {
		tracked, ok := ws.Tracker.GetTracked(p)
		if !ok || len(tracked) == 0 {
			continue
		}

		doc, err := ws.LoadDocument(p)
		if err != nil {
			lg.Warn("source file is not readable, locations are not resolved", "path", p, "error", err)
			doc = nil
		}

		fmt.Fprintln(out, pathColor.Sprint(p))
		for _, t := range tracked {
			fmt.Fprintln(out, formatIssue(doc, t))
		}
	}
	return nil
}

// formatIssue renders one issue as a single line.
func formatIssue(doc *textrange.Document, t trackable.Tracked) string {
	sev := string(t.Severity)
	if c, ok := severityColor[t.Severity]; ok {
		sev = c.Sprint(sev)
	}

	loc := "file"
	if t.Line != nil {
		loc = fmt.Sprintf("L%d", *t.Line)
	}
	if doc != nil {
		if pos, ok := trackable.Locate(doc, t); ok {
			loc = fmt.Sprintf("%s@%d+%d", loc, pos.Offset, pos.Length)
		}
	}

	msg := ""
	if t.Message != nil {
		msg = *t.Message
	}

	line := fmt.Sprintf("  %-8s %-12s %-24s %s  [%s", sev, loc, t.RuleKey, msg, t.ID)
	if t.CreationDate != nil {
		line += " since " + t.CreationDate.UTC().Format("2006-01-02")
	}
	if t.ServerIssueKey != nil {
		line += " server " + *t.ServerIssueKey
	}
	line += "]"
	if t.Resolved {
		return resolvedColor.Sprint(line + " resolved")
	}
	return line
}

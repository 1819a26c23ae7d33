package sarif

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/issuetrack/pkg/shared/files"
)

type Report struct {
	*sarif.Report
	logger       hclog.Logger
	sourceFolder string
}

type ToolMetadata struct {
	Name    string
	Version *string
}

func readSarifReport(inputPath string) (*sarif.Report, error) {
	jsonFile, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()

	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sarif report: %w", err)
	}

	var sarifReport sarif.Report
	if err := json.Unmarshal(byteValue, &sarifReport); err != nil {
		return nil, fmt.Errorf("failed to parse sarif report %q: %w", inputPath, err)
	}

	return &sarifReport, nil
}

// remove all results with Suppressions property
func removeSuppressedResults(report *sarif.Report) {
	for _, run := range report.Runs {
		var filteredResults []*sarif.Result

		for _, result := range run.Results {
			if len(result.Suppressions) == 0 {
				filteredResults = append(filteredResults, result)
			}
		}

		run.Results = filteredResults
	}
}

// ReadReport loads a SARIF report whose relative URIs are resolved against sourceFolder.
func ReadReport(inputPath string, logger hclog.Logger, sourceFolder string, noSuppressions bool) (*Report, error) {
	if err := files.ValidatePath(inputPath); err != nil {
		return nil, fmt.Errorf("invalid sarif report: %w", err)
	}

	sarifReport, err := readSarifReport(inputPath)
	if err != nil {
		return nil, err
	}

	if noSuppressions {
		removeSuppressedResults(sarifReport)
	}

	// make an absolute path of source folder
	expandedSourceFolder, err := files.ExpandPath(sourceFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to expand source folder: %w", err)
	}
	absPath, err := filepath.Abs(expandedSourceFolder)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Report{
		Report:       sarifReport,
		logger:       logger,
		sourceFolder: absPath,
	}, nil
}

// ExtractToolNameAndVersion function extracts tool name and version from a sarif report
func (r Report) ExtractToolNameAndVersion() (*ToolMetadata, error) {
	if len(r.Runs) == 0 || r.Runs[0].Tool.Driver == nil {
		return nil, fmt.Errorf("sarif report has no tool information")
	}
	toolName := r.Runs[0].Tool.Driver.Name
	toolVersion := r.Runs[0].Tool.Driver.SemanticVersion
	return &ToolMetadata{
		Name:    toolName,
		Version: toolVersion,
	}, nil
}

// EnrichResultsLevelProperty function to enrich results properties with level taken from corersponding rules propertiues "problem.severity" field
func (r Report) EnrichResultsLevelProperty() {
	for _, run := range r.Runs {
		rulesMap := rulesByID(run)

		for _, result := range run.Results {
			if result.Properties == nil {
				result.Properties = make(map[string]interface{})
			}
			if result.Properties["Level"] != nil {
				continue
			}
			rule := rulesMap[ruleID(result)]
			if result.Level != nil {
				// used by snyk
				result.Properties["Level"] = *result.Level
			} else if rule != nil && rule.Properties["problem.severity"] != nil {
				// used by codeql
				result.Properties["Level"] = rule.Properties["problem.severity"]
			} else if rule != nil && rule.DefaultConfiguration != nil {
				// used by all tools?
				result.Properties["Level"] = rule.DefaultConfiguration.Level
			} else {
				// SARIF default level
				result.Properties["Level"] = "warning"
			}
		}
	}
}

func rulesByID(run *sarif.Run) map[string]*sarif.ReportingDescriptor {
	rulesMap := map[string]*sarif.ReportingDescriptor{}
	if run.Tool.Driver == nil {
		return rulesMap
	}
	for _, rule := range run.Tool.Driver.Rules {
		rulesMap[rule.ID] = rule
	}
	return rulesMap
}

func ruleID(result *sarif.Result) string {
	if result.RuleID != nil {
		return *result.RuleID
	}
	return ""
}

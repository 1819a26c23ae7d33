package serverissues

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

const trackPath = "/api/issues/track"

// Client downloads the issues a server knows for a file.
type Client struct {
	httpc  *resty.Client
	url    string
	logger hclog.Logger
}

// NewClient returns a Client talking to baseURL. When httpc is nil a default
// resty client is used. A non-empty token is sent as a bearer token.
func NewClient(baseURL, token string, httpc *resty.Client, logger hclog.Logger) *Client {
	if httpc == nil {
		httpc = resty.New()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	httpc.SetBaseURL(baseURL)
	if token != "" {
		httpc.SetAuthToken(token)
	}

	return &Client{
		httpc:  httpc,
		url:    baseURL,
		logger: logger,
	}
}

type serverTextRange struct {
	StartLine       int `json:"startLine"`
	StartLineOffset int `json:"startLineOffset"`
	EndLine         int `json:"endLine"`
	EndLineOffset   int `json:"endLineOffset"`
}

type serverIssue struct {
	Key                string              `json:"key"`
	RuleKey            string              `json:"ruleKey"`
	Message            *string             `json:"message,omitempty"`
	Line               *int                `json:"line,omitempty"`
	LineHash           string              `json:"lineHash,omitempty"`
	TextRange          *serverTextRange    `json:"textRange,omitempty"`
	TextRangeHash      string              `json:"textRangeHash,omitempty"`
	Severity           trackable.Severity  `json:"severity,omitempty"`
	Type               trackable.IssueType `json:"type,omitempty"`
	CleanCodeAttribute string              `json:"cleanCodeAttribute,omitempty"`
	Resolved           bool                `json:"resolved"`
	CreationDate       *time.Time          `json:"creationDate,omitempty"`
}

type trackResult struct {
	Issues []serverIssue `json:"issues"`
}

func (i serverIssue) toTrackable() trackable.Server {
	s := trackable.Server{
		Key:          i.Key,
		Resolved:     i.Resolved,
		CreationDate: i.CreationDate,
		Attributes: trackable.Attributes{
			Line:               i.Line,
			Message:            i.Message,
			RuleKey:            i.RuleKey,
			TextRangeHash:      hashPtr(i.TextRangeHash),
			LineHash:           hashPtr(i.LineHash),
			Severity:           i.Severity,
			Type:               i.Type,
			CleanCodeAttribute: i.CleanCodeAttribute,
		},
	}
	if i.TextRange != nil {
		s.TextRange = &textrange.Range{
			StartLine:       i.TextRange.StartLine,
			StartLineOffset: i.TextRange.StartLineOffset,
			EndLine:         i.TextRange.EndLine,
			EndLineOffset:   i.TextRange.EndLineOffset,
		}
		if s.Line == nil {
			line := i.TextRange.StartLine
			s.Line = &line
		}
	}
	return s
}

// FetchIssues downloads the server issues of serverPath in the bound project and branch.
func (c *Client) FetchIssues(ctx context.Context, binding ProjectBinding, serverPath string) ([]trackable.Server, error) {
	params := map[string]string{
		"project": binding.ProjectKey,
		"path":    serverPath,
	}
	if binding.Branch != "" {
		params["branch"] = binding.Branch
	}

	c.logger.Debug("fetching server issues", "project", binding.ProjectKey, "branch", binding.Branch, "path", serverPath)

	var r trackResult
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&r).
		Get(trackPath)
	if err != nil {
		return nil, issueerrors.NewDownloadError(serverPath, 0, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, issueerrors.NewDownloadError(serverPath, resp.StatusCode(),
			fmt.Errorf("%d on getting issues of project '%s'", resp.StatusCode(), binding.ProjectKey))
	}

	issues := make([]trackable.Server, 0, len(r.Issues))
	for _, i := range r.Issues {
		issues = append(issues, i.toTrackable())
	}
	c.logger.Debug("server issues fetched", "path", serverPath, "count", len(issues))
	return issues, nil
}

// Package ci discovers the branch being analyzed from CI environment variables.
package ci

import (
	"os"
	"strings"
)

// CIKind represents the type of CI.
type CIKind int

const (
	// CIUnknown indicates the CI provider could not be identified.
	CIUnknown CIKind = iota
	// CIGitHub identifies GitHub CI environments.
	CIGitHub
	// CIGitLab identifies GitLab CI environments.
	CIGitLab
	// CIBitbucket identifies Bitbucket CI environments.
	CIBitbucket
)

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// String returns the human-readable string representation of a CIKind.
func (c CIKind) String() string {
	switch c {
	case CIGitHub:
		return "github"
	case CIGitLab:
		return "gitlab"
	case CIBitbucket:
		return "bitbucket"
	default:
		return "unknown"
	}
}

// DetectCIKind attempts to infer the CI provider from well-known environment variables.
func DetectCIKind(lookup LookupFunc) CIKind {
	if lookup == nil {
		lookup = os.Getenv
	}

	if lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "" {
		return CIGitHub
	}
	if strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "" {
		return CIGitLab
	}
	if lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "" {
		return CIBitbucket
	}

	return CIUnknown
}

// BranchFromEnvironment returns the branch a CI job runs for. For pull and
// merge request pipelines this is the source branch. Tag pipelines and
// unknown environments yield false.
func BranchFromEnvironment(lookup LookupFunc) (string, bool) {
	if lookup == nil {
		lookup = os.Getenv
	}

	var branch string
	switch DetectCIKind(lookup) {
	case CIGitHub:
		// See https://docs.github.com/en/actions/reference/workflows-and-actions/variables.
		if head := lookup("GITHUB_HEAD_REF"); head != "" {
			branch = head
		} else if lookup("GITHUB_REF_TYPE") != "tag" {
			branch = lookup("GITHUB_REF_NAME")
		}
	case CIGitLab:
		// See https://docs.gitlab.com/ci/variables/predefined_variables/.
		if src := lookup("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME"); src != "" {
			branch = src
		} else {
			branch = lookup("CI_COMMIT_BRANCH")
		}
	case CIBitbucket:
		// See https://support.atlassian.com/bitbucket-cloud/docs/variables-and-secrets/.
		branch = lookup("BITBUCKET_BRANCH")
	}

	branch = strings.TrimSpace(branch)
	return branch, branch != ""
}

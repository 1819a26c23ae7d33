package syncissues

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/issuetrack/internal/ci"
	"github.com/scan-io-git/issuetrack/internal/git"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
)

func envBranch(branch string) func(ci.LookupFunc) (string, bool) {
	return func(ci.LookupFunc) (string, bool) {
		return branch, branch != ""
	}
}

func TestProjectBinding(t *testing.T) {
	main := "main"
	md := &git.RepositoryMetadata{BranchName: &main, Subfolder: "services/api"}

	tests := []struct {
		name       string
		server     config.Server
		opts       RunOptions
		md         *git.RepositoryMetadata
		env        string
		wantBranch string
		wantPrefix string
	}{
		{
			name:       "flag wins",
			opts:       RunOptions{Project: "p", Branch: "feature"},
			md:         md,
			env:        "ci-branch",
			wantBranch: "feature",
			wantPrefix: "services/api",
		},
		{
			name:       "ci before git",
			opts:       RunOptions{Project: "p"},
			md:         md,
			env:        "ci-branch",
			wantBranch: "ci-branch",
			wantPrefix: "services/api",
		},
		{
			name:       "git head",
			opts:       RunOptions{Project: "p"},
			md:         md,
			wantBranch: "main",
			wantPrefix: "services/api",
		},
		{
			name: "no repository",
			opts: RunOptions{Project: "p"},
		},
		{
			name:       "configured prefixes are kept",
			server:     config.Server{IdePathPrefix: "app", ServerPathPrefix: "backend"},
			opts:       RunOptions{Project: "p"},
			md:         md,
			wantBranch: "main",
			wantPrefix: "backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: tt.server}
			b := projectBinding(cfg, tt.opts, tt.md, envBranch(tt.env))
			assert.Equal(t, "p", b.ProjectKey)
			assert.Equal(t, tt.wantBranch, b.Branch)
			assert.Equal(t, tt.wantPrefix, b.ServerPathPrefix)
			assert.Equal(t, tt.server.IdePathPrefix, b.IdePathPrefix)
		})
	}
}

func TestValidate(t *testing.T) {
	withServer := &config.Config{Server: config.Server{URL: "https://example.com"}}

	assert.EqualError(t, validate(withServer, &RunOptions{SourceFolder: "."}), "--project is required")
	assert.EqualError(t, validate(&config.Config{}, &RunOptions{Project: "p", SourceFolder: "."}), "server.url must be configured")
	assert.NoError(t, validate(withServer, &RunOptions{Project: "p", SourceFolder: "."}))
}

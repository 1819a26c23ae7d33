package syncissues

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/issuetrack/internal/ci"
	"github.com/scan-io-git/issuetrack/internal/git"
	"github.com/scan-io-git/issuetrack/internal/workspace"
	"github.com/scan-io-git/issuetrack/pkg/serverissues"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
	"github.com/scan-io-git/issuetrack/pkg/shared/httpclient"
	"github.com/scan-io-git/issuetrack/pkg/tracker"
)

func run(ctx context.Context, cfg *config.Config, o RunOptions, lg hclog.Logger) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	httpc := httpclient.InitializeRestyClient(lg.Named("http"), cfg)
	client := serverissues.NewClient(cfg.Server.URL, cfg.Server.Token, httpc, lg.Named("server"))
	reconciler := serverissues.NewReconciler(client, lg.Named("reconciler"))

	ws, err := workspace.Open(cfg, lg, o.SourceFolder, o.StorePath, tracker.WithServerMatcher(reconciler))
	if err != nil {
		return 0, err
	}
	defer ws.Close()

	paths, err := ws.LoadAll()
	if err != nil {
		return 0, err
	}
	if len(o.Files) > 0 {
		paths = o.Files
		for _, p := range paths {
			ws.Tracker.Load(p)
		}
	}

	md, err := git.CollectRepositoryMetadata(ws.SourceFolder)
	if err != nil && !errors.Is(err, git.ErrNotRepository) {
		lg.Warn("failed to read repository metadata", "error", err)
	}
	binding := projectBinding(cfg, o, md, ci.BranchFromEnvironment)
	lg.Debug("project binding resolved",
		"project", binding.ProjectKey,
		"branch", binding.Branch,
		"server_path_prefix", binding.ServerPathPrefix)

	if err := ws.Tracker.TrackWithServerIssues(ctx, binding, paths, o.Refresh); err != nil {
		return 0, err
	}
	if err := ws.Tracker.FlushAll(); err != nil {
		return 0, err
	}
	return len(paths), nil
}

// projectBinding builds the server binding. The branch comes from the flag,
// then the CI environment, then the repository HEAD. Without a configured
// server prefix, files of a repository subfolder are prefixed with it.
func projectBinding(cfg *config.Config, o RunOptions, md *git.RepositoryMetadata, branchFromEnv func(ci.LookupFunc) (string, bool)) serverissues.ProjectBinding {
	binding := serverissues.ProjectBinding{
		ProjectKey:       o.Project,
		Branch:           o.Branch,
		IdePathPrefix:    cfg.Server.IdePathPrefix,
		ServerPathPrefix: cfg.Server.ServerPathPrefix,
	}

	if binding.Branch == "" {
		if branch, ok := branchFromEnv(nil); ok {
			binding.Branch = branch
		} else if md != nil && md.BranchName != nil {
			binding.Branch = *md.BranchName
		}
	}
	if binding.ServerPathPrefix == "" && binding.IdePathPrefix == "" && md != nil {
		binding.ServerPathPrefix = md.Subfolder
	}
	return binding
}

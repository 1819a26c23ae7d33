package serverissues

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/issuetrack/pkg/issuecorrelation"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// Fetcher downloads the server issues of one file.
type Fetcher interface {
	FetchIssues(ctx context.Context, binding ProjectBinding, serverPath string) ([]trackable.Server, error)
}

type cacheKey struct {
	project string
	branch  string
	path    string
}

// Reconciler matches local issues against the issues a server knows for the
// same file and reports, per local identity, whether the server has it.
// Downloaded issue lists are cached per project, branch and path.
type Reconciler struct {
	fetcher Fetcher
	logger  hclog.Logger

	mu    sync.Mutex
	cache map[cacheKey][]trackable.Server
}

// NewReconciler returns a Reconciler downloading through f.
func NewReconciler(f Fetcher, logger hclog.Logger) *Reconciler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reconciler{
		fetcher: f,
		logger:  logger,
		cache:   make(map[cacheKey][]trackable.Server),
	}
}

var reconcileStages = append([]issuecorrelation.Stage{issuecorrelation.ServerKeyStage}, issuecorrelation.DefaultStages...)

// MatchWithServerIssues returns a result for every issue in issues. With
// refresh the server list is downloaded again even if cached. Safe for
// concurrent use.
func (r *Reconciler) MatchWithServerIssues(ctx context.Context, binding ProjectBinding, serverPath string, issues []LocalIssue, refresh bool) (map[uuid.UUID]Result, error) {
	serverIssues, err := r.serverIssues(ctx, binding, serverPath, refresh)
	if err != nil {
		return nil, err
	}

	c := issuecorrelation.NewCorrelator(issues, serverIssues, reconcileStages...)
	results := make(map[uuid.UUID]Result, len(issues))
	for _, m := range c.Matches() {
		results[m.New.ID] = MatchedResult(m.Known.Key, m.Known.Resolved)
	}
	for _, local := range c.UnmatchedNew() {
		results[local.ID] = LocalOnlyResult()
	}

	r.logger.Debug("reconciled with server",
		"path", serverPath,
		"matched", len(c.Matches()),
		"local_only", len(c.UnmatchedNew()),
		"server_only", len(c.UnmatchedKnown()))
	return results, nil
}

// Invalidate drops every cached server list.
func (r *Reconciler) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey][]trackable.Server)
}

func (r *Reconciler) serverIssues(ctx context.Context, binding ProjectBinding, serverPath string, refresh bool) ([]trackable.Server, error) {
	key := cacheKey{project: binding.ProjectKey, branch: binding.Branch, path: serverPath}

	if !refresh {
		r.mu.Lock()
		cached, ok := r.cache[key]
		r.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	fetched, err := r.fetcher.FetchIssues(ctx, binding, serverPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = fetched
	r.mu.Unlock()
	return fetched, nil
}

// Package tracker keeps stable identities for findings across analyzer runs.
//
// A Tracker holds, per project-relative file path, the collection of tracked
// issues currently known. Each analyzer run for a file is correlated against
// that collection (or against the persisted collection after a restart):
// matched issues keep their identity, creation date and server state, vanished
// issues are dropped and unmatched fresh issues get new identities.
package tracker

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/issuetrack/pkg/issuecorrelation"
	"github.com/scan-io-git/issuetrack/pkg/serverissues"
	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// maxParallelFetches bounds concurrent server queries in TrackWithServerIssues.
const maxParallelFetches = 8

// Store persists tracked collections between runs.
// Read reports false when nothing was ever saved for path.
type Store interface {
	Read(path string) ([]trackable.Tracked, bool, error)
	Save(path string, issues []trackable.Tracked) error
}

// ServerMatcher tells, per local identity, whether the server knows an issue.
type ServerMatcher interface {
	MatchWithServerIssues(ctx context.Context, binding serverissues.ProjectBinding, serverPath string, issues []serverissues.LocalIssue, refresh bool) (map[uuid.UUID]serverissues.Result, error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Defaults to a null logger.
func WithLogger(logger hclog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithServerMatcher enables TrackWithServerIssues.
func WithServerMatcher(m ServerMatcher) Option {
	return func(t *Tracker) {
		t.matcher = m
	}
}

// WithClock overrides time.Now for creation dates of new findings.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithIDGenerator overrides uuid.New for new identities.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(t *Tracker) {
		t.newID = newID
	}
}

// Tracker is the per-project owner of tracked issues. All methods are safe for
// concurrent use; mutations are serialized by a single lock.
type Tracker struct {
	store   Store
	matcher ServerMatcher
	logger  hclog.Logger
	now     func() time.Time
	newID   func() uuid.UUID

	mu            sync.RWMutex
	trackedByPath map[string][]trackable.Tracked
}

// New creates a Tracker persisting through store.
func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		logger:        hclog.NewNullLogger(),
		now:           time.Now,
		newID:         uuid.New,
		trackedByPath: make(map[string][]trackable.Tracked),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ProcessRawIssues correlates one analyzer run for path with what is already
// known about path and returns a snapshot of the resulting tracked issues, in
// the order of raws.
func (t *Tracker) ProcessRawIssues(filePath string, raws []trackable.Raw) []trackable.Tracked {
	p := normalizePath(filePath)

	t.mu.Lock()
	defer t.mu.Unlock()

	var result []trackable.Tracked
	if known, ok := t.trackedByPath[p]; ok {
		result = t.correlate(p, raws, known)
	} else if persisted, ok := t.readStore(p); ok {
		t.logger.Debug("reloading persisted issues", "path", p, "count", len(persisted))
		result = t.correlate(p, raws, persisted)
	} else {
		t.logger.Debug("first analysis", "path", p, "count", len(raws))
		result = make([]trackable.Tracked, 0, len(raws))
		for _, raw := range raws {
			result = append(result, trackable.NewTracked(t.newID(), raw, nil))
		}
	}

	t.trackedByPath[p] = result
	return cloneAll(result)
}

func (t *Tracker) correlate(p string, raws []trackable.Raw, known []trackable.Tracked) []trackable.Tracked {
	c := issuecorrelation.NewCorrelator(raws, known)

	knownFor := make(map[int]int, len(raws))
	for _, m := range c.Matches() {
		knownFor[m.NewIndex] = m.KnownIndex
	}

	now := t.now()
	result := make([]trackable.Tracked, 0, len(raws))
	for i, raw := range raws {
		if k, ok := knownFor[i]; ok {
			updated := known[k].Clone()
			updated.UpdateFromFreshAnalysis(raw)
			result = append(result, updated)
			continue
		}
		created := now
		result = append(result, trackable.NewTracked(t.newID(), raw, &created))
	}

	t.logger.Debug("issues correlated",
		"path", p,
		"matched", len(knownFor),
		"new", len(raws)-len(knownFor),
		"gone", len(known)-len(knownFor))
	return result
}

func (t *Tracker) readStore(p string) ([]trackable.Tracked, bool) {
	if t.store == nil {
		return nil, false
	}
	persisted, ok, err := t.store.Read(p)
	if err != nil {
		t.logger.Warn("failed to read persisted issues, treating as first analysis", "path", p, "error", err)
		return nil, false
	}
	return persisted, ok
}

// Load brings the persisted issues of path into memory without an analyzer
// run. It is a no-op when path is already tracked in memory and reports
// whether path is tracked afterwards.
func (t *Tracker) Load(filePath string) bool {
	p := normalizePath(filePath)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.trackedByPath[p]; ok {
		return true
	}
	persisted, ok := t.readStore(p)
	if !ok {
		return false
	}
	t.trackedByPath[p] = persisted
	return true
}

// TrackWithServerIssues reconciles the tracked issues of files with the
// server. Files are queried concurrently; results are applied only once every
// query succeeded, so a failure leaves local state untouched. Files not
// tracked in memory are skipped.
func (t *Tracker) TrackWithServerIssues(ctx context.Context, binding serverissues.ProjectBinding, files []string, refresh bool) error {
	if t.matcher == nil {
		return errors.New("server reconciliation is not configured")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	type query struct {
		path       string
		serverPath string
		issues     []serverissues.LocalIssue
		results    map[uuid.UUID]serverissues.Result
	}

	var queries []*query
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		p := normalizePath(f)
		tracked, ok := t.trackedByPath[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true

		issues := make([]serverissues.LocalIssue, 0, len(tracked))
		for _, tr := range tracked {
			issues = append(issues, serverissues.FromTracked(tr))
		}
		queries = append(queries, &query{path: p, serverPath: binding.ServerPath(p), issues: issues})
	}
	if len(queries) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(maxParallelFetches, len(queries)))
	for _, q := range queries {
		q := q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return issueerrors.NewDownloadError(q.serverPath, 0, err)
			}
			results, err := t.matcher.MatchWithServerIssues(gctx, binding, q.serverPath, q.issues, refresh)
			if err != nil {
				var dErr *issueerrors.DownloadError
				if errors.As(err, &dErr) {
					return err
				}
				return issueerrors.NewDownloadError(q.serverPath, 0, err)
			}
			q.results = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.logger.Error("server reconciliation failed, local state left untouched", "project", binding.ProjectKey, "error", err)
		return err
	}

	for _, q := range queries {
		tracked := t.trackedByPath[q.path]
		applied := 0
		for i := range tracked {
			res, ok := q.results[tracked[i].ID]
			if !ok {
				continue
			}
			if res.Matched {
				tracked[i].UpdateFromServerMatch(res.ServerIssueKey, res.Resolved)
			} else {
				tracked[i].UpdateAsLocalOnly()
			}
			applied++
		}
		t.logger.Debug("server results applied", "path", q.path, "server_path", q.serverPath, "applied", applied, "tracked", len(tracked))
	}
	return nil
}

// FlushAll saves every in-memory collection. Failures for individual paths
// are joined; memory is never modified.
func (t *Tracker) FlushAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, p := range t.sortedPaths() {
		if err := t.save(p, t.trackedByPath[p]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush saves the in-memory collection of one path, if tracked.
func (t *Tracker) Flush(filePath string) error {
	p := normalizePath(filePath)

	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.trackedByPath[p]
	if !ok {
		return nil
	}
	return t.save(p, tracked)
}

func (t *Tracker) save(p string, tracked []trackable.Tracked) error {
	if t.store == nil {
		return issueerrors.NewStoreError("save", p, errors.New("no store configured"))
	}
	if err := t.store.Save(p, tracked); err != nil {
		t.logger.Warn("failed to save tracked issues", "path", p, "error", err)
		var sErr *issueerrors.StoreError
		if errors.As(err, &sErr) {
			return err
		}
		return issueerrors.NewStoreError("save", p, err)
	}
	t.logger.Debug("tracked issues saved", "path", p, "count", len(tracked))
	return nil
}

// Clear drops all in-memory state without flushing.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trackedByPath = make(map[string][]trackable.Tracked)
}

// Forget drops the in-memory state of one path without flushing.
func (t *Tracker) Forget(filePath string) {
	p := normalizePath(filePath)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.trackedByPath, p)
}

// GetTracked returns a copy of the tracked issues of path.
func (t *Tracker) GetTracked(filePath string) ([]trackable.Tracked, bool) {
	p := normalizePath(filePath)

	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.trackedByPath[p]
	if !ok {
		return nil, false
	}
	return cloneAll(tracked), true
}

// Paths returns the tracked paths in sorted order.
func (t *Tracker) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedPaths()
}

func (t *Tracker) sortedPaths() []string {
	paths := make([]string, 0, len(t.trackedByPath))
	for p := range t.trackedByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func cloneAll(tracked []trackable.Tracked) []trackable.Tracked {
	out := make([]trackable.Tracked, len(tracked))
	for i := range tracked {
		out[i] = tracked[i].Clone()
	}
	return out
}


package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/issuetrack/pkg/serverissues"
	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]trackable.Tracked
	readErr error
	saveErr map[string]error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]trackable.Tracked), saveErr: make(map[string]error)}
}

func (s *memStore) Read(path string) ([]trackable.Tracked, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	issues, ok := s.data[path]
	if !ok {
		return nil, false, nil
	}
	out := make([]trackable.Tracked, len(issues))
	for i := range issues {
		out[i] = issues[i].Clone()
	}
	return out, true, nil
}

func (s *memStore) Save(path string, issues []trackable.Tracked) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if err := s.saveErr[path]; err != nil {
		return err
	}
	out := make([]trackable.Tracked, len(issues))
	for i := range issues {
		out[i] = issues[i].Clone()
	}
	s.data[path] = out
	return nil
}

type fakeMatcher struct {
	mu      sync.Mutex
	respond func(serverPath string, issues []serverissues.LocalIssue) (map[uuid.UUID]serverissues.Result, error)
	paths   []string
}

func (m *fakeMatcher) MatchWithServerIssues(_ context.Context, _ serverissues.ProjectBinding, serverPath string, issues []serverissues.LocalIssue, _ bool) (map[uuid.UUID]serverissues.Result, error) {
	m.mu.Lock()
	m.paths = append(m.paths, serverPath)
	m.mu.Unlock()
	return m.respond(serverPath, issues)
}

const fooJava = "package foo;\n\npublic class Foo {\n  public static String INSTANCE;\n  private int count;\n}\n"

func finding(rule string, line, start, end int) trackable.Finding {
	return trackable.Finding{
		RuleKey:   rule,
		Message:   rule + " message",
		TextRange: &textrange.Range{StartLine: line, StartLineOffset: start, EndLine: line, EndLineOffset: end},
	}
}

func raws(content string, findings ...trackable.Finding) []trackable.Raw {
	doc := textrange.NewDocument(content)
	out := make([]trackable.Raw, 0, len(findings))
	for _, f := range findings {
		out = append(out, trackable.NewRaw(doc, f))
	}
	return out
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestTracker(t *testing.T, opts ...Option) (*Tracker, *memStore, *fixedClock) {
	t.Helper()
	store := newMemStore()
	clock := &fixedClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := New(store, append([]Option{WithClock(clock.now)}, opts...)...)
	return tr, store, clock
}

func TestFirstAnalysisHasUnknownCreationDate(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	result := tr.ProcessRawIssues("src/Foo.java", raws(fooJava,
		finding("java:S1444", 4, 23, 31),
		finding("java:S1068", 5, 14, 19),
		trackable.Finding{RuleKey: "java:S1118"},
	))

	require.Len(t, result, 3)
	ids := map[uuid.UUID]bool{}
	for _, issue := range result {
		assert.Nil(t, issue.CreationDate)
		assert.NotEqual(t, uuid.Nil, issue.ID)
		ids[issue.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestIdentityStability(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	first := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	require.Len(t, first, 1)

	clock.t = clock.t.Add(time.Hour)
	// Same range text, shifted down by one line.
	shifted := "package foo;\n\n\npublic class Foo {\n  public static String INSTANCE;\n  private int count;\n}\n"
	second := tr.ProcessRawIssues("Foo.java", raws(shifted, finding("java:S1444", 5, 23, 31)))

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Nil(t, second[0].CreationDate)
	assert.Equal(t, 5, *second[0].Line)
	assert.Equal(t, 5, second[0].TextRange.StartLine)
}

func TestMatchedIssuesKeepResolutionAndServerKey(t *testing.T) {
	m := &fakeMatcher{respond: func(_ string, issues []serverissues.LocalIssue) (map[uuid.UUID]serverissues.Result, error) {
		return map[uuid.UUID]serverissues.Result{issues[0].ID: serverissues.MatchedResult("AX-1", true)}, nil
	}}
	tr, _, _ := newTestTracker(t, WithServerMatcher(m))

	tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	require.NoError(t, tr.TrackWithServerIssues(context.Background(), serverissues.ProjectBinding{ProjectKey: "p"}, []string{"Foo.java"}, false))

	f := finding("java:S1444", 4, 23, 31)
	f.Message = "updated message"
	result := tr.ProcessRawIssues("Foo.java", raws(fooJava, f))

	require.Len(t, result, 1)
	assert.True(t, result[0].Resolved)
	require.NotNil(t, result[0].ServerIssueKey)
	assert.Equal(t, "AX-1", *result[0].ServerIssueKey)
	assert.Equal(t, "updated message", *result[0].Message)
}

func TestNewFindingGetsProcessingTime(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	first := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))

	clock.t = clock.t.Add(24 * time.Hour)
	second := tr.ProcessRawIssues("Foo.java", raws(fooJava,
		finding("java:S1068", 5, 14, 19),
		finding("java:S1444", 4, 23, 31),
	))

	require.Len(t, second, 2)
	// Result follows the order of the raw issues.
	assert.NotEqual(t, first[0].ID, second[0].ID)
	require.NotNil(t, second[0].CreationDate)
	assert.Equal(t, clock.t, *second[0].CreationDate)
	assert.Equal(t, first[0].ID, second[1].ID)
	assert.Nil(t, second[1].CreationDate)
}

func TestDisappearedIssuesAreRemoved(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	first := tr.ProcessRawIssues("Foo.java", raws(fooJava,
		finding("java:S1444", 4, 23, 31),
		finding("java:S1068", 5, 14, 19),
	))

	second := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1068", 5, 14, 19)))
	require.Len(t, second, 1)
	assert.Equal(t, first[1].ID, second[0].ID)

	tracked, ok := tr.GetTracked("Foo.java")
	require.True(t, ok)
	assert.Len(t, tracked, 1)

	empty := tr.ProcessRawIssues("Foo.java", nil)
	assert.Empty(t, empty)
	tracked, ok = tr.GetTracked("Foo.java")
	assert.True(t, ok)
	assert.Empty(t, tracked)
}

func TestPersistedReloadEquivalence(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	input := raws(fooJava, finding("java:S1444", 4, 23, 31), trackable.Finding{RuleKey: "java:S1118"})

	tr.ProcessRawIssues("Foo.java", input[:1])
	clock.t = clock.t.Add(time.Minute)
	before := tr.ProcessRawIssues("Foo.java", input)
	require.NotNil(t, before[1].CreationDate)

	require.NoError(t, tr.FlushAll())
	tr.Clear()
	_, ok := tr.GetTracked("Foo.java")
	require.False(t, ok)

	clock.t = clock.t.Add(time.Hour)
	after := tr.ProcessRawIssues("Foo.java", input)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].CreationDate, after[i].CreationDate)
		assert.Equal(t, before[i].Resolved, after[i].Resolved)
	}
}

func TestStoreReadFailureIsFirstAnalysis(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	store.readErr = errors.New("corrupt")

	result := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	require.Len(t, result, 1)
	assert.Nil(t, result[0].CreationDate)
}

func TestNilStoreIsFirstAnalysis(t *testing.T) {
	tr := New(nil)
	result := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	require.Len(t, result, 1)

	var sErr *issueerrors.StoreError
	assert.ErrorAs(t, tr.FlushAll(), &sErr)
}

func TestFlushAllJoinsErrorsAndKeepsMemory(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	tr.ProcessRawIssues("a.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	tr.ProcessRawIssues("b.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	tr.ProcessRawIssues("c.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))

	diskFull := errors.New("disk full")
	store.saveErr["a.java"] = diskFull
	store.saveErr["c.java"] = diskFull

	err := tr.FlushAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)

	var sErr *issueerrors.StoreError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "a.java", sErr.Path)

	assert.Equal(t, 3, store.saves)
	assert.Contains(t, store.data, "b.java")
	assert.Equal(t, []string{"a.java", "b.java", "c.java"}, tr.Paths())
}

func TestFlushForgetAndPaths(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	tr.ProcessRawIssues(`src\b.java`, raws(fooJava, finding("java:S1444", 4, 23, 31)))
	tr.ProcessRawIssues("./src/a.java", nil)

	assert.Equal(t, []string{"src/a.java", "src/b.java"}, tr.Paths())

	require.NoError(t, tr.Flush("src/b.java"))
	assert.Contains(t, store.data, "src/b.java")
	assert.NotContains(t, store.data, "src/a.java")
	require.NoError(t, tr.Flush("missing.java"))

	tr.Forget("src/b.java")
	assert.Equal(t, []string{"src/a.java"}, tr.Paths())
	_, ok := tr.GetTracked("src/b.java")
	assert.False(t, ok)
}

func TestGetTrackedReturnsSnapshot(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))

	snapshot, ok := tr.GetTracked("Foo.java")
	require.True(t, ok)
	*snapshot[0].Message = "tampered"
	snapshot[0].Resolved = true

	again, _ := tr.GetTracked("Foo.java")
	assert.Equal(t, "java:S1444 message", *again[0].Message)
	assert.False(t, again[0].Resolved)
}

func TestTrackWithServerIssues(t *testing.T) {
	var unknown = uuid.New()
	m := &fakeMatcher{respond: func(serverPath string, issues []serverissues.LocalIssue) (map[uuid.UUID]serverissues.Result, error) {
		results := map[uuid.UUID]serverissues.Result{unknown: serverissues.MatchedResult("GHOST", true)}
		for _, issue := range issues {
			switch issue.RuleKey {
			case "java:S1444":
				results[issue.ID] = serverissues.MatchedResult("AX-"+serverPath, true)
			case "java:S1068":
				results[issue.ID] = serverissues.LocalOnlyResult()
			}
			// java:S1118 is left out of the response.
		}
		return results, nil
	}}
	tr, _, _ := newTestTracker(t, WithServerMatcher(m))

	tr.ProcessRawIssues("app/Foo.java", raws(fooJava,
		finding("java:S1444", 4, 23, 31),
		finding("java:S1068", 5, 14, 19),
		trackable.Finding{RuleKey: "java:S1118"},
	))
	before, _ := tr.GetTracked("app/Foo.java")
	// Pretend a previous sync put state on the issues that will be left out or go local-only.
	tr.trackedByPath["app/Foo.java"][1].UpdateFromServerMatch("OLD", true)
	tr.trackedByPath["app/Foo.java"][2].UpdateFromServerMatch("KEEP", true)

	binding := serverissues.ProjectBinding{ProjectKey: "p", IdePathPrefix: "app", ServerPathPrefix: "svc"}
	err := tr.TrackWithServerIssues(context.Background(), binding, []string{"app/Foo.java", "app/Untracked.java"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"svc/Foo.java"}, m.paths)

	after, _ := tr.GetTracked("app/Foo.java")
	require.Len(t, after, 3)
	for i := range after {
		assert.Equal(t, before[i].ID, after[i].ID)
	}

	require.NotNil(t, after[0].ServerIssueKey)
	assert.Equal(t, "AX-svc/Foo.java", *after[0].ServerIssueKey)
	assert.True(t, after[0].Resolved)

	assert.Nil(t, after[1].ServerIssueKey)
	assert.False(t, after[1].Resolved)

	require.NotNil(t, after[2].ServerIssueKey)
	assert.Equal(t, "KEEP", *after[2].ServerIssueKey)
	assert.True(t, after[2].Resolved)
}

func TestTrackWithServerIssuesFailureLeavesStateUntouched(t *testing.T) {
	boom := errors.New("connection reset")
	m := &fakeMatcher{respond: func(serverPath string, issues []serverissues.LocalIssue) (map[uuid.UUID]serverissues.Result, error) {
		if serverPath == "b.java" {
			return nil, boom
		}
		results := map[uuid.UUID]serverissues.Result{}
		for _, issue := range issues {
			results[issue.ID] = serverissues.MatchedResult("AX", true)
		}
		return results, nil
	}}
	tr, _, _ := newTestTracker(t, WithServerMatcher(m))
	tr.ProcessRawIssues("a.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	tr.ProcessRawIssues("b.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))

	err := tr.TrackWithServerIssues(context.Background(), serverissues.ProjectBinding{ProjectKey: "p"}, []string{"a.java", "b.java"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var dErr *issueerrors.DownloadError
	assert.ErrorAs(t, err, &dErr)

	for _, p := range []string{"a.java", "b.java"} {
		tracked, _ := tr.GetTracked(p)
		assert.Nil(t, tracked[0].ServerIssueKey, p)
		assert.False(t, tracked[0].Resolved, p)
	}
}

func TestTrackWithServerIssuesRequiresMatcher(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	assert.Error(t, tr.TrackWithServerIssues(context.Background(), serverissues.ProjectBinding{}, []string{"a.java"}, false))
}

func TestConcurrentAccess(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	input := raws(fooJava, finding("java:S1444", 4, 23, 31), finding("java:S1068", 5, 14, 19))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("f%d.java", i%2)
			for j := 0; j < 20; j++ {
				tr.ProcessRawIssues(p, input)
				if tracked, ok := tr.GetTracked(p); ok {
					assert.Len(t, tracked, 2)
				}
				_ = tr.FlushAll()
			}
		}(i)
	}
	wg.Wait()

	a, _ := tr.GetTracked("f0.java")
	b, _ := tr.GetTracked("f0.java")
	assert.Equal(t, a, b)
}

func TestLoadBringsPersistedStateIntoMemory(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	saved := tr.ProcessRawIssues("Foo.java", raws(fooJava, finding("java:S1444", 4, 23, 31)))
	require.NoError(t, tr.FlushAll())
	tr.Clear()

	assert.False(t, tr.Load("Missing.java"))
	assert.True(t, tr.Load("Foo.java"))

	loaded, ok := tr.GetTracked("Foo.java")
	require.True(t, ok)
	assert.Equal(t, saved, loaded)

	// Memory wins over the store once loaded.
	store.data["Foo.java"] = nil
	assert.True(t, tr.Load("Foo.java"))
	loaded, _ = tr.GetTracked("Foo.java")
	assert.Len(t, loaded, 1)
}

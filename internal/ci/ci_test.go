package ci

import "testing"

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) string { return env[key] }
}

func TestCIKindString(t *testing.T) {
	testCases := []struct {
		name string
		kind CIKind
		want string
	}{
		{name: "GitHub", kind: CIGitHub, want: "github"},
		{name: "GitLab", kind: CIGitLab, want: "gitlab"},
		{name: "Bitbucket", kind: CIBitbucket, want: "bitbucket"},
		{name: "Unknown", kind: CIUnknown, want: "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Fatalf("CIKind.String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectCIKind(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want CIKind
	}{
		{name: "GitHub", env: map[string]string{"GITHUB_REPOSITORY": "org/repo"}, want: CIGitHub},
		{name: "GitLab", env: map[string]string{"GITLAB_CI": "true"}, want: CIGitLab},
		{name: "Bitbucket", env: map[string]string{"BITBUCKET_REPO_SLUG": "repo"}, want: CIBitbucket},
		{name: "Local", env: map[string]string{}, want: CIUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectCIKind(lookupFrom(tc.env)); got != tc.want {
				t.Fatalf("DetectCIKind() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBranchFromEnvironment(t *testing.T) {
	testCases := []struct {
		name   string
		env    map[string]string
		want   string
		wantOK bool
	}{
		{
			name:   "GitHub push",
			env:    map[string]string{"GITHUB_SHA": "abc", "GITHUB_REF_NAME": "main", "GITHUB_REF_TYPE": "branch"},
			want:   "main",
			wantOK: true,
		},
		{
			name:   "GitHub pull request",
			env:    map[string]string{"GITHUB_SHA": "abc", "GITHUB_REF_NAME": "42/merge", "GITHUB_HEAD_REF": "feature/x"},
			want:   "feature/x",
			wantOK: true,
		},
		{
			name: "GitHub tag",
			env:  map[string]string{"GITHUB_SHA": "abc", "GITHUB_REF_NAME": "v1.0.0", "GITHUB_REF_TYPE": "tag"},
		},
		{
			name:   "GitLab merge request",
			env:    map[string]string{"GITLAB_CI": "true", "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME": "fix", "CI_COMMIT_BRANCH": "ignored"},
			want:   "fix",
			wantOK: true,
		},
		{
			name:   "GitLab branch",
			env:    map[string]string{"CI_PROJECT_PATH": "g/p", "CI_COMMIT_BRANCH": "develop"},
			want:   "develop",
			wantOK: true,
		},
		{
			name:   "Bitbucket",
			env:    map[string]string{"BITBUCKET_WORKSPACE": "ws", "BITBUCKET_BRANCH": " release "},
			want:   "release",
			wantOK: true,
		},
		{
			name: "Not in CI",
			env:  map[string]string{"BITBUCKET_BRANCH": "main"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BranchFromEnvironment(lookupFrom(tc.env))
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("BranchFromEnvironment() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

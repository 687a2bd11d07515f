package lockfile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeGit struct {
	commits map[string]string // "repo@reference" -> commit
	calls   int
	failN   int // fail the first failN calls
}

func (f *fakeGit) FetchRemoteRegistry(_ context.Context, repo, reference string) (string, error) {
	f.calls++
	if f.calls <= f.failN {
		return "", errors.New("network down")
	}
	commit, ok := f.commits[repo+"@"+reference]
	if !ok {
		return "", errors.New("unknown ref")
	}
	return commit, nil
}

func (f *fakeGit) Fetch(context.Context, string, string) error { return nil }
func (f *fakeGit) Show(context.Context, string, string, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeGit) CheckoutTree(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeGit) HeadCommit(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func TestGetOrFetchInsertsAndCaches(t *testing.T) {
	git := &fakeGit{commits: map[string]string{"repo@main": "abc123"}}
	lf := New(git)

	e1, err := lf.GetOrFetch(context.Background(), "repo", "main")
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if e1.CommitID != "abc123" || e1.Stale {
		t.Errorf("entry = %+v", e1)
	}

	e2, err := lf.GetOrFetch(context.Background(), "repo", "main")
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if e2 != e1 {
		t.Error("GetOrFetch() did not return the cached entry")
	}
	if git.calls != 1 {
		t.Errorf("git calls = %d, want 1 (second call should hit the cache)", git.calls)
	}
	if !lf.Modified() {
		t.Error("Modified() = false after insert")
	}
}

func TestEnsureUpToDateOnlyRefreshesStaleEntries(t *testing.T) {
	git := &fakeGit{commits: map[string]string{"repo@main": "v2"}}
	lf, err := Load(git, []byte(`{"repo": {"main": {"commit": "v1"}}}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	entry, err := lf.GetOrFetch(context.Background(), "repo", "main")
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if !entry.Stale || entry.CommitID != "v1" {
		t.Fatalf("loaded entry = %+v, want stale v1", entry)
	}

	if err := lf.EnsureUpToDate(context.Background(), entry); err != nil {
		t.Fatalf("EnsureUpToDate() error = %v", err)
	}
	if entry.Stale || entry.CommitID != "v2" {
		t.Errorf("entry after refresh = %+v", entry)
	}

	// A fresh entry should not trigger another fetch.
	callsBefore := git.calls
	if err := lf.EnsureUpToDate(context.Background(), entry); err != nil {
		t.Fatalf("EnsureUpToDate() error = %v", err)
	}
	if git.calls != callsBefore {
		t.Errorf("EnsureUpToDate() refetched a fresh entry")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	git := &fakeGit{commits: map[string]string{"repo": "", "repo@main": "abc123"}}
	lf := New(git)
	if _, err := lf.GetOrFetch(context.Background(), "repo", "main"); err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}

	data, err := lf.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Load(git, data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entry, err := reloaded.GetOrFetch(context.Background(), "repo", "main")
	if err != nil {
		t.Fatalf("GetOrFetch() after reload error = %v", err)
	}
	if diff := cmp.Diff("abc123", entry.CommitID); diff != "" {
		t.Errorf("CommitID mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestMarkStaleForcesRefetch(t *testing.T) {
	git := &fakeGit{commits: map[string]string{"repo@main": "v1"}}
	lf := New(git)
	entry, _ := lf.GetOrFetch(context.Background(), "repo", "main")

	lf.MarkStale(entry)
	git.commits["repo@main"] = "v2"

	if err := lf.EnsureUpToDate(context.Background(), entry); err != nil {
		t.Fatalf("EnsureUpToDate() error = %v", err)
	}
	if entry.CommitID != "v2" {
		t.Errorf("CommitID = %q, want v2", entry.CommitID)
	}
}

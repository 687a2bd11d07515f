package gitio

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type fakeBackend struct {
	failCount int32
	calls     int32
}

func (f *fakeBackend) FetchRemoteRegistry(context.Context, string, string) (string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failCount {
		return "", errors.New("transient network error")
	}
	return "deadbeef", nil
}

func (f *fakeBackend) Fetch(context.Context, string, string) error { return nil }
func (f *fakeBackend) Show(context.Context, string, string, string) ([]byte, error) {
	return []byte("content"), nil
}
func (f *fakeBackend) CheckoutTree(context.Context, string, string) (string, error) {
	return "/tmp/tree", nil
}
func (f *fakeBackend) HeadCommit(context.Context, string) (string, error) {
	return "deadbeef", nil
}

func TestResilientFetchSucceedsOnFirstTry(t *testing.T) {
	backend := &fakeBackend{}
	r := New(backend)

	commit, err := r.FetchRemoteRegistry(context.Background(), "https://example.com/registry", "main")
	if err != nil {
		t.Fatalf("FetchRemoteRegistry() error = %v", err)
	}
	if commit != "deadbeef" {
		t.Errorf("commit = %q, want deadbeef", commit)
	}
}

func TestResilientFetchRetriesTransientFailures(t *testing.T) {
	backend := &fakeBackend{failCount: 2}
	r := New(backend)
	r.baseDelay = 0 // no need to slow the test down

	commit, err := r.FetchRemoteRegistry(context.Background(), "https://example.com/registry", "main")
	if err != nil {
		t.Fatalf("FetchRemoteRegistry() error = %v", err)
	}
	if commit != "deadbeef" {
		t.Errorf("commit = %q, want deadbeef", commit)
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3 (2 failures + 1 success)", backend.calls)
	}
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	backend := &fakeBackend{failCount: 100}
	r := New(backend)
	r.baseDelay = 0
	r.maxRetries = 2

	_, err := r.FetchRemoteRegistry(context.Background(), "https://example.com/registry", "main")
	if err == nil {
		t.Fatal("FetchRemoteRegistry() succeeded, want error")
	}
}

func TestBreakerStatesReportsPerRepo(t *testing.T) {
	backend := &fakeBackend{}
	r := New(backend)
	if _, err := r.FetchRemoteRegistry(context.Background(), "https://example.com/registry", "main"); err != nil {
		t.Fatalf("FetchRemoteRegistry() error = %v", err)
	}

	states := r.BreakerStates()
	if states["https://example.com/registry"] != "closed" {
		t.Errorf("states = %v, want repo closed", states)
	}
}

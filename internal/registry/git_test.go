package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/lockfile"
)

func TestGitGetPortUsesStaleDBWhenPopulated(t *testing.T) {
	backend := newFakeGitBackend()
	backend.commits["https://example.com/registry@main"] = "stale-commit"
	backend.shows["https://example.com/registry@stale-commit:versions/z-/zlib.json"] = []byte(
		`{"versions": [{"version": "1.3.1", "git-tree": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}]}`)
	backend.trees["aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"] = "/cache/a"

	lock := lockfile.New(backend)
	g := NewGit(backend, lock, "https://example.com/registry", "main", "", nil)

	pl, err := g.GetPort(context.Background(), core.VersionSpec{PortName: "zlib", Version: core.Version{Text: "1.3.1"}})
	if err != nil {
		t.Fatalf("GetPort() error = %v", err)
	}
	if pl == nil || pl.Path != "/cache/a" {
		t.Fatalf("GetPort() = %+v", pl)
	}
	if pl.Location != "git+https://example.com/registry@aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("Location = %q", pl.Location)
	}
}

func TestGitGetPortFallsBackToLiveWhenStaleDBEmpty(t *testing.T) {
	backend := newFakeGitBackend()
	backend.commits["https://example.com/registry@main"] = "live-commit"
	backend.shows["https://example.com/registry@live-commit:versions/z-/zlib.json"] = []byte(
		`{"versions": [{"version": "1.3.1", "git-tree": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}]}`)
	backend.trees["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"] = "/cache/b"

	lock, err := lockfile.Load(backend, []byte(`{"https://example.com/registry": {"main": {"commit": "old-commit"}}}`))
	if err != nil {
		t.Fatalf("lockfile.Load() error = %v", err)
	}
	// No versions file at old-commit: staleVersionDB returns nil, which
	// must trigger the live-db fallback.
	g := NewGit(backend, lock, "https://example.com/registry", "main", "", nil)

	pl, err := g.GetPort(context.Background(), core.VersionSpec{PortName: "zlib", Version: core.Version{Text: "1.3.1"}})
	if err != nil {
		t.Fatalf("GetPort() error = %v", err)
	}
	if pl == nil || pl.Path != "/cache/b" {
		t.Fatalf("GetPort() = %+v, want live checkout", pl)
	}
}

// TestGitBaselineAlwaysErrorsWhenIdentifierNotACommit checks that a remote
// git registry can never self-pin: even once its lock entry is confirmed up
// to date, a non-sha baseline identifier always errors rather than falling
// back to HEAD.
func TestGitBaselineAlwaysErrorsWhenIdentifierNotACommit(t *testing.T) {
	backend := newFakeGitBackend()
	backend.commits["https://example.com/registry@main"] = "head-commit"
	backend.head["https://example.com/registry"] = "head-commit"
	backend.shows["https://example.com/registry@head-commit:versions/baseline.json"] = []byte(
		`{"default": {"zlib": {"version": "1.3.1"}}}`)

	lock := lockfile.New(backend)
	g := NewGit(backend, lock, "https://example.com/registry", "main", "not-a-sha", nil)

	_, _, err := g.GetBaselineVersion(context.Background(), "zlib")
	var mustHaveBaseline *core.GitRegistryMustHaveBaselineError
	if !errors.As(err, &mustHaveBaseline) {
		t.Fatalf("GetBaselineVersion() error = %v, want *GitRegistryMustHaveBaselineError", err)
	}
	if mustHaveBaseline.CommitID != "head-commit" {
		t.Errorf("CommitID = %q, want head-commit", mustHaveBaseline.CommitID)
	}
}

package registry

import (
	"context"
	"errors"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

type fakeRecipe struct {
	name    string
	version core.Version
	scheme  core.VersionScheme
}

func (r fakeRecipe) Name() string              { return r.name }
func (r fakeRecipe) Version() core.Version     { return r.version }
func (r fakeRecipe) Scheme() core.VersionScheme { return r.scheme }
func (r fakeRecipe) ToVersionSpec() core.VersionSpec {
	return core.VersionSpec{PortName: r.name, Version: r.version}
}

// fakeParser parses a directory into whatever recipe was registered for it,
// playing the same role an httptest handler plays for an HTTP collaborator.
type fakeParser struct {
	recipes map[string]core.Recipe
}

func newFakeParser() *fakeParser {
	return &fakeParser{recipes: make(map[string]core.Recipe)}
}

func (p *fakeParser) put(dir string, r core.Recipe) { p.recipes[dir] = r }

func (p *fakeParser) Parse(_ context.Context, dir string) (core.Recipe, error) {
	r, ok := p.recipes[dir]
	if !ok {
		return nil, errors.New("no recipe registered for " + dir)
	}
	return r, nil
}

type fakeGitBackend struct {
	trees   map[string]string // tree sha -> checkout dir
	shows   map[string][]byte // "repo@commit:path" -> content
	commits map[string]string // "repo@reference" -> commit
	head    map[string]string // repo -> head commit
}

func newFakeGitBackend() *fakeGitBackend {
	return &fakeGitBackend{
		trees:   make(map[string]string),
		shows:   make(map[string][]byte),
		commits: make(map[string]string),
		head:    make(map[string]string),
	}
}

func (g *fakeGitBackend) FetchRemoteRegistry(_ context.Context, repo, reference string) (string, error) {
	commit, ok := g.commits[repo+"@"+reference]
	if !ok {
		return "", errors.New("unknown ref")
	}
	return commit, nil
}

func (g *fakeGitBackend) Fetch(context.Context, string, string) error { return nil }

func (g *fakeGitBackend) Show(_ context.Context, repo, commit, path string) ([]byte, error) {
	data, ok := g.shows[repo+"@"+commit+":"+path]
	if !ok {
		return nil, core.ErrNotFound
	}
	return data, nil
}

func (g *fakeGitBackend) CheckoutTree(_ context.Context, _ string, treeSha string) (string, error) {
	dir, ok := g.trees[treeSha]
	if !ok {
		return "", errors.New("unknown tree")
	}
	return dir, nil
}

func (g *fakeGitBackend) HeadCommit(_ context.Context, repo string) (string, error) {
	commit, ok := g.head[repo]
	if !ok {
		return "", errors.New("no head")
	}
	return commit, nil
}

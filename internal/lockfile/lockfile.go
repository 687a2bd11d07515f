// Package lockfile implements the lock file: a persisted cache of
// (repo, reference) -> (commit, stale) used to pin remote git registries to
// a specific commit across runs, and to detect when that pin needs
// revalidating.
package lockfile

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

type key struct {
	repo      string
	reference string
}

// LockFile caches git reference resolutions. It is safe for concurrent use.
type LockFile struct {
	git core.GitBackend

	mu       sync.Mutex
	entries  map[key]*core.LockEntry
	modified bool
}

// New returns an empty LockFile backed by git for fetches.
func New(git core.GitBackend) *LockFile {
	return &LockFile{git: git, entries: make(map[key]*core.LockEntry)}
}

// jsonDoc mirrors the external schema:
// {"<repo>": {"<reference>": {"commit": "<sha>"}}}.
type jsonDoc map[string]map[string]struct {
	Commit string `json:"commit"`
}

// Load parses a previously-persisted lock file. Every loaded entry starts
// marked stale, since it was not resolved in this process.
func Load(git core.GitBackend, data []byte) (*LockFile, error) {
	lf := New(git)
	if len(data) == 0 {
		return lf, nil
	}

	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for repo, refs := range doc {
		for reference, v := range refs {
			lf.entries[key{repo, reference}] = &core.LockEntry{
				Repo:      repo,
				Reference: reference,
				CommitID:  v.Commit,
				Stale:     true,
			}
		}
	}
	return lf, nil
}

// Save serializes the current state to the external JSON schema.
func (lf *LockFile) Save() ([]byte, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	doc := jsonDoc{}
	for k, e := range lf.entries {
		if doc[k.repo] == nil {
			doc[k.repo] = map[string]struct {
				Commit string `json:"commit"`
			}{}
		}
		doc[k.repo][k.reference] = struct {
			Commit string `json:"commit"`
		}{Commit: e.CommitID}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Modified reports whether any mutation has happened since construction or
// load. It must survive every call below, including ones that end up being
// no-ops against an already-fresh entry.
func (lf *LockFile) Modified() bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.modified
}

// GetOrFetch returns the cached entry for (repo, reference), fetching and
// inserting one via the git backend if none exists yet.
func (lf *LockFile) GetOrFetch(ctx context.Context, repo, reference string) (*core.LockEntry, error) {
	k := key{repo, reference}

	lf.mu.Lock()
	if e, ok := lf.entries[k]; ok {
		lf.mu.Unlock()
		return e, nil
	}
	lf.mu.Unlock()

	log.Info().Str("repo", repo).Str("reference", reference).Msg("fetching registry info")
	commit, err := lf.git.FetchRemoteRegistry(ctx, repo, reference)
	if err != nil {
		return nil, &core.GitFetchFailedError{Repo: repo, Reference: reference, Err: err}
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()
	if e, ok := lf.entries[k]; ok {
		// Another caller raced us to the insert; keep the existing entry.
		return e, nil
	}
	e := &core.LockEntry{Repo: repo, Reference: reference, CommitID: commit, Stale: false}
	lf.entries[k] = e
	lf.modified = true
	return e, nil
}

// EnsureUpToDate revalidates entry if it is stale, refreshing its commit id
// via the git backend and clearing the stale flag on success. A fresh entry
// is a no-op.
func (lf *LockFile) EnsureUpToDate(ctx context.Context, entry *core.LockEntry) error {
	lf.mu.Lock()
	if !entry.Stale {
		lf.mu.Unlock()
		return nil
	}
	lf.mu.Unlock()

	commit, err := lf.git.FetchRemoteRegistry(ctx, entry.Repo, entry.Reference)
	if err != nil {
		return &core.GitFetchFailedError{Repo: entry.Repo, Reference: entry.Reference, Err: err}
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()
	entry.CommitID = commit
	entry.Stale = false
	lf.modified = true
	return nil
}

// MarkStale forces the next EnsureUpToDate call against entry to refetch,
// even if it previously succeeded in this process.
func (lf *LockFile) MarkStale(entry *core.LockEntry) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	entry.Stale = true
}

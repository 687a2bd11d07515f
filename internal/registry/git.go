package registry

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/BillyONeal/vcpkg-tool/internal/baseline"
	"github.com/BillyONeal/vcpkg-tool/internal/cache"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/lockfile"
	"github.com/BillyONeal/vcpkg-tool/internal/versiondb"
)

// Git serves ports from a remote git registry pinned by a lock file entry.
// It keeps two version-database caches per port: one computed against the
// lock's last-known ("stale") commit, one against the freshly-revalidated
// ("live") commit. A lookup only pays the revalidation cost when the stale
// database has no entry for the requested version.
type Git struct {
	git                core.GitBackend
	lock               *lockfile.LockFile
	repo               string
	reference          string
	baselineIdentifier string
	metrics            core.MetricsCollector

	entry *core.LockEntry

	staleDBs *cache.Cache[string, *core.VersionDB]
	liveDBs  *cache.Cache[string, *core.VersionDB]
	baseline cache.CacheSingle[*core.Baseline]
}

// NewGit constructs a remote git registry. The lock entry for
// (repo, reference) is obtained lazily on first use.
func NewGit(git core.GitBackend, lock *lockfile.LockFile, repo, reference, baselineIdentifier string, metrics core.MetricsCollector) *Git {
	if metrics == nil {
		metrics = core.NoopMetrics{}
	}
	return &Git{
		git: git, lock: lock,
		repo: repo, reference: reference, baselineIdentifier: baselineIdentifier,
		metrics:  metrics,
		staleDBs: cache.New[string, *core.VersionDB](),
		liveDBs:  cache.New[string, *core.VersionDB](),
	}
}

func (g *Git) Kind() string { return KindGit }

func (g *Git) lockEntry(ctx context.Context) (*core.LockEntry, error) {
	if g.entry != nil {
		return g.entry, nil
	}
	entry, err := g.lock.GetOrFetch(ctx, g.repo, g.reference)
	if err != nil {
		return nil, err
	}
	g.entry = entry
	return entry, nil
}

func (g *Git) commitVersionDB(ctx context.Context, name, commit string, dbs *cache.Cache[string, *core.VersionDB]) (*core.VersionDB, error) {
	return dbs.GetOrLoad(commit+"/"+name, func() (*core.VersionDB, error) {
		data, err := g.git.Show(ctx, g.repo, commit, versiondb.PathFor("", name))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, nil // no versions file at this commit is not an error
			}
			return nil, &core.GitFetchFailedError{Repo: g.repo, Reference: commit, Err: err}
		}
		entries, err := versiondb.Parse(data, "")
		if err != nil {
			return nil, &core.VersionsFileParseError{Path: fmt.Sprintf("%s@%s", g.repo, commit), Err: err}
		}
		return core.NewVersionDB(entries), nil
	})
}

func (g *Git) staleVersionDB(ctx context.Context, name string) (*core.VersionDB, error) {
	entry, err := g.lockEntry(ctx)
	if err != nil {
		return nil, err
	}
	return g.commitVersionDB(ctx, name, entry.CommitID, g.staleDBs)
}

func (g *Git) liveVersionDB(ctx context.Context, name string) (*core.VersionDB, error) {
	entry, err := g.lockEntry(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.lock.EnsureUpToDate(ctx, entry); err != nil {
		return nil, err
	}
	return g.commitVersionDB(ctx, name, entry.CommitID, g.liveDBs)
}

// GetPort implements the two-phase lookup (Open Question (a)): try the
// stale database first and return immediately on a hit. When the stale
// database has no entry for the requested version (including when it has
// no entries for this port at all), it revalidates and retries against the
// live database.
func (g *Git) GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	staleDB, err := g.staleVersionDB(ctx, spec.PortName)
	if err != nil {
		return nil, core.Note(err, "loading port version %s", spec)
	}

	if staleDB != nil && staleDB.Len() > 0 {
		entry, ok := staleDB.Get(spec.Version)
		if ok {
			return g.checkout(ctx, entry)
		}
		// A miss against the stale database falls through to the live one.
	}

	g.metrics.Count(core.MetricNoVersionsAtCommit)
	liveDB, err := g.liveVersionDB(ctx, spec.PortName)
	if err != nil {
		return nil, core.Note(err, "loading port version %s", spec)
	}
	if liveDB == nil {
		return nil, nil
	}
	entry, ok := liveDB.Get(spec.Version)
	if !ok {
		return nil, nil
	}
	return g.checkout(ctx, entry)
}

func (g *Git) checkout(ctx context.Context, entry core.VersionDbEntry) (*core.PathAndLocation, error) {
	dir, err := g.git.CheckoutTree(ctx, g.repo, entry.GitTree)
	if err != nil {
		return nil, &core.GitCheckoutFailedError{Repo: g.repo, GitTree: entry.GitTree, Err: err}
	}
	return &core.PathAndLocation{
		Path:     dir,
		Location: fmt.Sprintf("git+%s@%s", g.repo, entry.GitTree),
	}, nil
}

func (g *Git) GetAllPortVersions(ctx context.Context, name string) ([]core.Version, bool, error) {
	db, err := g.staleVersionDB(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if db == nil || db.Len() == 0 {
		db, err = g.liveVersionDB(ctx, name)
		if err != nil {
			return nil, false, err
		}
	}
	if db == nil {
		return nil, false, nil
	}
	return db.Versions(), true, nil
}

// GetBaselineVersion implements the baseline resolution in §4.4.3: if the
// configured identifier is not itself a commit sha, the registry must
// already be up to date (it cannot self-pin). Otherwise try git_show at
// that sha, then ensure_up_to_date + retry, then an explicit fetch + retry.
func (g *Git) GetBaselineVersion(ctx context.Context, name string) (core.Version, bool, error) {
	b, err := g.loadBaseline(ctx)
	if err != nil {
		return core.Version{}, false, err
	}
	v, ok := b.Get(name)
	return v, ok, nil
}

func (g *Git) loadBaseline(ctx context.Context) (*core.Baseline, error) {
	return g.baseline.Get(func() (*core.Baseline, error) {
		if !versiondb.IsGitCommitSha(g.baselineIdentifier) {
			// A registry can never self-pin: even once we confirm the lock
			// entry is up to date, there is still no usable baseline here.
			entry, err := g.lockEntry(ctx)
			if err != nil {
				return nil, err
			}
			if err := g.lock.EnsureUpToDate(ctx, entry); err != nil {
				return nil, err
			}
			return nil, &core.GitRegistryMustHaveBaselineError{Repo: g.repo, CommitID: entry.CommitID}
		}

		b, err := g.parseBaselineAt(ctx, g.baselineIdentifier)
		if err == nil {
			return b, nil
		}

		entry, lockErr := g.lockEntry(ctx)
		if lockErr != nil {
			return nil, lockErr
		}
		if ensureErr := g.lock.EnsureUpToDate(ctx, entry); ensureErr != nil {
			return nil, ensureErr
		}
		b, err = g.parseBaselineAt(ctx, g.baselineIdentifier)
		if err == nil {
			return b, nil
		}

		if fetchErr := g.git.Fetch(ctx, g.repo, g.baselineIdentifier); fetchErr != nil {
			g.metrics.Count(core.MetricCouldNotFindBaseline)
			return nil, &core.GitFetchFailedError{Repo: g.repo, Reference: g.baselineIdentifier, Err: fetchErr}
		}
		b, err = g.parseBaselineAt(ctx, g.baselineIdentifier)
		if err != nil {
			g.metrics.Count(core.MetricCouldNotFindBaseline)
			return nil, err
		}
		return b, nil
	})
}

func (g *Git) parseBaselineAt(ctx context.Context, commit string) (*core.Baseline, error) {
	data, err := g.git.Show(ctx, g.repo, commit, path.Join("versions", "baseline.json"))
	if err != nil {
		return nil, &core.GitFetchFailedError{Repo: g.repo, Reference: commit, Err: err}
	}
	b, err := baseline.Parse(data, baseline.DefaultKey, fmt.Sprintf("%s@%s", g.repo, commit))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &core.BaselineMissingDefaultError{BaselineKey: baseline.DefaultKey, Origin: fmt.Sprintf("%s@%s", g.repo, commit)}
	}
	return b, nil
}

// AppendAllPortNames appends no names: it delegates to
// TryAppendAllPortNamesNoNetwork, and this registry does not enumerate its
// ports.
func (g *Git) AppendAllPortNames(ctx context.Context, names *[]string) error {
	_, err := g.TryAppendAllPortNamesNoNetwork(ctx, names)
	return err
}

// TryAppendAllPortNamesNoNetwork cannot enumerate offline: a remote git
// registry's full port list requires walking its commit tree.
func (g *Git) TryAppendAllPortNamesNoNetwork(context.Context, *[]string) (bool, error) {
	return false, nil
}

var _ Backend = (*Git)(nil)

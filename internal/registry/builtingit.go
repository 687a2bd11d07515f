package registry

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/BillyONeal/vcpkg-tool/internal/baseline"
	"github.com/BillyONeal/vcpkg-tool/internal/cache"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/versiondb"
)

// BuiltinGit serves ports from the builtin vcpkg tree's own git history: a
// version database under versions/ maps each declared version to a git
// tree, falling back to whatever is currently checked out (via a wrapped
// BuiltinFiles) when the version database has no entry for the requested
// version.
type BuiltinGit struct {
	fs          core.Filesystem
	git         core.GitBackend
	files       *BuiltinFiles
	root        string // builtin vcpkg checkout root
	baselineSha string

	versionDBs  *cache.Cache[string, *core.VersionDB]
	baselineVal cache.CacheSingle[*core.Baseline]
}

// NewBuiltinGit wraps files with version-database-aware git checkout of
// historical versions, pinned to baselineSha's versions/baseline.json.
func NewBuiltinGit(fs core.Filesystem, git core.GitBackend, files *BuiltinFiles, root, baselineSha string) *BuiltinGit {
	return &BuiltinGit{
		fs: fs, git: git, files: files, root: root, baselineSha: baselineSha,
		versionDBs: cache.New[string, *core.VersionDB](),
	}
}

func (g *BuiltinGit) Kind() string { return KindBuiltinGit }

func (g *BuiltinGit) versionDB(ctx context.Context, name string) (*core.VersionDB, error) {
	return g.versionDBs.GetOrLoad(name, func() (*core.VersionDB, error) {
		return versiondb.Load(ctx, g.fs, g.root, name)
	})
}

func (g *BuiltinGit) GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	db, err := g.versionDB(ctx, spec.PortName)
	if err != nil {
		return nil, core.Note(err, "loading port version %s", spec)
	}

	entry, ok := db.Get(spec.Version)
	if !ok {
		return g.files.GetPort(ctx, spec)
	}

	dir, err := g.git.CheckoutTree(ctx, g.root, entry.GitTree)
	if err != nil {
		return nil, &core.GitCheckoutFailedError{Repo: g.root, GitTree: entry.GitTree, Err: err}
	}
	return &core.PathAndLocation{
		Path:     dir,
		Location: fmt.Sprintf("%s@%s", builtinVcpkgLocationURL, entry.GitTree),
	}, nil
}

func (g *BuiltinGit) GetAllPortVersions(ctx context.Context, name string) ([]core.Version, bool, error) {
	db, err := g.versionDB(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if db != nil && db.Len() > 0 {
		return db.Versions(), true, nil
	}
	return g.files.GetAllPortVersions(ctx, name)
}

// baselineCacheDir is where the git-pinned baseline.json gets materialized
// once per commit, so repeated lookups against the same commit never touch
// git again.
func (g *BuiltinGit) baselineCacheDir() string {
	return path.Join(g.root, ".baseline-cache", g.baselineSha)
}

func (g *BuiltinGit) loadBaseline(ctx context.Context) (*core.Baseline, error) {
	return g.baselineVal.Get(func() (*core.Baseline, error) {
		materialized := path.Join(g.baselineCacheDir(), "baseline.json")
		exists, _, err := g.fs.Stat(materialized)
		if err != nil {
			return nil, &core.FilesystemCallError{Op: "stat", Path: materialized, Err: err}
		}

		var data []byte
		if exists {
			data, err = g.fs.ReadFile(ctx, materialized)
			if err != nil {
				return nil, &core.FilesystemCallError{Op: "read", Path: materialized, Err: err}
			}
		} else {
			data, err = g.git.Show(ctx, g.root, g.baselineSha, "versions/baseline.json")
			if err != nil {
				return nil, &core.GitFetchFailedError{Repo: g.root, Reference: g.baselineSha, Err: err}
			}
			// A copy goes to a uuid-named temp path first (it is not
			// removed afterwards); baseline.json itself is written with
			// WriteFileAtomic, so a crash mid-write never leaves a
			// half-written baseline.json for the next process.
			tempPath := path.Join(g.baselineCacheDir(), "baseline."+uuid.NewString()+".tmp")
			if err := g.fs.WriteFileAtomic(ctx, tempPath, data); err != nil {
				return nil, &core.FilesystemCallError{Op: "write", Path: tempPath, Err: err}
			}
			if err := g.fs.WriteFileAtomic(ctx, materialized, data); err != nil {
				return nil, &core.FilesystemCallError{Op: "write", Path: materialized, Err: err}
			}
		}

		b, err := baseline.Parse(data, baseline.DefaultKey, g.root)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, &core.BaselineMissingDefaultError{BaselineKey: baseline.DefaultKey, Origin: g.root}
		}
		return b, nil
	})
}

func (g *BuiltinGit) GetBaselineVersion(ctx context.Context, name string) (core.Version, bool, error) {
	b, err := g.loadBaseline(ctx)
	if err != nil {
		return core.Version{}, false, err
	}
	v, ok := b.Get(name)
	return v, ok, nil
}

func (g *BuiltinGit) AppendAllPortNames(ctx context.Context, names *[]string) error {
	if err := g.files.AppendAllPortNames(ctx, names); err != nil {
		return err
	}
	seen := make(map[string]bool, len(*names))
	for _, n := range *names {
		seen[n] = true
	}
	// The builtin-git version database can name ports no longer checked
	// out on disk; union them in too.
	entries, err := g.fs.ReadDir(path.Join(g.root, "versions"))
	if err != nil {
		return nil // no version database directory at all is not an error
	}
	for _, letterDir := range entries {
		files, err := g.fs.ReadDir(path.Join(g.root, "versions", letterDir))
		if err != nil {
			continue
		}
		for _, f := range files {
			portName := versiondb.PortNameFromFile(f)
			if portName != "" && !seen[portName] {
				seen[portName] = true
				*names = append(*names, portName)
			}
		}
	}
	return nil
}

func (g *BuiltinGit) TryAppendAllPortNamesNoNetwork(ctx context.Context, names *[]string) (bool, error) {
	if err := g.AppendAllPortNames(ctx, names); err != nil {
		return false, err
	}
	return true, nil
}

var _ Backend = (*BuiltinGit)(nil)

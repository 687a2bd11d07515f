package registry

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/baseline"
	"github.com/BillyONeal/vcpkg-tool/internal/cache"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/versiondb"
)

// Filesystem serves ports from a local registry root with its own
// versions/ database and baseline.json, identified by an explicit baseline
// key rather than a git commit.
type Filesystem struct {
	fs                 core.Filesystem
	root               string
	baselineIdentifier string

	dbs      *cache.Cache[string, *core.VersionDB]
	baseline cache.CacheSingle[*core.Baseline]
}

// NewFilesystem returns a registry rooted at root, whose baseline.json is
// keyed by baselineIdentifier.
func NewFilesystem(fs core.Filesystem, root, baselineIdentifier string) *Filesystem {
	return &Filesystem{
		fs: fs, root: root, baselineIdentifier: baselineIdentifier,
		dbs: cache.New[string, *core.VersionDB](),
	}
}

func (f *Filesystem) Kind() string { return KindFilesystem }

func (f *Filesystem) versionDB(ctx context.Context, name string) (*core.VersionDB, error) {
	return f.dbs.GetOrLoad(name, func() (*core.VersionDB, error) {
		return versiondb.Load(ctx, f.fs, f.root, name)
	})
}

func (f *Filesystem) GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	db, err := f.versionDB(ctx, spec.PortName)
	if err != nil {
		return nil, core.Note(err, "loading port version %s", spec)
	}
	if db == nil {
		return nil, nil
	}
	entry, ok := db.Get(spec.Version)
	if !ok {
		return nil, nil
	}
	return &core.PathAndLocation{Path: entry.Path, Location: ""}, nil
}

func (f *Filesystem) GetAllPortVersions(ctx context.Context, name string) ([]core.Version, bool, error) {
	db, err := f.versionDB(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if db == nil {
		return nil, false, nil
	}
	return db.Versions(), true, nil
}

func (f *Filesystem) loadBaseline(ctx context.Context) (*core.Baseline, error) {
	return f.baseline.Get(func() (*core.Baseline, error) {
		path := baselineFilePath(f.root)
		data, err := f.fs.ReadFile(ctx, path)
		if err != nil {
			return nil, &core.FilesystemCallError{Op: "read", Path: path, Err: err}
		}
		b, err := baseline.Parse(data, f.baselineIdentifier, f.root)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, &core.BaselineMissingDefaultError{BaselineKey: f.baselineIdentifier, Origin: f.root}
		}
		return b, nil
	})
}

func (f *Filesystem) GetBaselineVersion(ctx context.Context, name string) (core.Version, bool, error) {
	b, err := f.loadBaseline(ctx)
	if err != nil {
		return core.Version{}, false, err
	}
	v, ok := b.Get(name)
	return v, ok, nil
}

func (f *Filesystem) AppendAllPortNames(_ context.Context, names *[]string) error {
	return f.appendNamesFromVersionsDir(names)
}

func (f *Filesystem) appendNamesFromVersionsDir(names *[]string) error {
	versionsDir := baselineVersionsDir(f.root)
	letterDirs, err := f.fs.ReadDir(versionsDir)
	if err != nil {
		return nil // no versions/ directory at all is not an error
	}
	for _, letter := range letterDirs {
		files, err := f.fs.ReadDir(versionsDir + "/" + letter)
		if err != nil {
			continue
		}
		for _, file := range files {
			if name := versiondb.PortNameFromFile(file); name != "" {
				*names = append(*names, name)
			}
		}
	}
	return nil
}

func (f *Filesystem) TryAppendAllPortNamesNoNetwork(_ context.Context, names *[]string) (bool, error) {
	if err := f.appendNamesFromVersionsDir(names); err != nil {
		return false, err
	}
	return true, nil
}

func baselineFilePath(root string) string {
	return baselineVersionsDir(root) + "/baseline.json"
}

func baselineVersionsDir(root string) string {
	return root + "/versions"
}

var _ Backend = (*Filesystem)(nil)

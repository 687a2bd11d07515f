package registry

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/baseline"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/lockfile"
	"github.com/BillyONeal/vcpkg-tool/internal/versiondb"
)

// NewBuiltin picks the right builtin variant for the configured baseline
// mode: a live git-history registry when baselineSha is non-empty, the
// error stub when the host demanded baseline mode with nothing configured,
// and plain on-disk files otherwise. Mirrors the original's
// make_builtin_registry variant-selection rule so callers never have to
// pick the variant themselves.
func NewBuiltin(fs core.Filesystem, git core.GitBackend, root, portsRoot string, baselineSha string, requireBaseline bool) Backend {
	files := NewBuiltinFiles(fs, nil, portsRoot)
	switch {
	case baselineSha != "":
		return NewBuiltinGit(fs, git, files, root, baselineSha)
	case requireBaseline:
		return BuiltinError{}
	default:
		return files
	}
}

// NewBuiltinWithParser is NewBuiltin but lets the caller supply the recipe
// parser explicitly, for hosts that already have one wired up.
func NewBuiltinWithParser(fs core.Filesystem, parser core.RecipeParser, git core.GitBackend, root, portsRoot, baselineSha string, requireBaseline bool) Backend {
	files := NewBuiltinFiles(fs, parser, portsRoot)
	switch {
	case baselineSha != "":
		return NewBuiltinGit(fs, git, files, root, baselineSha)
	case requireBaseline:
		return BuiltinError{}
	default:
		return files
	}
}

// NewGitRegistry constructs a remote git registry route, resolving its
// lock entry through lock.
func NewGitRegistry(git core.GitBackend, lock *lockfile.LockFile, repo, reference, baselineIdentifier string, metrics core.MetricsCollector) Backend {
	return NewGit(git, lock, repo, reference, baselineIdentifier, metrics)
}

// NewFilesystemRegistry constructs a local filesystem registry route.
func NewFilesystemRegistry(fs core.Filesystem, root, baselineIdentifier string) Backend {
	return NewFilesystem(fs, root, baselineIdentifier)
}

// GetBuiltinVersions reads a single port's version database straight out of
// a builtin registry root, without constructing a full Backend. Hosts that
// only need a quick listing (e.g. a "x-history" diagnostic command) can use
// this instead of wiring up BuiltinGit.
func GetBuiltinVersions(ctx context.Context, fs core.Filesystem, root, portName string) (*core.VersionDB, error) {
	db, err := versiondb.Load(ctx, fs, root, portName)
	if err != nil {
		return nil, core.Note(err, "loading builtin version database for %s", portName)
	}
	return db, nil
}

// GetBuiltinBaseline reads the builtin registry's versions/baseline.json
// straight off disk, without constructing a BuiltinGit and without pinning
// to any particular commit. Returns a BaselineMissingDefaultError if the
// file has no entry for the default baseline key.
func GetBuiltinBaseline(ctx context.Context, fs core.Filesystem, root string) (*core.Baseline, error) {
	path := baselineFilePath(root)
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, &core.FilesystemCallError{Op: "read", Path: path, Err: err}
	}
	b, err := baseline.Parse(data, baseline.DefaultKey, root)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &core.BaselineMissingDefaultError{BaselineKey: baseline.DefaultKey, Origin: root}
	}
	return b, nil
}

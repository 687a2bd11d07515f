// Package registries composes registries, overlays, and a project manifest
// into a single port resolution interface: given a port name (and,
// optionally, an exact version), it answers where on disk the matching
// recipe lives and what its canonical location string is.
//
// A minimal lookup:
//
//	set := registries.NewRegistrySet(nil, registries.NewBuiltin(fs, parser, git, root, portsDir, "", false))
//	paths := registries.NewPathsProvider(
//		registries.NewOverlayProvider(fs, parser, overlayDirs),
//		registries.NewBaselineProvider(set),
//		registries.NewVersionedProvider(set, parser),
//	)
//	rl, err := paths.GetControlFile(ctx, "zlib")
package registries

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/baseline"
	"github.com/BillyONeal/vcpkg-tool/internal/cache"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/gitio"
	"github.com/BillyONeal/vcpkg-tool/internal/lockfile"
	"github.com/BillyONeal/vcpkg-tool/internal/provider"
	"github.com/BillyONeal/vcpkg-tool/internal/registry"
	"github.com/BillyONeal/vcpkg-tool/internal/versiondb"
)

// Re-export the data model types from internal/core.
type (
	Version           = core.Version
	SchemedVersion    = core.SchemedVersion
	VersionSpec       = core.VersionSpec
	VersionScheme     = core.VersionScheme
	Recipe            = core.Recipe
	RecipeAndLocation = core.RecipeAndLocation
	PathAndLocation   = core.PathAndLocation
	VersionDbEntry    = core.VersionDbEntry
	VersionDB         = core.VersionDB
	Baseline          = core.Baseline
	LockEntry         = core.LockEntry
)

// Re-export the external collaborator contracts.
type (
	Filesystem       = core.Filesystem
	GitBackend       = core.GitBackend
	RecipeParser     = core.RecipeParser
	MetricsCollector = core.MetricsCollector
)

// Re-export version schemes.
const (
	SchemeSemver  = core.SchemeSemver
	SchemeRelaxed = core.SchemeRelaxed
	SchemeDate    = core.SchemeDate
	SchemeString  = core.SchemeString
)

// Re-export error kinds.
type (
	PortNotFoundError                = core.PortNotFoundError
	PortNotInBaselineError           = core.PortNotInBaselineError
	NoRegistryForPortError           = core.NoRegistryForPortError
	VersionSpecMismatchError         = core.VersionSpecMismatchError
	UnexpectedPortNameError          = core.UnexpectedPortNameError
	MismatchedOverlayNameError       = core.MismatchedOverlayNameError
	RegistryRequiresBaselineError    = core.RegistryRequiresBaselineError
	GitRegistryMustHaveBaselineError = core.GitRegistryMustHaveBaselineError
	InvalidRegistryPathError         = core.InvalidRegistryPathError
	BaselineMissingDefaultError      = core.BaselineMissingDefaultError
	GitFetchFailedError              = core.GitFetchFailedError
	GitCheckoutFailedError           = core.GitCheckoutFailedError
	VersionsFileParseError           = core.VersionsFileParseError
	BaselineParseError               = core.BaselineParseError
	FilesystemCallError              = core.FilesystemCallError
)

// ErrNotFound is the sentinel every not-found error kind unwraps to.
var ErrNotFound = core.ErrNotFound

// NoopMetrics discards every telemetry count. It is the default used when
// no collector is supplied.
type NoopMetrics = core.NoopMetrics

// Registry backend kinds and the Backend contract they all implement.
type (
	Backend            = registry.Backend
	Route              = registry.Route
	RegistrySet        = registry.Set
	BuiltinFiles       = registry.BuiltinFiles
	BuiltinGit         = registry.BuiltinGit
	BuiltinError       = registry.BuiltinError
	GitRegistry        = registry.Git
	FilesystemRegistry = registry.Filesystem
)

const (
	KindBuiltinFiles = registry.KindBuiltinFiles
	KindBuiltinGit   = registry.KindBuiltinGit
	KindBuiltinError = registry.KindBuiltinError
	KindGit          = registry.KindGit
	KindFilesystem   = registry.KindFilesystem
)

// PatternMatchScore exposes the routing scoring rule used by RegistrySet.
func PatternMatchScore(name, pattern string) int { return registry.PatternMatchScore(name, pattern) }

// NewRegistrySet composes routes (pattern-matched registries; the
// best-scoring match wins, ties going to the earlier route) with an
// optional default registry used when nothing matches.
func NewRegistrySet(routes []Route, deflt Backend) *RegistrySet {
	return registry.NewSet(routes, deflt)
}

// NewBuiltin picks the builtin registry variant appropriate to the
// configured baseline mode.
func NewBuiltin(fs Filesystem, parser RecipeParser, git GitBackend, root, portsRoot, baselineSha string, requireBaseline bool) Backend {
	return registry.NewBuiltinWithParser(fs, parser, git, root, portsRoot, baselineSha, requireBaseline)
}

// NewGitRegistry constructs a remote git registry backend.
func NewGitRegistry(git GitBackend, lock *LockFile, repo, reference, baselineIdentifier string, metrics MetricsCollector) Backend {
	return registry.NewGitRegistry(git, lock, repo, reference, baselineIdentifier, metrics)
}

// NewFilesystemRegistry constructs a local filesystem registry backend.
func NewFilesystemRegistry(fs Filesystem, root, baselineIdentifier string) Backend {
	return registry.NewFilesystemRegistry(fs, root, baselineIdentifier)
}

// GetBuiltinVersions reads a single port's version database straight out of
// a builtin registry root, without constructing a full registry.
func GetBuiltinVersions(ctx context.Context, fs Filesystem, root, portName string) (*VersionDB, error) {
	return registry.GetBuiltinVersions(ctx, fs, root, portName)
}

// GetBuiltinBaseline reads the builtin registry's default baseline straight
// off disk, without pinning to any particular commit.
func GetBuiltinBaseline(ctx context.Context, fs Filesystem, root string) (*Baseline, error) {
	return registry.GetBuiltinBaseline(ctx, fs, root)
}

// LockFile re-exports the lock file cache.
type LockFile = lockfile.LockFile

// NewLockFile returns an empty lock file backed by git.
func NewLockFile(git GitBackend) *LockFile { return lockfile.New(git) }

// LoadLockFile parses a previously-persisted lock file.
func LoadLockFile(git GitBackend, data []byte) (*LockFile, error) { return lockfile.Load(git, data) }

// ResilientGitBackend wraps a GitBackend with retry and circuit-breaking
// against transient network failures.
type ResilientGitBackend = gitio.Resilient

// NewResilientGitBackend wraps backend with the default retry and
// circuit-breaking policy.
func NewResilientGitBackend(backend GitBackend) *ResilientGitBackend { return gitio.New(backend) }

// Provider layer re-exports.
type (
	BaselineProvider  = provider.BaselineProvider
	VersionedProvider = provider.VersionedProvider
	OverlayProvider   = provider.OverlayProvider
	ManifestProvider  = provider.ManifestProvider
	PathsProvider     = provider.PathsProvider
)

func NewBaselineProvider(set *RegistrySet) *BaselineProvider { return provider.NewBaselineProvider(set) }

func NewVersionedProvider(set *RegistrySet, parser RecipeParser) *VersionedProvider {
	return provider.NewVersionedProvider(set, parser)
}

func NewOverlayProvider(fs Filesystem, parser RecipeParser, overlays []string) *OverlayProvider {
	return provider.NewOverlayProvider(fs, parser, overlays)
}

func NewManifestProvider(fs Filesystem, parser RecipeParser, overlays []string, manifestName string, manifestRecipe *RecipeAndLocation) *ManifestProvider {
	return provider.NewManifestProvider(fs, parser, overlays, manifestName, manifestRecipe)
}

func NewPathsProvider(overlay interface {
	GetControlFile(ctx context.Context, name string) (*RecipeAndLocation, error)
	LoadAllControlFiles(ctx context.Context) (map[string]*RecipeAndLocation, error)
}, baselines *BaselineProvider, versioned *VersionedProvider) *PathsProvider {
	return provider.NewPathsProvider(overlay, baselines, versioned)
}

// Version database and baseline file parsing, exposed for hosts that want
// to inspect these files directly (e.g. diagnostic commands) without going
// through a registry.
var (
	ParseVersionsFile   = versiondb.Parse
	LoadVersionsFile    = versiondb.Load
	VersionsFilePath    = versiondb.PathFor
	ResolveRegistryPath = versiondb.ResolveRegistryPath
	IsGitCommitSha      = versiondb.IsGitCommitSha

	ParseBaseline = baseline.Parse
)

// DefaultBaselineKey is the baseline key used when a caller does not name
// one explicitly.
const DefaultBaselineKey = baseline.DefaultKey

// Cache and CacheSingle re-export the lazy, single-flight caches used
// throughout the registry and provider layers, for hosts building their
// own caching layer on top of this package's primitives.
type (
	Cache[K comparable, V any] = cache.Cache[K, V]
	CacheSingle[T any]         = cache.CacheSingle[T]
)

func NewCache[K comparable, V any]() *Cache[K, V] { return cache.New[K, V]() }

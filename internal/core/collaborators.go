package core

import "context"

// Filesystem is the external collaborator for reading and writing the host
// filesystem. Implementations decide how paths resolve; this package only
// ever passes absolute paths it has already validated.
type Filesystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, data []byte) error
	Stat(path string) (exists bool, isDir bool, err error)
	ReadDir(path string) ([]string, error)
}

// GitBackend is the external collaborator for all git operations. Callers
// never invoke git directly; every fetch, tree extraction, and content read
// goes through this interface.
type GitBackend interface {
	// FetchRemoteRegistry resolves reference to a commit sha for repo,
	// fetching over the network as needed.
	FetchRemoteRegistry(ctx context.Context, repo, reference string) (commitSha string, err error)

	// Fetch ensures commitSha is present locally for repo, fetching it if
	// the local clone does not already have it.
	Fetch(ctx context.Context, repo, commitSha string) error

	// Show returns the contents of path at commitSha, or ErrNotFound if the
	// path does not exist at that commit.
	Show(ctx context.Context, repo, commitSha, path string) ([]byte, error)

	// CheckoutTree materializes treeSha onto disk under an implementation-
	// chosen, content-addressed cache directory and returns that directory.
	CheckoutTree(ctx context.Context, repo, treeSha string) (dir string, err error)

	// HeadCommit returns the current HEAD commit of the local clone of repo.
	HeadCommit(ctx context.Context, repo string) (string, error)
}

// RecipeParser is the external collaborator that turns a directory into a
// Recipe. It does not know about registries, overlays, or versions.
type RecipeParser interface {
	Parse(ctx context.Context, dir string) (Recipe, error)
}

// MetricsCollector is the external telemetry sink. Count increments a named
// counter; implementations decide aggregation and export.
type MetricsCollector interface {
	Count(metric string)
}

// NoopMetrics is a MetricsCollector that discards everything. It is the
// default used when a caller does not inject its own collector.
type NoopMetrics struct{}

func (NoopMetrics) Count(string) {}

// Known telemetry counter names, bumped at the points named in the error
// handling design: a version database had no entry at the commit a git
// registry was pinned to, or a baseline could not be located at all.
const (
	MetricNoVersionsAtCommit   = "registries_error_no_versions_at_commit"
	MetricCouldNotFindBaseline = "registries_error_could_not_find_baseline"
)

// Package registry implements the registry backends — builtin-files,
// builtin-git, git, filesystem, builtin-error — and the RegistrySet that
// routes port names to the right one.
package registry

import (
	"context"
	"math"
	"strings"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// Kind strings returned by Backend.Kind for each variant.
const (
	KindBuiltinFiles = "builtin-files"
	KindBuiltinGit   = "builtin-git"
	KindBuiltinError = "builtin-error"
	KindGit          = "git"
	KindFilesystem   = "filesystem"
)

// Backend is the common contract shared by every registry implementation.
// It is a capability object, not a base class: each variant below
// implements it directly rather than inheriting shared behavior.
type Backend interface {
	// Kind identifies the concrete variant for diagnostics.
	Kind() string

	// GetPort resolves one exact (name, version). A nil result with a nil
	// error means this registry has no such version; errors are I/O,
	// parse, or git failures.
	GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error)

	// GetAllPortVersions lists every version this registry knows for name.
	// ok is false when the registry has no entries for name at all.
	GetAllPortVersions(ctx context.Context, name string) (versions []core.Version, ok bool, err error)

	// GetBaselineVersion returns the version name is pinned to under this
	// registry's baseline. ok is false when there is no such pin.
	GetBaselineVersion(ctx context.Context, name string) (version core.Version, ok bool, err error)

	// AppendAllPortNames appends every port name this registry can serve
	// onto names. It may perform network I/O.
	AppendAllPortNames(ctx context.Context, names *[]string) error

	// TryAppendAllPortNamesNoNetwork attempts the same enumeration without
	// touching the network. exhaustive is false when this registry cannot
	// enumerate offline, in which case names is left unmodified.
	TryAppendAllPortNamesNoNetwork(ctx context.Context, names *[]string) (exhaustive bool, err error)
}

// Route is one configured registry: the glob patterns that route to it,
// plus its backend implementation.
type Route struct {
	Patterns []string
	Impl     Backend
}

// PatternMatchScore implements the routing tie-break rule: an exact match
// always outranks a prefix match; among prefix matches, the longer pattern
// wins; no match scores zero.
func PatternMatchScore(name, pattern string) int {
	if strings.HasSuffix(pattern, "*") {
		prefix := pattern[:len(pattern)-1]
		if strings.HasPrefix(name, prefix) {
			return len(pattern)
		}
		return 0
	}
	if name == pattern {
		return math.MaxInt
	}
	return 0
}

// bestScore returns the highest score any of route's patterns gives name.
func bestScore(name string, route Route) int {
	best := 0
	for _, p := range route.Patterns {
		if s := PatternMatchScore(name, p); s > best {
			best = s
		}
	}
	return best
}

package registry

import (
	"context"
	"sort"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// Set routes port names to the registry backend that should serve them,
// composing an ordered list of pattern-routed registries with one optional
// default.
type Set struct {
	routes   []Route
	deflt    Backend
	deflKind string
}

// NewSet builds a Set from an ordered list of routes plus an optional
// default backend (pass nil if there is none).
func NewSet(routes []Route, deflt Backend) *Set {
	kind := ""
	if deflt != nil {
		kind = deflt.Kind()
	}
	return &Set{routes: routes, deflt: deflt, deflKind: kind}
}

// RegistriesForPort returns the backends whose patterns match name, sorted
// by descending score (stable: ties keep configuration order). The default
// registry is never included here — it is only used as the final fallback
// by RegistryForPort.
func (s *Set) RegistriesForPort(name string) []Backend {
	type scored struct {
		score int
		impl  Backend
	}
	var matches []scored
	for _, r := range s.routes {
		if score := bestScore(name, r); score > 0 {
			matches = append(matches, scored{score, r.Impl})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	impls := make([]Backend, len(matches))
	for i, m := range matches {
		impls[i] = m.impl
	}
	return impls
}

// RegistryForPort returns the single backend that should serve name: the
// top match from RegistriesForPort, or the default registry if nothing
// matched.
func (s *Set) RegistryForPort(name string) Backend {
	matches := s.RegistriesForPort(name)
	if len(matches) > 0 {
		return matches[0]
	}
	return s.deflt
}

// BaselineForPort resolves name's pinned version via the registry that
// would serve it. Returns NoRegistryForPortError if nothing matches and
// there is no default registry.
func (s *Set) BaselineForPort(ctx context.Context, name string) (core.Version, error) {
	backend := s.RegistryForPort(name)
	if backend == nil {
		return core.Version{}, &core.NoRegistryForPortError{PortName: name}
	}
	v, ok, err := backend.GetBaselineVersion(ctx, name)
	if err != nil {
		return core.Version{}, err
	}
	if !ok {
		return core.Version{}, &core.PortNotInBaselineError{PortName: name, BaselineKey: "default"}
	}
	return v, nil
}

// GetPort resolves spec via the registry that should serve its port name.
func (s *Set) GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	backend := s.RegistryForPort(spec.PortName)
	if backend == nil {
		return nil, &core.NoRegistryForPortError{PortName: spec.PortName}
	}
	return backend.GetPort(ctx, spec)
}

// GetPortRequired is GetPort but turns a "no such version" miss into a
// PortNotFoundError instead of a nil result, for callers that want a
// query rather than a probe.
func (s *Set) GetPortRequired(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	pl, err := s.GetPort(ctx, spec)
	if err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, &core.PortNotFoundError{PortName: spec.PortName, Version: spec.Version}
	}
	return pl, nil
}

// GetAllPortVersions lists every version known for name via the registry
// that should serve it.
func (s *Set) GetAllPortVersions(ctx context.Context, name string) ([]core.Version, bool, error) {
	backend := s.RegistryForPort(name)
	if backend == nil {
		return nil, false, &core.NoRegistryForPortError{PortName: name}
	}
	return backend.GetAllPortVersions(ctx, name)
}

// GetAllPortVersionsRequired is GetAllPortVersions but turns "no entries"
// into an error.
func (s *Set) GetAllPortVersionsRequired(ctx context.Context, name string) ([]core.Version, error) {
	versions, ok, err := s.GetAllPortVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &core.PortNotFoundError{PortName: name}
	}
	return versions, nil
}

// GetAllReachablePortNames enumerates every port name any configured
// registry can serve, performing network I/O as needed. The result is
// sorted and deduplicated.
func (s *Set) GetAllReachablePortNames(ctx context.Context) ([]string, error) {
	var all []string
	for _, r := range s.routes {
		before := len(all)
		if err := r.Impl.AppendAllPortNames(ctx, &all); err != nil {
			return nil, err
		}
		all = filterBySuffixPatterns(all, before, r.Patterns)
	}
	if s.deflt != nil {
		if err := s.deflt.AppendAllPortNames(ctx, &all); err != nil {
			return nil, err
		}
	}
	return sortDedup(all), nil
}

// GetAllKnownReachablePortNamesNoNetwork is the offline variant: registries
// that cannot enumerate offline contribute their non-wildcard patterns
// verbatim instead of a real listing.
func (s *Set) GetAllKnownReachablePortNamesNoNetwork(ctx context.Context) ([]string, error) {
	var all []string
	for _, r := range s.routes {
		before := len(all)
		exhaustive, err := r.Impl.TryAppendAllPortNamesNoNetwork(ctx, &all)
		if err != nil {
			return nil, err
		}
		if exhaustive {
			all = filterBySuffixPatterns(all, before, r.Patterns)
			continue
		}
		all = all[:before]
		for _, p := range r.Patterns {
			if p != "" && p[len(p)-1] != '*' {
				all = append(all, p)
			}
		}
	}
	if s.deflt != nil {
		if _, err := s.deflt.TryAppendAllPortNamesNoNetwork(ctx, &all); err != nil {
			return nil, err
		}
	}
	return sortDedup(all), nil
}

// IsDefaultBuiltinRegistry reports whether this Set has no custom routes
// and its default registry is the builtin-files backend — i.e. a totally
// vanilla configuration with no overrides.
func (s *Set) IsDefaultBuiltinRegistry() bool {
	return len(s.routes) == 0 && s.deflKind == KindBuiltinFiles
}

// HasModifications reports the opposite of IsDefaultBuiltinRegistry: true
// when any custom registry or a non-default-files default is configured.
func (s *Set) HasModifications() bool {
	return !s.IsDefaultBuiltinRegistry()
}

// filterBySuffixPatterns keeps only the elements of all[from:] that match
// at least one of patterns, leaving all[:from] untouched. Used to discard
// names a registry appended that fall outside the patterns routed to it.
func filterBySuffixPatterns(all []string, from int, patterns []string) []string {
	kept := all[:from]
	for _, name := range all[from:] {
		for _, p := range patterns {
			if PatternMatchScore(name, p) > 0 {
				kept = append(kept, name)
				break
			}
		}
	}
	return kept
}

func sortDedup(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	var prev string
	for i, n := range names {
		if i == 0 || n != prev {
			out = append(out, n)
			prev = n
		}
	}
	return out
}

// Package provider implements the provider layer: the baseline, versioned,
// overlay, manifest, and top-level "paths" providers that compose a
// RegistrySet with overlay directories and the current manifest into a
// single recipe lookup.
package provider

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/cache"
	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/registry"
)

// BaselineProvider caches each port's baseline-pinned version, resolved
// through whichever registry RegistrySet routes it to.
type BaselineProvider struct {
	set   *registry.Set
	cache *cache.Cache[string, core.Version]
}

// NewBaselineProvider wraps set with a lazy per-port baseline cache.
func NewBaselineProvider(set *registry.Set) *BaselineProvider {
	return &BaselineProvider{set: set, cache: cache.New[string, core.Version]()}
}

// GetBaselineVersion returns the pinned version for name, caching both
// successes and failures.
func (p *BaselineProvider) GetBaselineVersion(ctx context.Context, name string) (core.Version, error) {
	return p.cache.GetOrLoad(name, func() (core.Version, error) {
		return p.set.BaselineForPort(ctx, name)
	})
}

// registryHandle is the per-port cache entry VersionedProvider keeps: which
// backend serves this port, resolved once.
type registryHandle struct {
	backend registry.Backend
}

// VersionedProvider caches recipe loads by exact (port, version), verifying
// that whatever a registry hands back actually declares the identity that
// was asked for.
type VersionedProvider struct {
	set           *registry.Set
	byName        *cache.Cache[string, registryHandle]
	byVersionSpec *cache.Cache[core.VersionSpec, *core.RecipeAndLocation]
	parser        core.RecipeParser
}

// NewVersionedProvider wraps set, using parser to turn checked-out
// directories into Recipe values.
func NewVersionedProvider(set *registry.Set, parser core.RecipeParser) *VersionedProvider {
	return &VersionedProvider{
		set:           set,
		byName:        cache.New[string, registryHandle](),
		byVersionSpec: cache.New[core.VersionSpec, *core.RecipeAndLocation](),
		parser:        parser,
	}
}

func (p *VersionedProvider) backendFor(name string) (registryHandle, error) {
	return p.byName.GetOrLoad(name, func() (registryHandle, error) {
		b := p.set.RegistryForPort(name)
		if b == nil {
			return registryHandle{}, &core.NoRegistryForPortError{PortName: name}
		}
		return registryHandle{backend: b}, nil
	})
}

// GetControlFile resolves the exact recipe for spec, erroring if the loaded
// recipe's own identity disagrees with what was requested.
func (p *VersionedProvider) GetControlFile(ctx context.Context, spec core.VersionSpec) (*core.RecipeAndLocation, error) {
	return p.byVersionSpec.GetOrLoad(spec, func() (*core.RecipeAndLocation, error) {
		handle, err := p.backendFor(spec.PortName)
		if err != nil {
			return nil, err
		}

		pl, err := handle.backend.GetPort(ctx, spec)
		if err != nil {
			return nil, core.Note(err, "loading port version %s", spec)
		}
		if pl == nil {
			return nil, &core.PortNotFoundError{PortName: spec.PortName, Version: spec.Version}
		}

		recipe, err := p.parser.Parse(ctx, pl.Path)
		if err != nil {
			return nil, core.Note(err, "loading port version %s", spec)
		}
		if recipe.ToVersionSpec() != spec {
			return nil, &core.VersionSpecMismatchError{Requested: spec, Loaded: recipe.ToVersionSpec()}
		}

		return &core.RecipeAndLocation{Recipe: recipe, ControlPath: pl.Path, LocationString: pl.Location}, nil
	})
}

// LoadAllControlFiles eagerly loads one recipe for every port any registry
// in set can reach (the first version its registry declares), populating
// both caches.
func (p *VersionedProvider) LoadAllControlFiles(ctx context.Context) (map[string]*core.RecipeAndLocation, error) {
	names, err := p.set.GetAllReachablePortNames(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*core.RecipeAndLocation, len(names))
	for _, name := range names {
		versions, ok, err := p.set.GetAllPortVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok || len(versions) == 0 {
			continue
		}
		// The first declared version represents the port in the
		// all-control-files listing, matching the source's first-match-wins
		// convention; the baseline is not consulted here.
		rl, err := p.GetControlFile(ctx, core.VersionSpec{PortName: name, Version: versions[0]})
		if err != nil {
			return nil, err
		}
		result[name] = rl
	}
	return result, nil
}

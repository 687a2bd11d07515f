package provider

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// overlayLayer is the subset of OverlayProvider/ManifestProvider that
// PathsProvider depends on, so it can sit on top of either.
type overlayLayer interface {
	GetControlFile(ctx context.Context, name string) (*core.RecipeAndLocation, error)
	LoadAllControlFiles(ctx context.Context) (map[string]*core.RecipeAndLocation, error)
}

// PathsProvider is the top-level facade: overlay first, then baseline to
// pick a version, then the versioned provider to actually load it.
type PathsProvider struct {
	overlay   overlayLayer
	baselines *BaselineProvider
	versioned *VersionedProvider
}

// NewPathsProvider composes the three layers into one lookup pipeline.
func NewPathsProvider(overlay overlayLayer, baselines *BaselineProvider, versioned *VersionedProvider) *PathsProvider {
	return &PathsProvider{overlay: overlay, baselines: baselines, versioned: versioned}
}

// GetControlFile resolves name: an overlay hit wins outright; an overlay
// miss falls through to baseline + versioned lookup; an overlay error
// propagates without consulting the registry at all.
func (p *PathsProvider) GetControlFile(ctx context.Context, name string) (*core.RecipeAndLocation, error) {
	overlayResult, err := p.overlay.GetControlFile(ctx, name)
	if err != nil {
		return nil, err
	}
	if overlayResult != nil && overlayResult.Recipe != nil {
		return overlayResult, nil
	}

	version, err := p.baselines.GetBaselineVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.versioned.GetControlFile(ctx, core.VersionSpec{PortName: name, Version: version})
}

// LoadAllControlFiles merges overlay entries over the full registry
// listing, with overlay entries winning on a name collision.
func (p *PathsProvider) LoadAllControlFiles(ctx context.Context) (map[string]*core.RecipeAndLocation, error) {
	versionedAll, err := p.versioned.LoadAllControlFiles(ctx)
	if err != nil {
		return nil, err
	}
	overlayAll, err := p.overlay.LoadAllControlFiles(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]*core.RecipeAndLocation, len(versionedAll)+len(overlayAll))
	for name, rl := range versionedAll {
		merged[name] = rl
	}
	for name, rl := range overlayAll {
		merged[name] = rl
	}
	return merged, nil
}

package provider

import (
	"context"
	"path"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// OverlayProvider searches an ordered list of local directories for a port
// by name, taking precedence over any registry. A directory is consulted
// two ways: first as a port in its own right (its basename need not match
// the requested name, but its recipe must), then as a parent containing a
// subdirectory named after the port.
type OverlayProvider struct {
	fs       core.Filesystem
	parser   core.RecipeParser
	overlays []string
}

// NewOverlayProvider returns a provider that searches overlays in order;
// earlier entries take precedence.
func NewOverlayProvider(fs core.Filesystem, parser core.RecipeParser, overlays []string) *OverlayProvider {
	return &OverlayProvider{fs: fs, parser: parser, overlays: overlays}
}

// tryLoadPort attempts to parse dir as a port directory. It returns
// (nil, nil) when dir does not exist, is not a directory, or fails to parse
// as a recipe; only a Stat failure is returned as an error.
func (p *OverlayProvider) tryLoadPort(ctx context.Context, dir string) (core.Recipe, error) {
	exists, isDir, err := p.fs.Stat(dir)
	if err != nil {
		return nil, &core.FilesystemCallError{Op: "stat", Path: dir, Err: err}
	}
	if !exists || !isDir {
		return nil, nil
	}
	recipe, err := p.parser.Parse(ctx, dir)
	if err != nil {
		return nil, nil // not a port directory; not an error at this layer
	}
	return recipe, nil
}

// GetControlFile returns the overlay recipe for name, or the null-recipe
// sentinel (a *RecipeAndLocation with Recipe == nil) if no overlay has it.
func (p *OverlayProvider) GetControlFile(ctx context.Context, name string) (*core.RecipeAndLocation, error) {
	for _, overlay := range p.overlays {
		// First: is the overlay directory itself a port?
		recipe, err := p.tryLoadPort(ctx, overlay)
		if err != nil {
			return nil, err
		}
		if recipe != nil {
			if recipe.Name() == name {
				return &core.RecipeAndLocation{Recipe: recipe, ControlPath: overlay, LocationString: ""}, nil
			}
			continue
		}

		// Otherwise: does it contain a subdirectory named after the port?
		candidate := path.Join(overlay, name)
		recipe, err = p.tryLoadPort(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if recipe == nil {
			continue
		}
		if recipe.Name() != name {
			return nil, &core.MismatchedOverlayNameError{OverlayPath: candidate, Expected: name, Actual: recipe.Name()}
		}
		return &core.RecipeAndLocation{Recipe: recipe, ControlPath: candidate, LocationString: ""}, nil
	}

	return &core.RecipeAndLocation{Recipe: nil}, nil
}

// LoadAllControlFiles enumerates every port reachable through any overlay.
// Overlays are walked in reverse order so that earlier overlays (which win
// on a name collision in GetControlFile) also win here.
func (p *OverlayProvider) LoadAllControlFiles(ctx context.Context) (map[string]*core.RecipeAndLocation, error) {
	result := make(map[string]*core.RecipeAndLocation)
	for i := len(p.overlays) - 1; i >= 0; i-- {
		overlay := p.overlays[i]

		recipe, err := p.tryLoadPort(ctx, overlay)
		if err != nil {
			return nil, err
		}
		if recipe != nil {
			result[recipe.Name()] = &core.RecipeAndLocation{Recipe: recipe, ControlPath: overlay}
			continue
		}

		subdirs, err := p.fs.ReadDir(overlay)
		if err != nil {
			continue
		}
		for _, sub := range subdirs {
			dir := path.Join(overlay, sub)
			recipe, err := p.tryLoadPort(ctx, dir)
			if err != nil {
				return nil, err
			}
			if recipe == nil {
				continue
			}
			if recipe.Name() != sub {
				return nil, &core.MismatchedOverlayNameError{OverlayPath: dir, Expected: sub, Actual: recipe.Name()}
			}
			result[sub] = &core.RecipeAndLocation{Recipe: recipe, ControlPath: dir}
		}
	}
	return result, nil
}

// ManifestProvider is an OverlayProvider that additionally answers for the
// current project's own port with a pre-loaded recipe, bypassing the
// overlay search entirely for that one name.
type ManifestProvider struct {
	*OverlayProvider
	manifestName   string
	manifestRecipe *core.RecipeAndLocation
}

// NewManifestProvider wraps overlays exactly like OverlayProvider, except
// requests for manifestName return manifestRecipe directly.
func NewManifestProvider(fs core.Filesystem, parser core.RecipeParser, overlays []string, manifestName string, manifestRecipe *core.RecipeAndLocation) *ManifestProvider {
	return &ManifestProvider{
		OverlayProvider: NewOverlayProvider(fs, parser, overlays),
		manifestName:    manifestName,
		manifestRecipe:  manifestRecipe,
	}
}

func (p *ManifestProvider) GetControlFile(ctx context.Context, name string) (*core.RecipeAndLocation, error) {
	if name == p.manifestName {
		return p.manifestRecipe, nil
	}
	return p.OverlayProvider.GetControlFile(ctx, name)
}

func (p *ManifestProvider) LoadAllControlFiles(ctx context.Context) (map[string]*core.RecipeAndLocation, error) {
	all, err := p.OverlayProvider.LoadAllControlFiles(ctx)
	if err != nil {
		return nil, err
	}
	all[p.manifestName] = p.manifestRecipe
	return all, nil
}

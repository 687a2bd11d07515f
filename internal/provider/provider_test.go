package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
	"github.com/BillyONeal/vcpkg-tool/internal/fstest"
	"github.com/BillyONeal/vcpkg-tool/internal/registry"
)

type fakeRecipe struct {
	name    string
	version core.Version
}

func (r fakeRecipe) Name() string               { return r.name }
func (r fakeRecipe) Version() core.Version      { return r.version }
func (r fakeRecipe) Scheme() core.VersionScheme { return core.SchemeRelaxed }
func (r fakeRecipe) ToVersionSpec() core.VersionSpec {
	return core.VersionSpec{PortName: r.name, Version: r.version}
}

type fakeParser struct {
	recipes map[string]core.Recipe
}

func (p *fakeParser) Parse(_ context.Context, dir string) (core.Recipe, error) {
	r, ok := p.recipes[dir]
	if !ok {
		return nil, errors.New("no recipe at " + dir)
	}
	return r, nil
}

type fakeBackend struct {
	portDirs map[string]string // "name@version" -> dir
	baseline map[string]core.Version
}

func (b *fakeBackend) Kind() string { return "fake" }
func (b *fakeBackend) GetPort(_ context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	dir, ok := b.portDirs[spec.PortName+"@"+spec.Version.Text]
	if !ok {
		return nil, nil
	}
	return &core.PathAndLocation{Path: dir, Location: "fake+" + spec.PortName}, nil
}
func (b *fakeBackend) GetAllPortVersions(_ context.Context, name string) ([]core.Version, bool, error) {
	v, ok := b.baseline[name]
	if !ok {
		return nil, false, nil
	}
	return []core.Version{v}, true, nil
}
func (b *fakeBackend) GetBaselineVersion(_ context.Context, name string) (core.Version, bool, error) {
	v, ok := b.baseline[name]
	return v, ok, nil
}
func (b *fakeBackend) AppendAllPortNames(_ context.Context, names *[]string) error {
	for name := range b.baseline {
		*names = append(*names, name)
	}
	return nil
}
func (b *fakeBackend) TryAppendAllPortNamesNoNetwork(ctx context.Context, names *[]string) (bool, error) {
	return true, b.AppendAllPortNames(ctx, names)
}

func TestPathsProviderOverlayWinsOverRegistry(t *testing.T) {
	fs := fstest.New()
	fs.PutDir("/overlay/zlib")
	parser := &fakeParser{recipes: map[string]core.Recipe{
		"/overlay/zlib": fakeRecipe{name: "zlib", version: core.Version{Text: "overlay-version"}},
	}}

	backend := &fakeBackend{
		baseline: map[string]core.Version{"zlib": {Text: "1.3.1"}},
		portDirs: map[string]string{"zlib@1.3.1": "/registry/zlib"},
	}
	set := registry.NewSet(nil, backend)

	overlay := NewOverlayProvider(fs, parser, []string{"/overlay"})
	baselines := NewBaselineProvider(set)
	versioned := NewVersionedProvider(set, parser)
	paths := NewPathsProvider(overlay, baselines, versioned)

	rl, err := paths.GetControlFile(context.Background(), "zlib")
	if err != nil {
		t.Fatalf("GetControlFile() error = %v", err)
	}
	if diff := cmp.Diff("overlay-version", rl.Recipe.Version().Text); diff != "" {
		t.Errorf("overlay did not win over registry (-want +got):\n%s", diff)
	}
}

func TestPathsProviderFallsThroughToRegistryOnOverlayMiss(t *testing.T) {
	fs := fstest.New()
	parser := &fakeParser{recipes: map[string]core.Recipe{
		"/registry/zlib": fakeRecipe{name: "zlib", version: core.Version{Text: "1.3.1"}},
	}}

	backend := &fakeBackend{
		baseline: map[string]core.Version{"zlib": {Text: "1.3.1"}},
		portDirs: map[string]string{"zlib@1.3.1": "/registry/zlib"},
	}
	set := registry.NewSet(nil, backend)

	overlay := NewOverlayProvider(fs, parser, nil)
	baselines := NewBaselineProvider(set)
	versioned := NewVersionedProvider(set, parser)
	paths := NewPathsProvider(overlay, baselines, versioned)

	rl, err := paths.GetControlFile(context.Background(), "zlib")
	if err != nil {
		t.Fatalf("GetControlFile() error = %v", err)
	}
	if rl.Recipe.Version().Text != "1.3.1" {
		t.Errorf("Version = %q, want registry version", rl.Recipe.Version().Text)
	}
}

func TestOverlayMismatchedNameErrors(t *testing.T) {
	fs := fstest.New()
	fs.PutDir("/overlay/zlib")
	parser := &fakeParser{recipes: map[string]core.Recipe{
		"/overlay/zlib": fakeRecipe{name: "libz", version: core.Version{Text: "1.0"}},
	}}
	overlay := NewOverlayProvider(fs, parser, []string{"/overlay"})

	_, err := overlay.GetControlFile(context.Background(), "zlib")
	var mismatch *core.MismatchedOverlayNameError
	if !errors.As(err, &mismatch) {
		t.Fatalf("GetControlFile() error = %v, want *MismatchedOverlayNameError", err)
	}
}

func TestManifestProviderOwnPortBeatsOverlay(t *testing.T) {
	fs := fstest.New()
	fs.PutDir("/overlay/zlib")
	parser := &fakeParser{recipes: map[string]core.Recipe{
		"/overlay/zlib": fakeRecipe{name: "zlib", version: core.Version{Text: "overlay-version"}},
	}}
	manifestRecipe := &core.RecipeAndLocation{
		Recipe:      fakeRecipe{name: "zlib", version: core.Version{Text: "manifest-version"}},
		ControlPath: "/project",
	}
	mp := NewManifestProvider(fs, parser, []string{"/overlay"}, "zlib", manifestRecipe)

	rl, err := mp.GetControlFile(context.Background(), "zlib")
	if err != nil {
		t.Fatalf("GetControlFile() error = %v", err)
	}
	if rl.Recipe.Version().Text != "manifest-version" {
		t.Errorf("Version = %q, want manifest-version", rl.Recipe.Version().Text)
	}
}

func TestBaselineProviderMissingPortErrors(t *testing.T) {
	set := registry.NewSet(nil, &fakeBackend{baseline: map[string]core.Version{}})
	bp := NewBaselineProvider(set)

	_, err := bp.GetBaselineVersion(context.Background(), "zlib")
	var notInBaseline *core.PortNotInBaselineError
	if !errors.As(err, &notInBaseline) {
		t.Fatalf("GetBaselineVersion() error = %v, want *PortNotInBaselineError", err)
	}
}

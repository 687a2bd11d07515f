package registry

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

const builtinVcpkgLocationURL = "git+https://github.com/Microsoft/vcpkg"

// BuiltinFiles serves ports straight from a single on-disk ports directory,
// with no version database: whatever is checked out is the only version
// available.
type BuiltinFiles struct {
	fs        core.Filesystem
	parser    core.RecipeParser
	portsRoot string // <builtin-root>/ports
}

// NewBuiltinFiles returns a registry that serves every port found under
// portsRoot (one subdirectory per port).
func NewBuiltinFiles(fs core.Filesystem, parser core.RecipeParser, portsRoot string) *BuiltinFiles {
	return &BuiltinFiles{fs: fs, parser: parser, portsRoot: portsRoot}
}

func (b *BuiltinFiles) Kind() string { return KindBuiltinFiles }

func (b *BuiltinFiles) portDir(name string) string {
	return path.Join(b.portsRoot, name)
}

func (b *BuiltinFiles) GetPort(ctx context.Context, spec core.VersionSpec) (*core.PathAndLocation, error) {
	dir := b.portDir(spec.PortName)
	exists, isDir, err := b.fs.Stat(dir)
	if err != nil {
		return nil, &core.FilesystemCallError{Op: "stat", Path: dir, Err: err}
	}
	if !exists || !isDir {
		return nil, nil
	}

	recipe, err := b.parser.Parse(ctx, dir)
	if err != nil {
		return nil, core.Note(err, "loading port version %s", spec)
	}
	if recipe.Name() != spec.PortName {
		return nil, &core.UnexpectedPortNameError{Expected: spec.PortName, Actual: recipe.Name()}
	}
	if !recipe.Version().Equal(spec.Version) {
		log.Warn().
			Str("port", spec.PortName).
			Str("requested", spec.Version.String()).
			Str("found", recipe.Version().String()).
			Msg("builtin port on disk does not match the requested version")
		return nil, nil
	}

	return &core.PathAndLocation{
		Path:     dir,
		Location: fmt.Sprintf("%s#ports/%s", builtinVcpkgLocationURL, spec.PortName),
	}, nil
}

func (b *BuiltinFiles) GetAllPortVersions(ctx context.Context, name string) ([]core.Version, bool, error) {
	dir := b.portDir(name)
	exists, isDir, err := b.fs.Stat(dir)
	if err != nil {
		return nil, false, &core.FilesystemCallError{Op: "stat", Path: dir, Err: err}
	}
	if !exists || !isDir {
		return nil, false, nil
	}
	recipe, err := b.parser.Parse(ctx, dir)
	if err != nil {
		return nil, false, core.Note(err, "loading port %s", name)
	}
	return []core.Version{recipe.Version()}, true, nil
}

func (b *BuiltinFiles) GetBaselineVersion(ctx context.Context, name string) (core.Version, bool, error) {
	versions, ok, err := b.GetAllPortVersions(ctx, name)
	if err != nil || !ok {
		return core.Version{}, ok, err
	}
	return versions[0], true, nil
}

func (b *BuiltinFiles) AppendAllPortNames(_ context.Context, names *[]string) error {
	entries, err := b.fs.ReadDir(b.portsRoot)
	if err != nil {
		return &core.FilesystemCallError{Op: "readdir", Path: b.portsRoot, Err: err}
	}
	for _, name := range entries {
		if name == ".DS_Store" {
			continue
		}
		*names = append(*names, name)
	}
	return nil
}

func (b *BuiltinFiles) TryAppendAllPortNamesNoNetwork(ctx context.Context, names *[]string) (bool, error) {
	if err := b.AppendAllPortNames(ctx, names); err != nil {
		return false, err
	}
	return true, nil
}

var _ Backend = (*BuiltinFiles)(nil)

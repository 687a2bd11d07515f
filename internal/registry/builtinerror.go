package registry

import (
	"context"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

// BuiltinError is returned when baseline mode was selected but no baseline
// is configured: every operation fails with RegistryRequiresBaselineError
// rather than silently falling back to an unpinned default.
type BuiltinError struct{}

func (BuiltinError) Kind() string { return KindBuiltinError }

func (BuiltinError) GetPort(context.Context, core.VersionSpec) (*core.PathAndLocation, error) {
	return nil, &core.RegistryRequiresBaselineError{}
}

func (BuiltinError) GetAllPortVersions(context.Context, string) ([]core.Version, bool, error) {
	return nil, false, &core.RegistryRequiresBaselineError{}
}

func (BuiltinError) GetBaselineVersion(context.Context, string) (core.Version, bool, error) {
	return core.Version{}, false, &core.RegistryRequiresBaselineError{}
}

func (BuiltinError) AppendAllPortNames(context.Context, *[]string) error {
	return &core.RegistryRequiresBaselineError{}
}

func (BuiltinError) TryAppendAllPortNamesNoNetwork(context.Context, *[]string) (bool, error) {
	return false, &core.RegistryRequiresBaselineError{}
}

var _ Backend = BuiltinError{}

package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel every "not found" error kind unwraps to, so
// callers can test with errors.Is regardless of which concrete kind was
// returned.
var ErrNotFound = errors.New("not found")

// Note wraps err with a "note: while ..." prefix without discarding it —
// errors.Unwrap still reaches the original cause. Used everywhere a deeper
// failure needs additional context as it propagates up.
func Note(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("note: while "+format+": %w", append(args, err)...)
}

// PortNotFoundError is returned when a required lookup for (port, version)
// found no matching entry anywhere.
type PortNotFoundError struct {
	PortName string
	Version  Version
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("port %s@%s not found", e.PortName, e.Version)
}

func (e *PortNotFoundError) Unwrap() error { return ErrNotFound }

// PortNotInBaselineError is returned when a port has no entry under the
// requested baseline key.
type PortNotInBaselineError struct {
	PortName    string
	BaselineKey string
}

func (e *PortNotInBaselineError) Error() string {
	return fmt.Sprintf("port %s has no entry in baseline %q", e.PortName, e.BaselineKey)
}

func (e *PortNotInBaselineError) Unwrap() error { return ErrNotFound }

// NoRegistryForPortError is returned when no registry pattern and no
// default registry matches a port name.
type NoRegistryForPortError struct {
	PortName string
}

func (e *NoRegistryForPortError) Error() string {
	return fmt.Sprintf("no registry configured for port %s", e.PortName)
}

// VersionSpecMismatchError is returned when a loaded recipe's identity
// disagrees with the VersionSpec that was requested.
type VersionSpecMismatchError struct {
	Requested VersionSpec
	Loaded    VersionSpec
}

func (e *VersionSpecMismatchError) Error() string {
	return fmt.Sprintf("requested %s but loaded recipe declares %s", e.Requested, e.Loaded)
}

// UnexpectedPortNameError is returned when a builtin port directory's
// recipe name does not match the directory it was loaded from.
type UnexpectedPortNameError struct {
	Expected string
	Actual   string
}

func (e *UnexpectedPortNameError) Error() string {
	return fmt.Sprintf("expected port name %s but recipe declares %s", e.Expected, e.Actual)
}

// MismatchedOverlayNameError is returned when an overlay directory named
// after a port contains a recipe declaring a different name.
type MismatchedOverlayNameError struct {
	OverlayPath string
	Expected    string
	Actual      string
}

func (e *MismatchedOverlayNameError) Error() string {
	return fmt.Sprintf("overlay %s: expected port name %s but recipe declares %s", e.OverlayPath, e.Expected, e.Actual)
}

// RegistryRequiresBaselineError is returned by the BuiltinError registry
// stub when baseline mode was selected with no baseline configured.
type RegistryRequiresBaselineError struct{}

func (e *RegistryRequiresBaselineError) Error() string {
	return "this vcpkg instance requires a baseline to use the default registry, but no baseline is configured"
}

// GitRegistryMustHaveBaselineError is returned when a remote git registry's
// configured baseline identifier is not itself a commit sha. A registry can
// never self-pin: even after confirming its lock entry is up to date, it
// still has no usable baseline, so this always errors.
type GitRegistryMustHaveBaselineError struct {
	Repo     string
	CommitID string
}

func (e *GitRegistryMustHaveBaselineError) Error() string {
	return fmt.Sprintf("the git registry %s must have a \"baseline\" set to a commit sha (suggested: %s)", e.Repo, e.CommitID)
}

// InvalidRegistryPathError is returned when a filesystem-variant registry
// locator fails the "$/relative/path" validation rules.
type InvalidRegistryPathError struct {
	Path   string
	Reason string
}

func (e *InvalidRegistryPathError) Error() string {
	return fmt.Sprintf("invalid registry path %q: %s", e.Path, e.Reason)
}

// BaselineMissingDefaultError is returned when a baseline file has no entry
// for the requested key.
type BaselineMissingDefaultError struct {
	BaselineKey string
	Origin      string
}

func (e *BaselineMissingDefaultError) Error() string {
	return fmt.Sprintf("%s: baseline is missing key %q", e.Origin, e.BaselineKey)
}

// GitFetchFailedError wraps a failure to fetch or show content from a git
// backend.
type GitFetchFailedError struct {
	Repo      string
	Reference string
	Err       error
}

func (e *GitFetchFailedError) Error() string {
	return fmt.Sprintf("fetching %s @ %s: %v", e.Repo, e.Reference, e.Err)
}

func (e *GitFetchFailedError) Unwrap() error { return e.Err }

// GitCheckoutFailedError wraps a failure to materialize a git tree onto
// disk.
type GitCheckoutFailedError struct {
	Repo    string
	GitTree string
	Err     error
}

func (e *GitCheckoutFailedError) Error() string {
	return fmt.Sprintf("checking out tree %s from %s: %v", e.GitTree, e.Repo, e.Err)
}

func (e *GitCheckoutFailedError) Unwrap() error { return e.Err }

// VersionsFileParseError is returned when a version-database JSON file is
// malformed (a missing file is not an error; that case returns no entries).
type VersionsFileParseError struct {
	Path string
	Err  error
}

func (e *VersionsFileParseError) Error() string {
	return fmt.Sprintf("parsing version database %s: %v", e.Path, e.Err)
}

func (e *VersionsFileParseError) Unwrap() error { return e.Err }

// BaselineParseError is returned when a baseline JSON file is malformed.
type BaselineParseError struct {
	Origin string
	Err    error
}

func (e *BaselineParseError) Error() string {
	return fmt.Sprintf("parsing baseline %s: %v", e.Origin, e.Err)
}

func (e *BaselineParseError) Unwrap() error { return e.Err }

// FilesystemCallError wraps a failure from the Filesystem collaborator.
type FilesystemCallError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemCallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemCallError) Unwrap() error { return e.Err }

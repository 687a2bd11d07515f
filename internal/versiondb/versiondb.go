// Package versiondb parses per-port version database files: the JSON lists
// of declared versions and their locators that back every registry variant
// except the single-port builtin-files registry.
package versiondb

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

var schemeFields = []core.VersionScheme{
	core.SchemeSemver,
	core.SchemeDate,
	core.SchemeString,
	core.SchemeRelaxed,
}

// jsonFile mirrors the on-disk shape: {"versions": [...]}.
type jsonFile struct {
	Versions []json.RawMessage `json:"versions"`
}

// Load reads and parses the version database for one port. A missing file
// is not an error: it returns (nil, nil), meaning "no entries declared for
// this port". A stat or read failure is returned as a
// *core.FilesystemCallError and a parse failure as a
// *core.VersionsFileParseError.
func Load(ctx context.Context, fs core.Filesystem, registryRoot, portName string) (*core.VersionDB, error) {
	filePath := PathFor(registryRoot, portName)

	exists, isDir, err := fs.Stat(filePath)
	if err != nil {
		return nil, &core.FilesystemCallError{Op: "stat", Path: filePath, Err: err}
	}
	if !exists || isDir {
		return nil, nil
	}

	data, err := fs.ReadFile(ctx, filePath)
	if err != nil {
		return nil, &core.FilesystemCallError{Op: "read", Path: filePath, Err: err}
	}

	entries, err := Parse(data, registryRoot)
	if err != nil {
		return nil, &core.VersionsFileParseError{Path: filePath, Err: err}
	}
	return core.NewVersionDB(entries), nil
}

// PathFor returns the conventional location of a port's version database
// file within a registry root: versions/<first-letter>-/<name>.json.
func PathFor(registryRoot, portName string) string {
	letter := "-"
	if len(portName) > 0 {
		letter = string(portName[0])
	}
	return path.Join(registryRoot, "versions", letter+"-", portName+".json")
}

// Parse decodes the raw contents of a version database file. registryRoot
// is used to resolve filesystem-variant "$/..." locators to absolute paths.
func Parse(data []byte, registryRoot string) ([]core.VersionDbEntry, error) {
	var file jsonFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if file.Versions == nil {
		return nil, fmt.Errorf("missing required \"versions\" array")
	}

	entries := make([]core.VersionDbEntry, 0, len(file.Versions))
	for i, raw := range file.Versions {
		entry, err := parseEntry(raw, registryRoot)
		if err != nil {
			return nil, fmt.Errorf("versions[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(raw json.RawMessage, registryRoot string) (core.VersionDbEntry, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return core.VersionDbEntry{}, err
	}

	scheme, versionText, err := extractScheme(m)
	if err != nil {
		return core.VersionDbEntry{}, err
	}

	portVersion := 0
	if raw, ok := m["port-version"]; ok {
		if err := json.Unmarshal(raw, &portVersion); err != nil {
			return core.VersionDbEntry{}, fmt.Errorf("port-version: %w", err)
		}
	}
	version := core.Version{Text: versionText, PortVersion: portVersion}

	if raw, ok := m["git-tree"]; ok {
		var tree string
		if err := json.Unmarshal(raw, &tree); err != nil {
			return core.VersionDbEntry{}, fmt.Errorf("git-tree: %w", err)
		}
		if !isGitTreeSha(tree) {
			return core.VersionDbEntry{}, fmt.Errorf("git-tree %q is not a 40-character lowercase hex sha", tree)
		}
		return core.VersionDbEntry{Kind: core.EntryKindGitTree, Scheme: scheme, Version: version, GitTree: tree}, nil
	}

	if raw, ok := m["path"]; ok {
		var rel string
		if err := json.Unmarshal(raw, &rel); err != nil {
			return core.VersionDbEntry{}, fmt.Errorf("path: %w", err)
		}
		resolved, err := ResolveRegistryPath(registryRoot, rel)
		if err != nil {
			return core.VersionDbEntry{}, err
		}
		return core.VersionDbEntry{Kind: core.EntryKindFilesystem, Scheme: scheme, Version: version, Path: resolved}, nil
	}

	return core.VersionDbEntry{}, fmt.Errorf("entry has neither \"git-tree\" nor \"path\"")
}

func extractScheme(m map[string]json.RawMessage) (core.VersionScheme, string, error) {
	for _, scheme := range schemeFields {
		raw, ok := m[string(scheme)]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", "", fmt.Errorf("%s: %w", scheme, err)
		}
		return scheme, text, nil
	}
	return "", "", fmt.Errorf("entry is missing a version field (one of %v)", schemeFields)
}

// IsGitCommitSha reports whether s is a 40-character lowercase hex sha. It
// serves both tree-ids and commit-ids, which share the same shape.
func IsGitCommitSha(s string) bool {
	return isGitTreeSha(s)
}

// isGitTreeSha reports whether s is a 40-character lowercase hex sha.
func isGitTreeSha(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// PortNameFromFile strips the ".json" suffix from a version database file
// name, returning "" for anything else found under versions/<letter>-/.
func PortNameFromFile(fileName string) string {
	const suffix = ".json"
	if !strings.HasSuffix(fileName, suffix) {
		return ""
	}
	return strings.TrimSuffix(fileName, suffix)
}

// ResolveRegistryPath validates a filesystem-variant locator of the form
// "$/relative/path" and resolves it against registryRoot. It rejects
// backslashes, doubled slashes, and "." or ".." path components.
func ResolveRegistryPath(registryRoot, locator string) (string, error) {
	if !strings.HasPrefix(locator, "$/") {
		return "", &core.InvalidRegistryPathError{Path: locator, Reason: "must start with \"$/\""}
	}
	rel := strings.TrimPrefix(locator, "$/")
	if strings.Contains(rel, "\\") {
		return "", &core.InvalidRegistryPathError{Path: locator, Reason: "must not contain '\\'"}
	}
	if strings.Contains(rel, "//") {
		return "", &core.InvalidRegistryPathError{Path: locator, Reason: "must not contain '//'"}
	}
	for _, part := range strings.Split(rel, "/") {
		if part == "." || part == ".." {
			return "", &core.InvalidRegistryPathError{Path: locator, Reason: "must not contain '.' or '..' components"}
		}
	}
	return path.Join(registryRoot, rel), nil
}

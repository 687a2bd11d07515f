// Package baseline parses baseline files: the JSON documents that pin every
// port in a registry to one version as of a particular commit.
package baseline

import (
	"encoding/json"
	"fmt"

	"github.com/BillyONeal/vcpkg-tool/internal/core"
)

const DefaultKey = "default"

type portEntry struct {
	Scheme      core.VersionScheme
	VersionText string
	PortVersion int
}

// Parse decodes baseline file contents and returns the mapping for key
// (DefaultKey is substituted when key is empty). origin is used only to
// build error messages (a file path or a git location string).
//
// A malformed document is a parse error. A well-formed document simply
// missing the requested key returns (nil, nil) — "no baseline found" is
// not an error, callers decide whether that is fatal.
func Parse(data []byte, key string, origin string) (*core.Baseline, error) {
	if key == "" {
		key = DefaultKey
	}

	var root map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &core.BaselineParseError{Origin: origin, Err: fmt.Errorf("decoding json: %w", err)}
	}

	section, ok := root[key]
	if !ok {
		return nil, nil
	}

	ports := make(map[string]core.Version, len(section))
	for portName, raw := range section {
		entry, err := parsePortEntry(raw)
		if err != nil {
			return nil, &core.BaselineParseError{Origin: origin, Err: fmt.Errorf("port %s: %w", portName, err)}
		}
		ports[portName] = core.Version{Text: entry.VersionText, PortVersion: entry.PortVersion}
	}

	return &core.Baseline{Key: key, Ports: ports}, nil
}

var schemeFields = []core.VersionScheme{
	core.SchemeSemver,
	core.SchemeDate,
	core.SchemeString,
	core.SchemeRelaxed,
}

func parsePortEntry(raw json.RawMessage) (portEntry, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return portEntry{}, err
	}

	for _, scheme := range schemeFields {
		fieldRaw, ok := m[string(scheme)]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(fieldRaw, &text); err != nil {
			return portEntry{}, fmt.Errorf("%s: %w", scheme, err)
		}
		portVersion := 0
		if pvRaw, ok := m["port-version"]; ok {
			if err := json.Unmarshal(pvRaw, &portVersion); err != nil {
				return portEntry{}, fmt.Errorf("port-version: %w", err)
			}
		}
		return portEntry{Scheme: scheme, VersionText: text, PortVersion: portVersion}, nil
	}
	return portEntry{}, fmt.Errorf("missing a version field (one of %v)", schemeFields)
}

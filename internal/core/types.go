// Package core provides the shared data model for port resolution: versions,
// recipes, version databases, baselines, and lock entries.
package core

import "fmt"

// VersionScheme tags the comparison semantics a Version was declared under.
// The core only transports the scheme; it never compares versions itself.
type VersionScheme string

const (
	SchemeSemver  VersionScheme = "version-semver"
	SchemeRelaxed VersionScheme = "version"
	SchemeDate    VersionScheme = "version-date"
	SchemeString  VersionScheme = "version-string"
)

// Version is an opaque, comparable version string. Two versions are equal
// iff their canonical text matches exactly; no semantic comparison is done
// here.
type Version struct {
	Text        string
	PortVersion int
}

func (v Version) String() string {
	if v.PortVersion == 0 {
		return v.Text
	}
	return fmt.Sprintf("%s#%d", v.Text, v.PortVersion)
}

// Equal reports whether two versions have identical text and port-version.
func (v Version) Equal(other Version) bool {
	return v.Text == other.Text && v.PortVersion == other.PortVersion
}

// SchemedVersion pairs a Version with the scheme it was declared under.
type SchemedVersion struct {
	Scheme  VersionScheme
	Version Version
}

// VersionSpec identifies a single (port, version) query.
type VersionSpec struct {
	PortName string
	Version  Version
}

func (s VersionSpec) String() string {
	return fmt.Sprintf("%s@%s", s.PortName, s.Version)
}

// Recipe is the parsed content of a port directory. It is produced by the
// RecipeParser collaborator and is otherwise opaque to this package.
type Recipe interface {
	Name() string
	Version() Version
	Scheme() VersionScheme
	ToVersionSpec() VersionSpec
}

// RecipeAndLocation bundles a loaded recipe with the directory it was loaded
// from and a stable, human-readable location string.
//
// A RecipeAndLocation with a nil Recipe is the overlay "miss" sentinel: it
// means the search completed and found nothing, which is distinct from an
// error.
type RecipeAndLocation struct {
	Recipe         Recipe
	ControlPath    string
	LocationString string
}

// PathAndLocation is the on-disk directory containing a checked-out recipe,
// plus the location string identifying where it came from.
type PathAndLocation struct {
	Path     string
	Location string
}

// VersionDbEntryKind distinguishes the two VersionDbEntry variants.
type VersionDbEntryKind int

const (
	// EntryKindGitTree identifies a port version retrievable by checking out
	// a git tree object.
	EntryKindGitTree VersionDbEntryKind = iota
	// EntryKindFilesystem identifies a port version retrievable from a path
	// relative to a filesystem registry root.
	EntryKindFilesystem
)

// VersionDbEntry is one row of a per-port version database: a declared
// version plus the locator needed to retrieve its recipe. Exactly one of
// GitTree/Path is meaningful, selected by Kind.
type VersionDbEntry struct {
	Kind    VersionDbEntryKind
	Scheme  VersionScheme
	Version Version
	GitTree string // 40-char lowercase hex sha; valid when Kind == EntryKindGitTree
	Path    string // resolved absolute path; valid when Kind == EntryKindFilesystem
}

// VersionDB is the per-port list of known versions and their locators,
// stored as parallel slices so lookups scan in declaration order and return
// the first structurally-equal match — mirroring the teacher's struct-of-
// arrays layout for the same data.
type VersionDB struct {
	versions []Version
	entries  []VersionDbEntry
}

// NewVersionDB builds a VersionDB from entries in source-file order.
func NewVersionDB(entries []VersionDbEntry) *VersionDB {
	db := &VersionDB{
		versions: make([]Version, len(entries)),
		entries:  make([]VersionDbEntry, len(entries)),
	}
	for i, e := range entries {
		db.versions[i] = e.Version
		db.entries[i] = e
	}
	return db
}

// Get returns the first entry whose version equals v, in declaration order.
func (db *VersionDB) Get(v Version) (VersionDbEntry, bool) {
	if db == nil {
		return VersionDbEntry{}, false
	}
	for i, candidate := range db.versions {
		if candidate.Equal(v) {
			return db.entries[i], true
		}
	}
	return VersionDbEntry{}, false
}

// Versions returns all known versions in declaration order.
func (db *VersionDB) Versions() []Version {
	if db == nil {
		return nil
	}
	return db.versions
}

// Len reports how many entries the database holds.
func (db *VersionDB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.versions)
}

// Baseline maps each port name to the version it is pinned to under one
// baseline key (the default key is "default"). Ports is a plain Go map: the
// order of ports in the baseline file is not kept.
type Baseline struct {
	Key   string
	Ports map[string]Version
}

// Get looks up the pinned version for a port under this baseline.
func (b *Baseline) Get(portName string) (Version, bool) {
	if b == nil {
		return Version{}, false
	}
	v, ok := b.Ports[portName]
	return v, ok
}

// LockEntry caches the resolved commit for one (repo, reference) pair.
// Stale entries were loaded from a previous run and have not yet been
// revalidated in this process.
type LockEntry struct {
	Repo      string
	Reference string
	CommitID  string
	Stale     bool
}

// Package catalog resolves the set of JSON schema definitions available for a
// schema-source version. Definitions are parsed from filenames following the
// HTAN convention ("HTAN.Component-v1.0.0-schema.json"); schema content is
// opaque here and validated by the platform.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for catalog construction. Both are fatal to a binding run:
// a run with nothing to bind is almost always a misconfiguration.
var (
	ErrSourceUnavailable = errors.New("schema source unavailable")
	ErrEmptyCatalog      = errors.New("no schema definitions found for version")
)

const schemaSuffix = "-schema.json"

// Definition describes one available schema file.
type Definition struct {
	// FileName is the schema file name, e.g. "HTAN.BulkWESLevel1-v1.0.0-schema.json".
	FileName string
	// Org is the filename prefix before the first dot, e.g. "HTAN".
	Org string
	// Component is the schema component name, e.g. "BulkWESLevel1".
	Component string
	// Version is the schema version with its "v" prefix, e.g. "v1.0.0".
	Version string
	// Path locates the schema content (download URL or local file path).
	Path string
	// RecordBased marks schemas that validate structured records (Clinical
	// sub-types and BiospecimenData) rather than uploaded files.
	RecordBased bool
}

// recordBasedComponents lists the schema components that are record-based.
var recordBasedComponents = map[string]bool{
	"Demographics":    true,
	"Diagnosis":       true,
	"Therapy":         true,
	"FollowUp":        true,
	"MolecularTest":   true,
	"Exposure":        true,
	"FamilyHistory":   true,
	"VitalStatus":     true,
	"BiospecimenData": true,
}

// ParseFileName parses a schema filename into a Definition.
//
// Standard form: {Org}.{Component}-v{X.Y.Z}-schema.json
// Access-requirement form carries an extra segment between component and
// version ({Org}.AccessRequirement-CA000001-v3.0.2-schema.json); the segment
// is folded into the component, matching the registered schema naming.
func ParseFileName(name string) (Definition, error) {
	if !strings.HasSuffix(name, schemaSuffix) {
		return Definition{}, fmt.Errorf("not a schema file: %s", name)
	}
	stem := strings.TrimSuffix(name, schemaSuffix)

	dot := strings.Index(stem, ".")
	if dot <= 0 {
		return Definition{}, fmt.Errorf("schema filename %s missing organization prefix", name)
	}
	org := stem[:dot]
	rest := stem[dot+1:]

	segments := strings.Split(rest, "-")
	if len(segments) < 2 {
		return Definition{}, fmt.Errorf("schema filename %s missing version segment", name)
	}
	version := segments[len(segments)-1]
	if !strings.HasPrefix(version, "v") {
		return Definition{}, fmt.Errorf("schema filename %s has malformed version %q", name, version)
	}
	component := strings.Join(segments[:len(segments)-1], "")

	return Definition{
		FileName:    name,
		Org:         org,
		Component:   component,
		Version:     version,
		RecordBased: recordBasedComponents[component],
	}, nil
}

// Catalog is the immutable set of schema definitions for one source version,
// deduplicated by filename. It is rebuilt once per binding run.
type Catalog struct {
	version     string
	defs        []Definition
	byComponent map[string][]Definition
}

// New builds a catalog from parsed definitions, deduplicating by filename.
// It returns ErrEmptyCatalog when no definitions remain.
func New(version string, defs []Definition) (*Catalog, error) {
	seen := make(map[string]bool, len(defs))
	c := &Catalog{
		version:     version,
		byComponent: make(map[string][]Definition),
	}
	for _, d := range defs {
		if seen[d.FileName] {
			continue
		}
		seen[d.FileName] = true
		c.defs = append(c.defs, d)
		c.byComponent[d.Component] = append(c.byComponent[d.Component], d)
	}
	if len(c.defs) == 0 {
		return nil, fmt.Errorf("%w %s", ErrEmptyCatalog, version)
	}
	sort.Slice(c.defs, func(i, j int) bool { return c.defs[i].FileName < c.defs[j].FileName })
	return c, nil
}

// Version returns the schema-source version the catalog was built for.
func (c *Catalog) Version() string { return c.version }

// Definitions returns all definitions in filename order. The slice is a
// copy; the catalog never changes after construction.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, len(c.defs))
	copy(defs, c.defs)
	return defs
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// ByComponent returns every definition whose component name equals name
// exactly. Substring matching is deliberately unsupported: numerically
// overlapping names (Level1 vs Level3) make containment checks unsafe.
func (c *Catalog) ByComponent(name string) []Definition {
	return c.byComponent[name]
}

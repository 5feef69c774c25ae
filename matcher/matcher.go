// Package matcher resolves provisioned folders to schema definitions. Every
// folder gets exactly one schema or an explicit unmatched record; the matcher
// never guesses between candidates.
package matcher

import (
	"sort"

	"github.com/ncihtan/htan2-project-setup/catalog"
	"github.com/ncihtan/htan2-project-setup/folders"
)

// Reason explains why a folder could not be matched.
type Reason string

const (
	// ReasonNoCandidate means no schema component matched the expected name
	// exactly.
	ReasonNoCandidate Reason = "no exact candidate"
	// ReasonMultipleCandidates means more than one definition shares the
	// expected component name. Binding is refused rather than picking one.
	ReasonMultipleCandidates Reason = "multiple candidates"
)

// tableKey identifies an exception-table entry.
type tableKey struct {
	Module string
	Level  folders.Level
}

// exceptions maps (module, level) pairs to the exact schema component name
// wherever the general naming rule would produce the wrong name. The table is
// consulted before the general rule, which removes the substring-collision
// failure class (BulkWESLevel1 vs BulkWESLevel3) by construction.
var exceptions = map[tableKey]string{
	{"WES", folders.Level1}: "BulkWESLevel1",
	{"WES", folders.Level2}: "BulkWESLevel2",
	{"WES", folders.Level3}: "BulkWESLevel3",

	{"scRNA_seq", folders.Level1}:   "scRNALevel1",
	{"scRNA_seq", folders.Level2}:   "scRNALevel2",
	{"scRNA_seq", folders.Level3_4}: "scRNALevel3_4",

	// The v1.0.0 spatial schemas drop the Transcriptomics qualifier.
	{"SpatialTranscriptomics", folders.Level1}:     "SpatialLevel1",
	{"SpatialTranscriptomics", folders.Level3}:     "SpatialLevel3",
	{"SpatialTranscriptomics", folders.Level4}:     "SpatialLevel4",
	{"SpatialTranscriptomics", folders.LevelPanel}: "SpatialPanel",

	{"Biospecimen", folders.LevelNone}:      "BiospecimenData",
	{"DigitalPathology", folders.LevelNone}: "DigitalPathologyData",
}

// ExpectedComponent returns the schema component name a folder is expected to
// bind. The exception table wins; otherwise the component is the module name
// with a level suffix ("MultiplexMicroscopy" + "Level2"), or the bare module
// name for folders without a level (record-based modules).
func ExpectedComponent(module string, level folders.Level) string {
	if name, ok := exceptions[tableKey{module, level}]; ok {
		return name
	}
	if level == folders.LevelNone {
		return module
	}
	return module + "Level" + string(level)
}

// Pair is one matched folder/schema binding unit.
type Pair struct {
	Ref    folders.Ref
	Schema catalog.Definition
}

// Unmatched records a folder for which no unambiguous schema exists.
type Unmatched struct {
	Key folders.Key
	// Expected is the component name the matcher looked for.
	Expected string
	Reason   Reason
}

// Result is the full matching outcome for one catalog and folder set.
type Result struct {
	Pairs     []Pair
	Unmatched []Unmatched
}

// Match resolves every folder ref against the catalog. The result is pure and
// deterministic: the same catalog and ref set always produce the same output,
// in key order.
func Match(cat *catalog.Catalog, refs []folders.Ref) Result {
	var res Result
	for _, ref := range refs {
		expected := ExpectedComponent(ref.Key.Module, ref.Key.Level)
		candidates := cat.ByComponent(expected)
		switch len(candidates) {
		case 0:
			res.Unmatched = append(res.Unmatched, Unmatched{
				Key:      ref.Key,
				Expected: expected,
				Reason:   ReasonNoCandidate,
			})
		case 1:
			res.Pairs = append(res.Pairs, Pair{Ref: ref, Schema: candidates[0]})
		default:
			res.Unmatched = append(res.Unmatched, Unmatched{
				Key:      ref.Key,
				Expected: expected,
				Reason:   ReasonMultipleCandidates,
			})
		}
	}

	sort.Slice(res.Pairs, func(i, j int) bool {
		return res.Pairs[i].Ref.Key.String() < res.Pairs[j].Ref.Key.String()
	})
	sort.Slice(res.Unmatched, func(i, j int) bool {
		return res.Unmatched[i].Key.String() < res.Unmatched[j].Key.String()
	})
	return res
}

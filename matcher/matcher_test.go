package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncihtan/htan2-project-setup/catalog"
	"github.com/ncihtan/htan2-project-setup/folders"
)

func TestExpectedComponent(t *testing.T) {
	tests := []struct {
		module string
		level  folders.Level
		want   string
	}{
		{"WES", folders.Level1, "BulkWESLevel1"},
		{"WES", folders.Level2, "BulkWESLevel2"},
		{"WES", folders.Level3, "BulkWESLevel3"},
		{"scRNA_seq", folders.Level1, "scRNALevel1"},
		{"scRNA_seq", folders.Level2, "scRNALevel2"},
		{"scRNA_seq", folders.Level3_4, "scRNALevel3_4"},
		{"SpatialTranscriptomics", folders.Level1, "SpatialLevel1"},
		{"SpatialTranscriptomics", folders.Level3, "SpatialLevel3"},
		{"SpatialTranscriptomics", folders.Level4, "SpatialLevel4"},
		{"SpatialTranscriptomics", folders.LevelPanel, "SpatialPanel"},
		{"Biospecimen", folders.LevelNone, "BiospecimenData"},
		{"DigitalPathology", folders.LevelNone, "DigitalPathologyData"},
		// General rule: module name plus level suffix.
		{"MultiplexMicroscopy", folders.Level2, "MultiplexMicroscopyLevel2"},
		{"MultiplexMicroscopy", folders.Level3, "MultiplexMicroscopyLevel3"},
		// Record-based sub-modules bind the bare module name.
		{"Demographics", folders.LevelNone, "Demographics"},
		{"VitalStatus", folders.LevelNone, "VitalStatus"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedComponent(tt.module, tt.level))
		})
	}
}

func buildCatalog(t *testing.T, fileNames ...string) *catalog.Catalog {
	t.Helper()
	var defs []catalog.Definition
	for _, name := range fileNames {
		def, err := catalog.ParseFileName(name)
		require.NoError(t, err)
		defs = append(defs, def)
	}
	cat, err := catalog.New("v1.0.0", defs)
	require.NoError(t, err)
	return cat
}

func ref(module string, level folders.Level, id string) folders.Ref {
	return folders.Ref{
		Key: folders.Key{
			Project: "HTAN2_Test",
			Version: "v8",
			Type:    folders.TypeIngest,
			Module:  module,
			Level:   level,
		},
		ID: id,
	}
}

func TestMatchExactOnly(t *testing.T) {
	// Level1 and Level3 both present: the matcher must not confuse them.
	cat := buildCatalog(t,
		"HTAN.BulkWESLevel1-v1.0.0-schema.json",
		"HTAN.BulkWESLevel3-v1.0.0-schema.json",
	)

	res := Match(cat, []folders.Ref{
		ref("WES", folders.Level1, "syn100"),
		ref("WES", folders.Level3, "syn300"),
	})

	require.Len(t, res.Pairs, 2)
	require.Empty(t, res.Unmatched)
	assert.Equal(t, "BulkWESLevel1", res.Pairs[0].Schema.Component)
	assert.Equal(t, "syn100", res.Pairs[0].Ref.ID)
	assert.Equal(t, "BulkWESLevel3", res.Pairs[1].Schema.Component)
	assert.Equal(t, "syn300", res.Pairs[1].Ref.ID)
}

func TestMatchSpatialSchemaNames(t *testing.T) {
	// Spatial schemas drop the Transcriptomics qualifier of the folder name.
	cat := buildCatalog(t,
		"HTAN.SpatialLevel1-v1.0.0-schema.json",
		"HTAN.SpatialLevel3-v1.0.0-schema.json",
		"HTAN.SpatialLevel4-v1.0.0-schema.json",
		"HTAN.SpatialPanel-v1.0.0-schema.json",
	)

	res := Match(cat, []folders.Ref{
		ref("SpatialTranscriptomics", folders.Level1, "syn1"),
		ref("SpatialTranscriptomics", folders.Level3, "syn3"),
		ref("SpatialTranscriptomics", folders.Level4, "syn4"),
		ref("SpatialTranscriptomics", folders.LevelPanel, "syn5"),
	})

	require.Len(t, res.Pairs, 4)
	require.Empty(t, res.Unmatched)
	want := []string{"SpatialLevel1", "SpatialLevel3", "SpatialLevel4", "SpatialPanel"}
	for i, pair := range res.Pairs {
		assert.Equal(t, want[i], pair.Schema.Component)
	}
}

func TestMatchUnmatchedNoCandidate(t *testing.T) {
	cat := buildCatalog(t, "HTAN.BulkWESLevel1-v1.0.0-schema.json")

	res := Match(cat, []folders.Ref{
		ref("WES", folders.Level2, "syn200"),
	})

	require.Empty(t, res.Pairs)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "BulkWESLevel2", res.Unmatched[0].Expected)
	assert.Equal(t, ReasonNoCandidate, res.Unmatched[0].Reason)
}

func TestMatchUnmatchedMultipleCandidates(t *testing.T) {
	// Two files resolving to the same component: refuse to pick.
	cat := buildCatalog(t,
		"HTAN.Demographics-v1.0.0-schema.json",
		"HTAN.Demographics-v1.1.0-schema.json",
	)

	res := Match(cat, []folders.Ref{
		ref("Demographics", folders.LevelNone, "syn400"),
	})

	require.Empty(t, res.Pairs)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, ReasonMultipleCandidates, res.Unmatched[0].Reason)
}

func TestMatchEveryFolderAccountedFor(t *testing.T) {
	cat := buildCatalog(t,
		"HTAN.BiospecimenData-v1.0.0-schema.json",
		"HTAN.scRNALevel1-v1.0.0-schema.json",
		"HTAN.scRNALevel2-v1.0.0-schema.json",
		"HTAN.scRNALevel3_4-v1.0.0-schema.json",
	)

	refs := []folders.Ref{
		ref("Biospecimen", folders.LevelNone, "syn1"),
		ref("scRNA_seq", folders.Level1, "syn2"),
		ref("scRNA_seq", folders.Level2, "syn3"),
		ref("scRNA_seq", folders.Level3_4, "syn4"),
		ref("SpatialTranscriptomics", folders.LevelPanel, "syn5"),
	}

	res := Match(cat, refs)
	assert.Len(t, res.Pairs, 4)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "SpatialPanel", res.Unmatched[0].Expected)
	assert.Equal(t, len(refs), len(res.Pairs)+len(res.Unmatched))
}

func TestMatchDeterministic(t *testing.T) {
	cat := buildCatalog(t,
		"HTAN.BulkWESLevel1-v1.0.0-schema.json",
		"HTAN.BulkWESLevel2-v1.0.0-schema.json",
		"HTAN.BulkWESLevel3-v1.0.0-schema.json",
	)

	// Reversed input order must still come out sorted by key.
	refs := []folders.Ref{
		ref("WES", folders.Level3, "syn3"),
		ref("WES", folders.Level2, "syn2"),
		ref("WES", folders.Level1, "syn1"),
	}

	first := Match(cat, refs)
	second := Match(cat, refs)
	assert.Equal(t, first, second)

	for i := 1; i < len(first.Pairs); i++ {
		prev := first.Pairs[i-1].Ref.Key.String()
		cur := first.Pairs[i].Ref.Key.String()
		assert.Less(t, prev, cur, fmt.Sprintf("pairs out of order at %d", i))
	}
}

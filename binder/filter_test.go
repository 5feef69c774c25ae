package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ncihtan/htan2-project-setup/folders"
)

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{SchemaGlob: "scRNA*"}.Validate())
	assert.NoError(t, Filter{Types: []folders.Type{folders.TypeIngest}}.Validate())
	assert.Error(t, Filter{SchemaGlob: "["}.Validate())
	assert.Error(t, Filter{Types: []folders.Type{"archive"}}.Validate())
}

func TestFilterSkips(t *testing.T) {
	p := pair("scRNA_seq", folders.Level1, "syn1", "scRNALevel1")

	skip, _ := Filter{}.Skips(p)
	assert.False(t, skip)

	skip, _ = Filter{SchemaGlob: "scRNA*"}.Skips(p)
	assert.False(t, skip)

	skip, reason := Filter{SchemaGlob: "BulkWES*"}.Skips(p)
	assert.True(t, skip)
	assert.Contains(t, reason, "scRNALevel1")

	skip, _ = Filter{Types: []folders.Type{folders.TypeIngest}}.Skips(p)
	assert.False(t, skip)

	skip, reason = Filter{Types: []folders.Type{folders.TypeRelease}}.Skips(p)
	assert.True(t, skip)
	assert.Contains(t, reason, "ingest")
}

func TestFilterGlobIsNotSubstring(t *testing.T) {
	// "Level1" as a bare pattern must not match "scRNALevel1".
	p := pair("scRNA_seq", folders.Level1, "syn1", "scRNALevel1")
	skip, _ := Filter{SchemaGlob: "Level1"}.Skips(p)
	assert.True(t, skip)
}

package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFileviewID(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
		want     string
	}{
		{
			name:     "plain label",
			artifact: "Fileview ID: syn12345678",
			want:     "syn12345678",
		},
		{
			name:     "bold markdown label",
			artifact: "## Files\n\n**Fileview ID**: syn12345678\n",
			want:     "syn12345678",
		},
		{
			name:     "backticked identifier",
			artifact: "Fileview ID: `syn12345678`",
			want:     "syn12345678",
		},
		{
			name:     "case insensitive label",
			artifact: "fileview id syn12345678",
			want:     "syn12345678",
		},
		{
			name:     "bare identifier fallback",
			artifact: "See [the fileview](https://www.synapse.org/#!Synapse:syn87654321) for contents.",
			want:     "syn87654321",
		},
		{
			name:     "short bare identifier is not a fileview",
			artifact: "project syn123 has no fileview",
			want:     "",
		},
		{
			name:     "label beats later bare identifier",
			artifact: "linked from syn99999999\nFileview ID: syn11111111",
			want:     "syn11111111",
		},
		{
			name:     "html anchor",
			artifact: `<html><body><p>Files</p><a href="https://www.synapse.org/#!Synapse:syn55556666">fileview</a></body></html>`,
			want:     "syn55556666",
		},
		{
			name:     "html text without anchor",
			artifact: `<html><body><p>Fileview ID: syn77778888</p></body></html>`,
			want:     "syn77778888",
		},
		{
			name:     "empty artifact",
			artifact: "",
			want:     "",
		},
		{
			name:     "no identifier at all",
			artifact: "This folder holds Level 1 sequencing data.",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFileviewID(tt.artifact))
		})
	}
}

package folders

import (
	"os"
	"path/filepath"
	"testing"
)

const structureFixture = `
v8:
  projects:
    HTAN2_Test:
      synapse_id: syn1
      folders:
        ingest:
          synapse_id: syn2
          modules:
            Clinical:
              synapse_id: syn3
              subfolders:
                Demographics: syn4
                Diagnosis: syn5
            Biospecimen:
              synapse_id: syn6
            WES:
              synapse_id: syn7
              subfolders:
                Level_1: syn8
                Level_2: syn9
                Level_3: syn10
            Imaging:
              synapse_id: syn11
              subfolders:
                DigitalPathology:
                  synapse_id: syn12
                MultiplexMicroscopy:
                  synapse_id: syn13
                  subfolders:
                    Level_2: syn14
                    Level_3: syn15
                    Level_4: syn16
        staging:
          synapse_id: syn20
          modules:
            WES:
              synapse_id: syn21
              subfolders:
                Level_1: syn22
                Level_2: ""
`

func writeStructure(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folder_structure_v8.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadStructure(t *testing.T) {
	structure, err := LoadStructure(writeStructure(t, structureFixture))
	if err != nil {
		t.Fatalf("LoadStructure: %v", err)
	}
	if _, ok := structure["v8"]; !ok {
		t.Fatal("v8 missing from structure")
	}
}

func TestRefsFlattening(t *testing.T) {
	structure, err := LoadStructure(writeStructure(t, structureFixture))
	if err != nil {
		t.Fatal(err)
	}

	refs, err := structure.Refs("v8", TypeIngest)
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}

	byKey := make(map[string]string, len(refs))
	for _, ref := range refs {
		byKey[ref.Key.String()] = ref.ID
	}

	want := map[string]string{
		"HTAN2_Test/v8/ingest/Demographics":                   "syn4",
		"HTAN2_Test/v8/ingest/Diagnosis":                      "syn5",
		"HTAN2_Test/v8/ingest/Biospecimen":                    "syn6",
		"HTAN2_Test/v8/ingest/WES/Level_1":                    "syn8",
		"HTAN2_Test/v8/ingest/WES/Level_2":                    "syn9",
		"HTAN2_Test/v8/ingest/WES/Level_3":                    "syn10",
		"HTAN2_Test/v8/ingest/DigitalPathology":               "syn12",
		"HTAN2_Test/v8/ingest/MultiplexMicroscopy/Level_2":    "syn14",
		"HTAN2_Test/v8/ingest/MultiplexMicroscopy/Level_3":    "syn15",
		"HTAN2_Test/v8/ingest/MultiplexMicroscopy/Level_4":    "syn16",
	}
	if len(byKey) != len(want) {
		t.Errorf("got %d refs, want %d: %v", len(byKey), len(want), byKey)
	}
	for key, id := range want {
		if byKey[key] != id {
			t.Errorf("%s = %q, want %q", key, byKey[key], id)
		}
	}
}

func TestRefsSkipsEmptyIdentifiers(t *testing.T) {
	structure, err := LoadStructure(writeStructure(t, structureFixture))
	if err != nil {
		t.Fatal(err)
	}

	refs, err := structure.Refs("v8", TypeStaging)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d staging refs, want 1 (unprovisioned Level_2 skipped)", len(refs))
	}
	if refs[0].ID != "syn22" {
		t.Errorf("staging ref ID = %q, want syn22", refs[0].ID)
	}
}

func TestRefsSortedDeterministically(t *testing.T) {
	structure, err := LoadStructure(writeStructure(t, structureFixture))
	if err != nil {
		t.Fatal(err)
	}

	refs, err := structure.Refs("v8")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(refs); i++ {
		if refs[i-1].Key.String() >= refs[i].Key.String() {
			t.Errorf("refs out of order: %s before %s", refs[i-1].Key, refs[i].Key)
		}
	}
}

func TestRefsUnknownVersion(t *testing.T) {
	structure, err := LoadStructure(writeStructure(t, structureFixture))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := structure.Refs("v99"); err == nil {
		t.Error("Refs should fail for an unknown version")
	}
}

func TestRefsInvalidFolderType(t *testing.T) {
	fixture := `
v8:
  projects:
    HTAN2_Test:
      synapse_id: syn1
      folders:
        archive:
          synapse_id: syn2
`
	structure, err := LoadStructure(writeStructure(t, fixture))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := structure.Refs("v8"); err == nil {
		t.Error("Refs should reject an unknown folder type")
	}
}

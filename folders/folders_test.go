package folders

import "testing"

func TestParseType(t *testing.T) {
	for _, valid := range []string{"ingest", "staging", "release"} {
		ft, err := ParseType(valid)
		if err != nil {
			t.Errorf("ParseType(%q) returned error: %v", valid, err)
		}
		if string(ft) != valid {
			t.Errorf("ParseType(%q) = %q", valid, ft)
		}
	}

	for _, invalid := range []string{"", "Ingest", "archive", "v8_ingest"} {
		if _, err := ParseType(invalid); err == nil {
			t.Errorf("ParseType(%q) should fail", invalid)
		}
	}
}

func TestLevelRoundTrip(t *testing.T) {
	tests := []struct {
		folder string
		level  Level
	}{
		{"Level_1", Level1},
		{"Level_2", Level2},
		{"Level_3", Level3},
		{"Level_3_4", Level3_4},
		{"Level_4", Level4},
		{"Panel", LevelPanel},
	}

	for _, tt := range tests {
		if got := LevelFromFolder(tt.folder); got != tt.level {
			t.Errorf("LevelFromFolder(%q) = %q, want %q", tt.folder, got, tt.level)
		}
		if got := tt.level.FolderName(); got != tt.folder {
			t.Errorf("%q.FolderName() = %q, want %q", tt.level, got, tt.folder)
		}
	}

	if LevelNone.FolderName() != "" {
		t.Errorf("LevelNone.FolderName() = %q, want empty", LevelNone.FolderName())
	}
}

func TestKeyString(t *testing.T) {
	key := Key{Project: "HTAN2_Ovarian", Version: "v8", Type: TypeIngest, Module: "WES", Level: Level1}
	if got := key.String(); got != "HTAN2_Ovarian/v8/ingest/WES/Level_1" {
		t.Errorf("Key.String() = %q", got)
	}

	noLevel := Key{Project: "HTAN2_Ovarian", Version: "v8", Type: TypeStaging, Module: "Biospecimen"}
	if got := noLevel.String(); got != "HTAN2_Ovarian/v8/staging/Biospecimen" {
		t.Errorf("Key.String() = %q", got)
	}
}

func TestBatchKey(t *testing.T) {
	if got := BatchKey("v8", TypeIngest); got != "v8_ingest" {
		t.Errorf("BatchKey = %q, want v8_ingest", got)
	}
}

func TestIsRecordBased(t *testing.T) {
	for _, module := range []string{"Demographics", "Diagnosis", "VitalStatus", "Biospecimen"} {
		if !IsRecordBased(module) {
			t.Errorf("IsRecordBased(%q) should be true", module)
		}
	}
	for _, module := range []string{"WES", "scRNA_seq", "DigitalPathology", "Clinical"} {
		if IsRecordBased(module) {
			t.Errorf("IsRecordBased(%q) should be false", module)
		}
	}
}

func TestProfile(t *testing.T) {
	for _, ft := range Types {
		profile := ft.Profile()
		if profile["dcc-admins"] != AccessAdmin {
			t.Errorf("%s: dcc-admins should be admin", ft)
		}
	}

	if TypeIngest.Profile()["contributors"] != AccessEdit {
		t.Error("ingest contributors should have edit access")
	}
	if TypeStaging.Profile()["contributors"] != AccessModifyOnly {
		t.Error("staging contributors should have modify-only access")
	}
	if TypeRelease.Profile()["contributors"] != AccessViewOnly {
		t.Error("release contributors should have view-only access")
	}
}

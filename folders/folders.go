// Package folders defines the HTAN2 data-commons folder taxonomy: lifecycle
// folder types, module/level tables, and the keys that identify provisioned
// folders across a version.
package folders

import (
	"fmt"
	"strings"
)

// Type is a lifecycle stage of the data-submission folder tree.
type Type string

const (
	TypeIngest  Type = "ingest"
	TypeStaging Type = "staging"
	TypeRelease Type = "release"
)

// Types lists all valid folder types in lifecycle order.
var Types = []Type{TypeIngest, TypeStaging, TypeRelease}

// ParseType validates a folder type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeIngest, TypeStaging, TypeRelease:
		return Type(s), nil
	}
	return "", fmt.Errorf("invalid folder type %q (must be one of ingest, staging, release)", s)
}

// AccessLevel describes a team's access to a folder of a given type.
type AccessLevel string

const (
	AccessAdmin      AccessLevel = "admin"
	AccessEdit       AccessLevel = "edit"
	AccessModifyOnly AccessLevel = "modify-only"
	AccessViewOnly   AccessLevel = "view-only"
)

// Profile returns the fixed permission profile for a folder type, keyed by
// principal role. Permissions are applied by the provisioning collaborator
// before binding; the profile is recorded here so callers can report the
// expected state, not to enforce it.
func (t Type) Profile() map[string]AccessLevel {
	switch t {
	case TypeIngest:
		return map[string]AccessLevel{
			"dcc-admins":   AccessAdmin,
			"dcc":          AccessEdit,
			"act":          AccessEdit,
			"contributors": AccessEdit,
		}
	case TypeStaging:
		return map[string]AccessLevel{
			"dcc-admins":   AccessAdmin,
			"dcc":          AccessEdit,
			"act":          AccessEdit,
			"contributors": AccessModifyOnly,
		}
	case TypeRelease:
		return map[string]AccessLevel{
			"dcc-admins":   AccessAdmin,
			"dcc":          AccessViewOnly,
			"act":          AccessViewOnly,
			"contributors": AccessViewOnly,
		}
	}
	return nil
}

// Level identifies a processing tier within a file-based module.
// The empty level means the module binds at its own folder (record-based
// modules and DigitalPathology).
type Level string

const (
	LevelNone  Level = ""
	Level1     Level = "1"
	Level2     Level = "2"
	Level3     Level = "3"
	Level3_4   Level = "3_4"
	Level4     Level = "4"
	LevelPanel Level = "panel"
)

// LevelFromFolder converts a provisioned folder name (Level_1, Level_3_4,
// Panel) into a Level.
func LevelFromFolder(name string) Level {
	if name == "Panel" {
		return LevelPanel
	}
	return Level(strings.TrimPrefix(name, "Level_"))
}

// FolderName renders the level as the provisioned folder name.
func (l Level) FolderName() string {
	switch l {
	case LevelNone:
		return ""
	case LevelPanel:
		return "Panel"
	}
	return "Level_" + string(l)
}

// RecordBasedModules maps record-based parent modules to their sub-module
// folders. Record-based schemas validate structured records and bind to a
// single folder with no level descent.
var RecordBasedModules = map[string][]string{
	"Clinical": {
		"Demographics",
		"Diagnosis",
		"Therapy",
		"FollowUp",
		"MolecularTest",
		"Exposure",
		"FamilyHistory",
		"VitalStatus",
	},
	"Biospecimen": {},
}

// FileBasedModules maps file-based assay modules to their level folders.
var FileBasedModules = map[string][]string{
	"WES":                    {"Level_1", "Level_2", "Level_3"},
	"scRNA_seq":              {"Level_1", "Level_2", "Level_3_4"},
	"Imaging":                {"DigitalPathology", "MultiplexMicroscopy"},
	"SpatialTranscriptomics": {"Level_1", "Level_3", "Level_4", "Panel"},
}

// ImagingSubfolders maps Imaging sub-modules to their level folders.
// DigitalPathology binds at its own folder; MultiplexMicroscopy has levels.
var ImagingSubfolders = map[string][]string{
	"DigitalPathology":    {},
	"MultiplexMicroscopy": {"Level_2", "Level_3", "Level_4"},
}

// recordBasedSet is the flat set of modules that bind record-based schemas.
var recordBasedSet = func() map[string]bool {
	set := map[string]bool{"Biospecimen": true}
	for _, sub := range RecordBasedModules["Clinical"] {
		set[sub] = true
	}
	return set
}()

// IsRecordBased reports whether a module binds a record-based schema.
func IsRecordBased(module string) bool {
	return recordBasedSet[module]
}

// Key identifies a single bindable folder within a version. Keys are stable
// for the lifetime of a version.
type Key struct {
	Project string
	Version string
	Type    Type
	Module  string
	Level   Level
}

// String renders the key in log-friendly form, e.g.
// "HTAN2_Ovarian/v8/ingest/WES/Level_1".
func (k Key) String() string {
	parts := []string{k.Project, k.Version, string(k.Type), k.Module}
	if k.Level != LevelNone {
		parts = append(parts, k.Level.FolderName())
	}
	return strings.Join(parts, "/")
}

// BatchKey returns the (version, folder-type) batch identifier used as the
// top-level key of the cumulative binding configuration, e.g. "v8_ingest".
func BatchKey(version string, t Type) string {
	return version + "_" + string(t)
}

// Ref pairs a Key with the platform folder identifier assigned by the
// provisioning collaborator. Refs are immutable once created.
type Ref struct {
	Key Key
	ID  string
}

package folders

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Structure mirrors the folder_structure_{version}.yml document produced by
// the folder-provisioning collaborator. It is read-only input here: the tree
// of platform identifiers for every provisioned folder in a version.
type Structure map[string]VersionStructure

// VersionStructure holds the provisioned projects for one version.
type VersionStructure struct {
	Projects map[string]ProjectStructure `yaml:"projects"`
}

// ProjectStructure holds one project's lifecycle folders.
type ProjectStructure struct {
	SynapseID string                     `yaml:"synapse_id"`
	Folders   map[string]FolderStructure `yaml:"folders"`
}

// FolderStructure holds one lifecycle folder (ingest/staging/release) and its
// module folders.
type FolderStructure struct {
	SynapseID string                     `yaml:"synapse_id"`
	Modules   map[string]ModuleStructure `yaml:"modules"`
}

// ModuleStructure holds a module folder and its subfolders. Subfolder values
// are either a bare platform identifier (level folders) or a nested structure
// (Imaging sub-modules that carry their own levels).
type ModuleStructure struct {
	SynapseID  string               `yaml:"synapse_id"`
	Subfolders map[string]Subfolder `yaml:"subfolders"`
}

// Subfolder is a union of "plain identifier" and "nested module".
type Subfolder struct {
	SynapseID  string
	Subfolders map[string]Subfolder
}

// UnmarshalYAML accepts both a scalar identifier and a nested mapping.
func (s *Subfolder) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.SynapseID)
	case yaml.MappingNode:
		var nested struct {
			SynapseID  string               `yaml:"synapse_id"`
			Subfolders map[string]Subfolder `yaml:"subfolders"`
		}
		if err := node.Decode(&nested); err != nil {
			return err
		}
		s.SynapseID = nested.SynapseID
		s.Subfolders = nested.Subfolders
		return nil
	}
	return fmt.Errorf("subfolder entry must be an identifier or a mapping, got %v", node.Kind)
}

// LoadStructure reads a folder structure document from disk.
func LoadStructure(path string) (Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read folder structure: %w", err)
	}
	var doc Structure
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse folder structure: %w", err)
	}
	return doc, nil
}

// Refs flattens the structure for one version into the bindable folder set.
// Only folders that take a schema binding are emitted: Clinical sub-module
// folders, the Biospecimen folder, file-based level folders, DigitalPathology,
// and MultiplexMicroscopy level folders. Module parent folders themselves are
// organizational and never bound.
func (s Structure) Refs(version string, types ...Type) ([]Ref, error) {
	ver, ok := s[version]
	if !ok {
		return nil, fmt.Errorf("version %s not present in folder structure", version)
	}

	want := make(map[Type]bool)
	if len(types) == 0 {
		for _, t := range Types {
			want[t] = true
		}
	}
	for _, t := range types {
		want[t] = true
	}

	var refs []Ref
	for project, proj := range ver.Projects {
		for name, folder := range proj.Folders {
			ftype, err := ParseType(name)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", project, err)
			}
			if !want[ftype] {
				continue
			}
			refs = append(refs, flattenModules(project, version, ftype, folder)...)
		}
	}

	// Deterministic order keeps plans and reports diffable.
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Key.String() < refs[j].Key.String()
	})
	return refs, nil
}

func flattenModules(project, version string, ftype Type, folder FolderStructure) []Ref {
	var refs []Ref
	add := func(module string, level Level, id string) {
		if id == "" {
			return
		}
		refs = append(refs, Ref{
			Key: Key{Project: project, Version: version, Type: ftype, Module: module, Level: level},
			ID:  id,
		})
	}

	for module, ms := range folder.Modules {
		switch module {
		case "Clinical":
			for sub, sf := range ms.Subfolders {
				add(sub, LevelNone, sf.SynapseID)
			}
		case "Biospecimen":
			add("Biospecimen", LevelNone, ms.SynapseID)
		case "Imaging":
			for sub, sf := range ms.Subfolders {
				if len(ImagingSubfolders[sub]) == 0 {
					add(sub, LevelNone, sf.SynapseID)
					continue
				}
				for levelName, lf := range sf.Subfolders {
					add(sub, LevelFromFolder(levelName), lf.SynapseID)
				}
			}
		default:
			for levelName, sf := range ms.Subfolders {
				add(module, LevelFromFolder(levelName), sf.SynapseID)
			}
		}
	}
	return refs
}

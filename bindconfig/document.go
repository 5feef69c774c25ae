// Package bindconfig maintains the cumulative schema-binding configuration:
// a hand-editable YAML document mapping "{version}_{folder-type}" keys to
// ordered lists of binding entries. The document is the durable system of
// record for downstream query and reporting tooling, so merges are scoped,
// unknown keys round-trip unchanged, and writes are atomic.
package bindconfig

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ncihtan/htan2-project-setup/binder"
	"github.com/ncihtan/htan2-project-setup/folders"
)

// ErrMalformedConfig means the existing document cannot be parsed into the
// expected shape. Fatal: the run aborts before any write.
var ErrMalformedConfig = errors.New("malformed binding configuration")

// Entry is one persisted binding. The shape is fixed; downstream tooling
// depends on these field names.
type Entry struct {
	Module     string `yaml:"module"`
	Level      string `yaml:"level,omitempty"`
	FolderID   string `yaml:"folder_id"`
	SchemaName string `yaml:"schema_name"`
	FileviewID string `yaml:"fileview_id,omitempty"`
}

// Document is a parsed binding configuration. It operates on the yaml node
// tree directly so unknown top-level keys, key order, and comments survive a
// load/merge/save cycle.
type Document struct {
	root *yaml.Node
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		},
	}}
}

// Parse reads a binding configuration from raw YAML.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return NewDocument(), nil
	}
	if root.Kind != yaml.DocumentNode || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformedConfig)
	}
	return &Document{root: &root}, nil
}

func (d *Document) mapping() *yaml.Node {
	return d.root.Content[0]
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	m := d.mapping()
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// valueNode returns the value node for a key, or nil.
func (d *Document) valueNode(key string) *yaml.Node {
	m := d.mapping()
	for i := 0; i < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Entries decodes the binding entries for a batch key. A missing key yields
// an empty list; a key whose value is not an entry list is malformed.
func (d *Document) Entries(key string) ([]Entry, error) {
	node := d.valueNode(key)
	if node == nil {
		return nil, nil
	}
	var entries []Entry
	if err := node.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrMalformedConfig, key, err)
	}
	return entries, nil
}

// SetEntries replaces the entire entry list for a batch key, leaving every
// other key untouched. New keys are appended so existing document order stays
// diffable.
func (d *Document) SetEntries(key string, entries []Entry) error {
	var value yaml.Node
	if err := value.Encode(entries); err != nil {
		return fmt.Errorf("encode entries for %s: %w", key, err)
	}

	m := d.mapping()
	for i := 0; i < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &value
			return nil
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&value,
	)
	return nil
}

// MergeEntries folds updates into the entry list for a batch key: updates for
// an already-listed folder id replace that entry, new folder ids append, and
// entries the update set does not mention are kept. A binding is only ever
// superseded by a later binding for the same folder, never dropped.
func (d *Document) MergeEntries(key string, updates []Entry) error {
	existing, err := d.Entries(key)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, entry := range existing {
		index[entry.FolderID] = i
	}
	for _, update := range updates {
		if i, ok := index[update.FolderID]; ok {
			existing[i] = update
			continue
		}
		index[update.FolderID] = len(existing)
		existing = append(existing, update)
	}
	return d.SetEntries(key, existing)
}

// Marshal renders the document back to YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d.root)
}

// EntriesFromBindings converts bound bindings into config entries grouped by
// batch key, deduplicated by folder id (the latest binding for a folder wins).
// Failed and skipped bindings are reported in the run report, never persisted
// here.
func EntriesFromBindings(bindings []binder.Binding) map[string][]Entry {
	byKey := make(map[string][]Entry)
	index := make(map[string]map[string]int)

	for _, b := range bindings {
		if b.Status != binder.StatusBound {
			continue
		}
		key := folders.BatchKey(b.Key.Version, b.Key.Type)
		entry := Entry{
			Module:     b.Key.Module,
			Level:      string(b.Key.Level),
			FolderID:   b.FolderID,
			SchemaName: b.SchemaName,
			FileviewID: b.FileviewID,
		}
		if index[key] == nil {
			index[key] = make(map[string]int)
		}
		if i, ok := index[key][b.FolderID]; ok {
			byKey[key][i] = entry
			continue
		}
		index[key][b.FolderID] = len(byKey[key])
		byKey[key] = append(byKey[key], entry)
	}
	return byKey
}

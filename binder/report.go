package binder

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ncihtan/htan2-project-setup/folders"
)

// ReportEntry is one binding in a run report, flattened for hand inspection
// and for re-targeting a narrower re-run.
type ReportEntry struct {
	Schema     string `json:"schema"`
	SchemaFile string `json:"schema_file,omitempty"`
	Project    string `json:"project"`
	Version    string `json:"version"`
	FolderType string `json:"folder_type"`
	Module     string `json:"module"`
	Level      string `json:"level,omitempty"`
	SynapseID  string `json:"synapse_id"`
	Error      string `json:"error,omitempty"`
	FileviewID string `json:"fileview_id,omitempty"`
}

// Key reconstructs the folder key of the entry.
func (e ReportEntry) Key() folders.Key {
	return folders.Key{
		Project: e.Project,
		Version: e.Version,
		Type:    folders.Type(e.FolderType),
		Module:  e.Module,
		Level:   folders.Level(e.Level),
	}
}

// Report is the persisted result of one binding pass. Failed entries feed the
// retry command.
type Report struct {
	RunID      string        `json:"run_id"`
	Started    time.Time     `json:"started"`
	Finished   time.Time     `json:"finished"`
	Successful []ReportEntry `json:"successful"`
	Failed     []ReportEntry `json:"failed"`
	Skipped    []ReportEntry `json:"skipped,omitempty"`
}

// NewReport builds a report from an executor outcome.
func NewReport(outcome *Outcome) *Report {
	r := &Report{
		RunID:    outcome.RunID,
		Started:  outcome.Started,
		Finished: outcome.Finished,
	}
	for _, b := range outcome.Bindings {
		entry := ReportEntry{
			Schema:     b.SchemaName,
			SchemaFile: b.SchemaFile,
			Project:    b.Key.Project,
			Version:    b.Key.Version,
			FolderType: string(b.Key.Type),
			Module:     b.Key.Module,
			Level:      string(b.Key.Level),
			SynapseID:  b.FolderID,
			Error:      b.Error,
			FileviewID: b.FileviewID,
		}
		switch b.Status {
		case StatusBound:
			r.Successful = append(r.Successful, entry)
		case StatusFailed:
			r.Failed = append(r.Failed, entry)
		case StatusSkipped:
			r.Skipped = append(r.Skipped, entry)
		}
	}
	return r
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadFailed loads the failed entries from one or more run reports,
// deduplicated by (schema, project, folder id). Later duplicates are dropped:
// re-running the same binding twice buys nothing.
func LoadFailed(paths ...string) ([]ReportEntry, error) {
	type dedupeKey struct {
		schema, project, synapseID string
	}
	seen := make(map[dedupeKey]bool)
	var failed []ReportEntry

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", path, err)
		}
		var r Report
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse report %s: %w", path, err)
		}
		for _, entry := range r.Failed {
			k := dedupeKey{entry.Schema, entry.Project, entry.SynapseID}
			if seen[k] {
				continue
			}
			seen[k] = true
			failed = append(failed, entry)
		}
	}
	return failed, nil
}

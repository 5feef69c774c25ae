package binder

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ncihtan/htan2-project-setup/folders"
	"github.com/ncihtan/htan2-project-setup/matcher"
)

// Filter narrows a binding run to a subset of matched pairs. Filtered-out
// pairs are recorded as skipped, not dropped, so re-runs stay auditable.
type Filter struct {
	// SchemaGlob is a glob pattern matched against the schema component name
	// (e.g. "scRNA*", "BulkWESLevel[13]"). Empty matches everything.
	SchemaGlob string
	// Types restricts the run to the listed folder types. Empty matches all.
	Types []folders.Type
}

// Validate checks the glob pattern up front so a bad filter fails the run
// before any binds are issued.
func (f Filter) Validate() error {
	if f.SchemaGlob != "" && !doublestar.ValidatePattern(f.SchemaGlob) {
		return fmt.Errorf("invalid schema filter pattern %q", f.SchemaGlob)
	}
	for _, t := range f.Types {
		if _, err := folders.ParseType(string(t)); err != nil {
			return err
		}
	}
	return nil
}

// Skips reports whether the pair is excluded, with a human-readable reason.
func (f Filter) Skips(pair matcher.Pair) (bool, string) {
	if f.SchemaGlob != "" {
		ok, err := doublestar.Match(f.SchemaGlob, pair.Schema.Component)
		if err != nil || !ok {
			return true, fmt.Sprintf("schema %s excluded by filter %q", pair.Schema.Component, f.SchemaGlob)
		}
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if pair.Ref.Key.Type == t {
				found = true
				break
			}
		}
		if !found {
			return true, fmt.Sprintf("folder type %s excluded by filter", pair.Ref.Key.Type)
		}
	}
	return false, ""
}

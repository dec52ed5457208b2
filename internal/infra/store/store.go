// Package store persists the association table as a JSON file.
package store

import (
	"encoding/json"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tagbox/internal/domain/association"
)

// Load reads the association table from the given path.
// A missing file yields an empty table with no error. A file that cannot be
// read or parsed yields an empty table and the underlying error, so callers
// can log it and continue with an empty table.
func Load(path string) (*association.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return association.NewTable(nil), nil
		}
		return association.NewTable(nil), errors.Wrap(err, "failed to read association table")
	}

	var entries []association.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return association.NewTable(nil), errors.Wrap(err, "failed to parse association table")
	}

	return association.NewTable(entries), nil
}

// Save writes the full table to the given path, replacing any previous
// content. The 2-space indent matches the format of existing data files.
func Save(path string, table *association.Table) error {
	data, err := json.MarshalIndent(table.Entries(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode association table")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write association table")
	}
	return nil
}

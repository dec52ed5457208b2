// Package association provides the tag-to-file association table.
package association

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrDuplicateTag = errors.New("tag is already associated with another file")
)

// KindAudioFile is the only entry kind currently written. The field is
// reserved for future entry types and carried through load/save unchanged.
const KindAudioFile = 1

// Entry represents a single tag-to-file binding.
// The JSON keys match the on-disk format of existing data files.
type Entry struct {
	TagID string `json:"idtagnfc"` // Colon-separated uppercase hex pairs
	Path  string `json:"path"`     // Absolute path to the audio file
	Kind  int    `json:"type"`     // Reserved, KindAudioFile for new bindings
}

// Table is an ordered sequence of entries. Insertion order is association
// order and is preserved across save/load. Lookup returns the first match,
// so a table containing duplicate tag ids resolves to the oldest binding.
type Table struct {
	entries []Entry
}

// NewTable creates a table from existing entries.
// Entries are taken as-is; duplicate tag ids are not rejected here.
func NewTable(entries []Entry) *Table {
	return &Table{entries: entries}
}

// Lookup returns the file path bound to the given tag id.
// The first matching entry wins.
func (t *Table) Lookup(tagID string) (string, bool) {
	for _, e := range t.entries {
		if e.TagID == tagID {
			return e.Path, true
		}
	}
	return "", false
}

// Contains reports whether the tag id is already bound.
func (t *Table) Contains(tagID string) bool {
	_, ok := t.Lookup(tagID)
	return ok
}

// ContainsPath reports whether the file path is already bound to a tag.
func (t *Table) ContainsPath(path string) bool {
	for _, e := range t.entries {
		if e.Path == path {
			return true
		}
	}
	return false
}

// Append adds a new binding at the end of the table.
// Returns ErrDuplicateTag if the tag id is already bound.
func (t *Table) Append(e Entry) error {
	if t.Contains(e.TagID) {
		return errors.Wrapf(ErrDuplicateTag, "tag %s", e.TagID)
	}
	t.entries = append(t.entries, e)
	return nil
}

// Entries returns a copy of the entries in association order.
func (t *Table) Entries() []Entry {
	result := make([]Entry, len(t.entries))
	copy(result, t.entries)
	return result
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// FormatTagID formats a raw tag UID as colon-separated uppercase hex pairs,
// e.g. []byte{0x04, 0xa3, 0x1f} -> "04:A3:1F".
func FormatTagID(uid []byte) string {
	parts := make([]string, len(uid))
	for i, b := range uid {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

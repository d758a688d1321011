package pinmux

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/pinmux/logging"
)

var errEmptyStateName = errors.New("state name is empty")

// An Entry is one declared state: its name and either the resolved handle or the reason the
// lookup failed.
type Entry struct {
	Name   string
	Handle Handle
	Err    error
}

// Resolved returns whether the entry can be applied.
func (e Entry) Resolved() bool {
	return e.Err == nil
}

// A Table holds the states of a device in declaration order. It is immutable once built.
type Table struct {
	entries []Entry
}

// BuildTable resolves every name against the subsystem, in order. A name that fails to resolve is
// kept as an unresolved entry so the rest of the table stays usable.
func BuildTable(ctx context.Context, sub Subsystem, names []string, logger logging.Logger) *Table {
	entries := make([]Entry, 0, len(names))
	for idx, name := range names {
		entry := Entry{Name: name}
		if name == "" {
			entry.Err = &UnresolvedStateError{Index: idx, Name: name, Reason: errEmptyStateName}
		} else if handle, err := sub.Lookup(ctx, name); err != nil {
			entry.Err = &UnresolvedStateError{Index: idx, Name: name, Reason: err}
		} else {
			entry.Handle = handle
		}

		if entry.Err != nil {
			logger.CWarnw(ctx, "could not resolve pin state", "index", idx, "state", name, "error", entry.Err)
		} else {
			logger.CDebugw(ctx, "resolved pin state", "index", idx, "state", name)
		}
		entries = append(entries, entry)
	}
	return &Table{entries: entries}
}

// LoadTable enumerates the state names of a device from src and builds its table. Failing to
// enumerate is fatal to the device and is reported as an InitializationError.
func LoadTable(ctx context.Context, device string, src Source, sub Subsystem, logger logging.Logger) (*Table, error) {
	names, err := src.StateNames(ctx)
	if err != nil {
		return nil, &InitializationError{Device: device, Reason: errors.Wrap(err, "look up states")}
	}
	logger.CInfow(ctx, "enumerated pin states", "device", device, "count", len(names))
	return BuildTable(ctx, sub, names, logger), nil
}

// Len returns the number of declared states, resolved or not.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns the entry at index.
func (t *Table) Entry(index int) (Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[index], true
}

// Names returns the declared state names in order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		names = append(names, e.Name)
	}
	return names
}

// Unresolved returns the indices of entries that failed to resolve.
func (t *Table) Unresolved() []int {
	var unresolved []int
	for idx, e := range t.entries {
		if !e.Resolved() {
			unresolved = append(unresolved, idx)
		}
	}
	return unresolved
}

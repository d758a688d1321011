package pinmux

import (
	"context"
	"sync"

	"go.opencensus.io/trace"
	"go.uber.org/atomic"

	"go.viam.com/pinmux/logging"
)

// noState is stored as the active index of a controller whose table is empty.
const noState = -1

// A Controller owns the active state of one device and performs validated transitions between
// the entries of its table.
type Controller struct {
	name   string
	sub    Subsystem
	table  *Table
	logger logging.Logger

	// mu serializes RequestState from validation through apply to the index update.
	mu     sync.Mutex
	active *atomic.Int64
}

// NewController returns a controller for the given table. The active index starts at 0; an empty
// table leaves the controller without a state and every request fails.
func NewController(name string, sub Subsystem, table *Table, logger logging.Logger) *Controller {
	initial := int64(0)
	if table.Len() == 0 {
		initial = noState
	}
	return &Controller{
		name:   name,
		sub:    sub,
		table:  table,
		logger: logger,
		active: atomic.NewInt64(initial),
	}
}

// Name returns the device name the controller was created for.
func (c *Controller) Name() string {
	return c.name
}

// Table returns the controller's state table.
func (c *Controller) Table() *Table {
	return c.table
}

// Query returns the active index. It never blocks on an in-flight transition and reports 0 when
// no state is declared.
func (c *Controller) Query() int {
	idx, _ := c.Active()
	return idx
}

// Active returns the active index and whether the controller has any state at all.
func (c *Controller) Active() (int, bool) {
	idx := c.active.Load()
	if idx == noState {
		return 0, false
	}
	return int(idx), true
}

// RequestState makes the entry at index the active state. The index only changes after the
// subsystem applied the entry successfully. Concurrent requests are serialized, so the active
// index always belongs to the last apply that completed.
//
// Once an apply has started it runs to completion; cancelling ctx does not abort it.
func (c *Controller) RequestState(ctx context.Context, index int) error {
	ctx, span := trace.StartSpan(ctx, "pinmux::Controller::RequestState")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.table.Entry(index)
	if !ok {
		recordRequest(ctx, c.name, resultOutOfRange)
		c.logger.CInfow(ctx, "requested state too big", "device", c.name, "index", index, "count", c.table.Len())
		return newOutOfRangeError(index, c.table.Len())
	}
	if !entry.Resolved() {
		recordRequest(ctx, c.name, resultUnresolved)
		c.logger.CWarnw(ctx, "requested state is unresolved", "device", c.name, "index", index, "state", entry.Name)
		return entry.Err
	}

	if err := c.sub.Apply(context.WithoutCancel(ctx), entry.Handle); err != nil {
		recordRequest(ctx, c.name, resultApplyError)
		c.logger.CErrorw(ctx, "failed to apply pin state", "device", c.name, "index", index, "state", entry.Name, "error", err)
		return &ApplyError{Index: index, Name: entry.Name, Reason: err}
	}

	c.active.Store(int64(index))
	recordRequest(ctx, c.name, resultApplied)
	c.logger.CInfow(ctx, "applied pin state", "device", c.name, "index", index, "state", entry.Name)
	return nil
}

// EntryStatus describes one table entry.
type EntryStatus struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Resolved bool   `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

// Status is a point in time view of a controller.
type Status struct {
	Name      string        `json:"name"`
	Active    int           `json:"active"`
	HasActive bool          `json:"has_active"`
	States    []EntryStatus `json:"states"`
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	active, ok := c.Active()
	states := make([]EntryStatus, 0, c.table.Len())
	for idx := 0; idx < c.table.Len(); idx++ {
		entry, _ := c.table.Entry(idx)
		st := EntryStatus{Index: idx, Name: entry.Name, Resolved: entry.Resolved()}
		if entry.Err != nil {
			st.Error = entry.Err.Error()
		}
		states = append(states, st)
	}
	return Status{Name: c.name, Active: active, HasActive: ok, States: states}
}

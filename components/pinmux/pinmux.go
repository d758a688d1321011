// Package pinmux selects one of a device's named pin configurations ("states") at a time.
//
// A device declares an ordered list of state names (for example gpio, uart and spi). At probe time
// each name is resolved against the device's pin-configuration subsystem into an opaque Handle and
// collected into a Table. A Controller then owns the active index and moves between entries of
// the table, applying the chosen handle through the subsystem. The Attribute type exposes the
// read/write text interface operators use to query and change the active state.
package pinmux

import (
	"context"
)

// A Handle is a fully resolved pin configuration. It is produced by Subsystem.Lookup and only ever
// handed back to Subsystem.Apply; the controller never inspects it.
type Handle interface{}

// A Subsystem is the pin controller that backs one device.
type Subsystem interface {
	// Lookup resolves a state name into a Handle. It must not change hardware state.
	Lookup(ctx context.Context, name string) (Handle, error)

	// Apply programs the hardware for the given handle. It may block for as long as the
	// hardware takes; callers impose no timeout.
	Apply(ctx context.Context, handle Handle) error
}

// A Source enumerates the ordered state names declared for a device.
type Source interface {
	StateNames(ctx context.Context) ([]string, error)
}

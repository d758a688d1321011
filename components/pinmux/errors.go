package pinmux

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned when a written value does not start with an integer.
	ErrInvalidInput = errors.New("input is not an integer")

	// ErrOutOfRange is returned when a requested index does not name an entry of the table.
	ErrOutOfRange = errors.New("state index out of range")

	// ErrUnresolvedState is matched by errors for table entries whose lookup failed.
	ErrUnresolvedState = errors.New("state is unresolved")

	// ErrApplyFailed is matched by errors for subsystem applies that failed.
	ErrApplyFailed = errors.New("failed to apply state")

	// ErrNoStateNames is returned when a device declares no source for its state names.
	ErrNoStateNames = errors.New("no pinctrl names declared")
)

// An InitializationError is returned when a device cannot be brought up: the subsystem could not
// be acquired or the state names could not be enumerated. The device is not constructed.
type InitializationError struct {
	Device string
	Reason error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize pinmux device %q: %s", e.Device, e.Reason)
}

func (e *InitializationError) Unwrap() error {
	return e.Reason
}

// IsInitializationError returns if the given error is any kind of initialization error.
func IsInitializationError(err error) bool {
	var errArt *InitializationError
	return errors.As(err, &errArt)
}

// An UnresolvedStateError records why a declared state name could not be looked up.
type UnresolvedStateError struct {
	Index  int
	Name   string
	Reason error
}

func (e *UnresolvedStateError) Error() string {
	return fmt.Sprintf("state %d (%q) is unresolved: %s", e.Index, e.Name, e.Reason)
}

func (e *UnresolvedStateError) Unwrap() error {
	return e.Reason
}

// Is makes errors.Is(err, ErrUnresolvedState) hold.
func (e *UnresolvedStateError) Is(target error) bool {
	return target == ErrUnresolvedState
}

// An ApplyError is returned when the subsystem fails to program a state.
type ApplyError struct {
	Index  int
	Name   string
	Reason error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply state %d (%q): %s", e.Index, e.Name, e.Reason)
}

func (e *ApplyError) Unwrap() error {
	return e.Reason
}

// Is makes errors.Is(err, ErrApplyFailed) hold.
func (e *ApplyError) Is(target error) bool {
	return target == ErrApplyFailed
}

// IsRetriable returns whether re-issuing the request that produced err may succeed. Only apply
// failures qualify; every other rejection is deterministic.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrApplyFailed)
}

func newOutOfRangeError(index, count int) error {
	if count == 0 {
		return errors.Wrapf(ErrOutOfRange, "index %d requested but no states are declared", index)
	}
	return errors.Wrapf(ErrOutOfRange, "index %d not in [0, %d)", index, count)
}

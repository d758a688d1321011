// Package periphmux implements a pin-configuration subsystem on top of periph.io. Each state is a
// pin group: a list of pins and the function every pin is switched to when the state is applied.
package periphmux

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/host/v3"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/utils"
)

// Model is the model name periph subsystems register under.
const Model = "periph"

// A PinFunction assigns a function to a pin, e.g. GPIO14 to UART0_TX.
type PinFunction struct {
	Pin      string `json:"pin"`
	Function string `json:"function"`
}

// A Config maps every state name to its pin group.
type Config struct {
	States map[string][]PinFunction `json:"states"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	for name, group := range conf.States {
		groupPath := fmt.Sprintf("%s.%s.%s", path, "states", name)
		seen := map[string]struct{}{}
		for idx, pf := range group {
			pfPath := fmt.Sprintf("%s.%d", groupPath, idx)
			if pf.Pin == "" {
				return goutils.NewConfigValidationFieldRequiredError(pfPath, "pin")
			}
			if pf.Function == "" {
				return goutils.NewConfigValidationFieldRequiredError(pfPath, "function")
			}
			if _, dup := seen[pf.Pin]; dup {
				return goutils.NewConfigValidationError(pfPath, errors.Errorf("pin %q assigned twice", pf.Pin))
			}
			seen[pf.Pin] = struct{}{}
		}
	}
	return nil
}

var hostInit = host.Init

func init() {
	pinmux.RegisterModel(Model, pinmux.Registration{
		Constructor: func(ctx context.Context, conf pinmux.DeviceConfig, logger logging.Logger) (pinmux.Subsystem, error) {
			newConf, err := utils.AssertType[*Config](conf.ConvertedAttributes)
			if err != nil {
				return nil, err
			}
			if _, err := hostInit(); err != nil {
				return nil, errors.Wrap(err, "failed to initialize periph host drivers")
			}
			return NewSubsystem(newConf, ByName, logger), nil
		},
		AttributeMapConverter: pinmux.TransformAttributes[Config](),
	})
}

// A PinLookup finds a pin whose function can be changed.
type PinLookup func(name string) (pin.PinFunc, error)

// ByName finds a pin in the periph GPIO registry.
func ByName(name string) (pin.PinFunc, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no pin named %q", name)
	}
	pf, ok := p.(pin.PinFunc)
	if !ok {
		return nil, utils.NewUnimplementedInterfaceError("pin.PinFunc", p)
	}
	return pf, nil
}

type assignment struct {
	pin    string
	fn     pin.Func
	target pin.PinFunc
}

type pinGroup struct {
	name        string
	assignments []assignment
}

// A Subsystem switches pin functions through periph.
type Subsystem struct {
	conf   Config
	lookup PinLookup
	logger logging.Logger

	// mu keeps two applies from interleaving their SetFunc calls on shared pins.
	mu sync.Mutex
}

// NewSubsystem returns a subsystem resolving pins through lookup.
func NewSubsystem(conf *Config, lookup PinLookup, logger logging.Logger) *Subsystem {
	return &Subsystem{conf: *conf, lookup: lookup, logger: logger}
}

// Lookup resolves every pin of the named group and checks it supports the requested function.
func (s *Subsystem) Lookup(ctx context.Context, name string) (pinmux.Handle, error) {
	group, ok := s.conf.States[name]
	if !ok {
		return nil, errors.Errorf("no pin group named %q", name)
	}
	resolved := &pinGroup{name: name, assignments: make([]assignment, 0, len(group))}
	for _, pf := range group {
		target, err := s.lookup(pf.Pin)
		if err != nil {
			return nil, err
		}
		fn := pin.Func(pf.Function)
		if !lo.Contains(target.SupportedFuncs(), fn) {
			return nil, errors.Errorf("pin %q does not support function %q", pf.Pin, pf.Function)
		}
		resolved.assignments = append(resolved.assignments, assignment{pin: pf.Pin, fn: fn, target: target})
	}
	return resolved, nil
}

// Apply switches every pin of the group. If a pin fails, the pins already switched are restored to
// their previous function and the combined error is returned.
func (s *Subsystem) Apply(ctx context.Context, handle pinmux.Handle) error {
	group, ok := handle.(*pinGroup)
	if !ok {
		return utils.NewUnexpectedTypeError(group, handle)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make([]pin.Func, 0, len(group.assignments))
	for idx, a := range group.assignments {
		previous = append(previous, a.target.Func())
		if err := a.target.SetFunc(a.fn); err != nil {
			err = errors.Wrapf(err, "failed to set %s to %s", a.pin, a.fn)
			return multierr.Combine(err, restore(group.assignments[:idx], previous[:idx]))
		}
		s.logger.CDebugw(ctx, "set pin function", "state", group.name, "pin", a.pin, "function", a.fn)
	}
	return nil
}

func restore(applied []assignment, previous []pin.Func) error {
	var errs error
	for idx := len(applied) - 1; idx >= 0; idx-- {
		if err := applied[idx].target.SetFunc(previous[idx]); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "failed to restore %s to %s", applied[idx].pin, previous[idx]))
		}
	}
	return errs
}

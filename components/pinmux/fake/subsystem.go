// Package fake implements a fake pin-configuration subsystem.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/utils"
)

// Model is the model name fake subsystems register under.
const Model = "fake"

// A Config describes a fake subsystem.
type Config struct {
	// States that resolve. Empty means every name resolves.
	States []string `json:"states,omitempty"`
	// Unresolvable states always fail lookup.
	Unresolvable []string `json:"unresolvable,omitempty"`
	// FailApply states resolve but fail every apply.
	FailApply    []string `json:"fail_apply,omitempty"`
	ApplyDelayMs int      `json:"apply_delay_ms,omitempty"`
	FailNew      bool     `json:"fail_new,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.ApplyDelayMs < 0 {
		return goutils.NewConfigValidationError(path, errors.New("apply_delay_ms must not be negative"))
	}
	return nil
}

func init() {
	pinmux.RegisterModel(Model, pinmux.Registration{
		Constructor: func(ctx context.Context, conf pinmux.DeviceConfig, logger logging.Logger) (pinmux.Subsystem, error) {
			newConf, err := utils.AssertType[*Config](conf.ConvertedAttributes)
			if err != nil {
				return nil, err
			}
			return NewSubsystem(newConf, logger)
		},
		AttributeMapConverter: pinmux.TransformAttributes[Config](),
	})
}

// A State is the handle a fake subsystem hands out.
type State struct {
	Name string
}

// A Subsystem keeps the applied state in memory. LookupFunc and ApplyFunc, when set, replace the
// configured behavior.
type Subsystem struct {
	LookupFunc func(ctx context.Context, name string) (pinmux.Handle, error)
	ApplyFunc  func(ctx context.Context, handle pinmux.Handle) error
	// Clock paces the configured apply delay.
	Clock clock.Clock

	conf   Config
	logger logging.Logger

	mu      sync.Mutex
	applied []string
}

// NewSubsystem returns a new fake subsystem.
func NewSubsystem(conf *Config, logger logging.Logger) (*Subsystem, error) {
	if conf == nil {
		conf = &Config{}
	}
	if conf.FailNew {
		return nil, errors.New("no pin controller for device")
	}
	return &Subsystem{Clock: clock.New(), conf: *conf, logger: logger}, nil
}

// Lookup resolves a name into a *State.
func (s *Subsystem) Lookup(ctx context.Context, name string) (pinmux.Handle, error) {
	if s.LookupFunc != nil {
		return s.LookupFunc(ctx, name)
	}
	if lo.Contains(s.conf.Unresolvable, name) {
		return nil, errors.Errorf("could not get %s pinstate", name)
	}
	if len(s.conf.States) > 0 && !lo.Contains(s.conf.States, name) {
		return nil, errors.Errorf("no pin state named %q", name)
	}
	return &State{Name: name}, nil
}

// Apply records the state as applied.
func (s *Subsystem) Apply(ctx context.Context, handle pinmux.Handle) error {
	if s.ApplyFunc != nil {
		return s.ApplyFunc(ctx, handle)
	}
	state, ok := handle.(*State)
	if !ok {
		return utils.NewUnexpectedTypeError(state, handle)
	}
	if s.conf.ApplyDelayMs > 0 {
		s.Clock.Sleep(time.Duration(s.conf.ApplyDelayMs) * time.Millisecond)
	}
	if lo.Contains(s.conf.FailApply, state.Name) {
		return errors.Errorf("pin controller rejected %s", state.Name)
	}

	s.mu.Lock()
	s.applied = append(s.applied, state.Name)
	s.mu.Unlock()
	s.logger.Debugw("fake applied pin state", "state", state.Name)
	return nil
}

// Applied returns the names of every successfully applied state, in order.
func (s *Subsystem) Applied() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.applied...)
}

// Current returns the last applied state name, or "" if nothing was applied.
func (s *Subsystem) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.applied) == 0 {
		return ""
	}
	return s.applied[len(s.applied)-1]
}

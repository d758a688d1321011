package pinmux

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/pinmux/logging"
)

// A Device is a probed pin-muxed device: its controller and control surface.
type Device struct {
	Config     DeviceConfig
	Controller *Controller
	Attribute  *Attribute
}

// A Manager builds devices from their configs and hands them out by name. Each device owns its own
// controller; nothing is shared between devices.
type Manager struct {
	logger logging.Logger
	dt     fs.FS

	mu      sync.RWMutex
	devices map[string]*Device
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDeviceTree sets the filesystem device-tree nodes are resolved in. It defaults to the root of
// the host filesystem.
func WithDeviceTree(dt fs.FS) ManagerOption {
	return func(m *Manager) {
		m.dt = dt
	}
}

// NewManager returns an empty manager.
func NewManager(logger logging.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:  logger,
		dt:      os.DirFS("/"),
		devices: map[string]*Device{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Probe brings up a device: it acquires the subsystem, resolves the declared states and builds the
// controller. Failures to acquire or to enumerate are returned as an InitializationError and no
// device is registered.
func (m *Manager) Probe(ctx context.Context, conf DeviceConfig) (*Device, error) {
	if err := conf.Validate(conf.Name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	_, exists := m.devices[conf.Name]
	m.mu.RUnlock()
	if exists {
		return nil, errors.Errorf("pinmux device %q already exists", conf.Name)
	}

	logger := m.logger.Sublogger(conf.Name)
	reg, ok := LookupModel(conf.Model)
	if !ok {
		return nil, &InitializationError{Device: conf.Name, Reason: errors.Errorf("unknown pinmux model %q", conf.Model)}
	}
	if err := conf.ConvertAttributes(conf.Name); err != nil {
		return nil, &InitializationError{Device: conf.Name, Reason: err}
	}
	sub, err := reg.Constructor(ctx, conf, logger)
	if err != nil {
		return nil, &InitializationError{Device: conf.Name, Reason: errors.Wrap(err, "unable to get pinctrl handle")}
	}
	src, err := SourceFor(conf, m.dt)
	if err != nil {
		return nil, &InitializationError{Device: conf.Name, Reason: err}
	}
	table, err := LoadTable(ctx, conf.Name, src, sub, logger)
	if err != nil {
		return nil, err
	}

	ctrl := NewController(conf.Name, sub, table, logger)
	if conf.ApplyDefault && table.Len() > 0 {
		if err := ctrl.RequestState(ctx, 0); err != nil {
			logger.CWarnw(ctx, "could not apply default pin state", "error", err)
		}
	}
	dev := &Device{
		Config:     conf,
		Controller: ctrl,
		Attribute:  NewAttribute(ctrl, conf.StrictWrites, logger),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.devices[conf.Name]; exists {
		return nil, errors.Errorf("pinmux device %q already exists", conf.Name)
	}
	m.devices[conf.Name] = dev
	return dev, nil
}

// ProbeAll probes every config concurrently. Devices that fail are skipped and their errors are
// combined into the returned error.
func (m *Manager) ProbeAll(ctx context.Context, confs []DeviceConfig) error {
	var (
		errMu sync.Mutex
		errs  error
		group errgroup.Group
	)
	for _, conf := range confs {
		group.Go(func() error {
			if _, err := m.Probe(ctx, conf); err != nil {
				errMu.Lock()
				errs = multierr.Append(errs, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	//nolint:errcheck
	group.Wait()
	return errs
}

// Device returns the device with the given name.
func (m *Manager) Device(name string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dev, ok := m.devices[name]
	return dev, ok
}

// Names returns the names of all devices, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.devices))
	for name := range m.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove forgets a device. It returns false if no device had that name.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[name]; !ok {
		return false
	}
	delete(m.devices, name)
	return true
}

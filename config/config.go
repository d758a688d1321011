// Package config defines the structures to configure a pinmux server and the ability to read
// them from a file.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/logging"
)

// DefaultPort is the port the control surface listens on when none is configured.
const DefaultPort = 8080

// A Config describes the devices of a pinmux server and how to reach it.
type Config struct {
	ConfigFilePath string                `json:"-"`
	Devices        []pinmux.DeviceConfig `json:"devices"`
	Web            WebConfig             `json:"web"`

	// Log sets the level of loggers whose names match a pattern, e.g. pinmux.devices.uart0.
	Log []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// WebConfig configures the HTTP control surface.
type WebConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// AllowCORS lets browser pages on any origin call the control surface.
	AllowCORS bool `json:"allow_cors,omitempty"`
}

// Address returns the host:port the control surface binds to.
func (w WebConfig) Address() string {
	port := w.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", w.Host, port)
}

// Ensure validates every device and logger pattern, rejects duplicate names and converts device attributes to their
// model's native config.
func (c *Config) Ensure() error {
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return errors.Errorf("web.port %d is not a valid port", c.Web.Port)
	}
	for idx, lpc := range c.Log {
		if err := lpc.Validate(); err != nil {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.%d", "log", idx), err)
		}
	}
	seen := make(map[string]struct{}, len(c.Devices))
	for idx := range c.Devices {
		dev := &c.Devices[idx]
		path := fmt.Sprintf("%s.%d", "devices", idx)
		if err := dev.Validate(path); err != nil {
			return err
		}
		if _, dup := seen[dev.Name]; dup {
			return errors.Errorf("duplicate device name %q", dev.Name)
		}
		seen[dev.Name] = struct{}{}
		if err := dev.ConvertAttributes(path); err != nil {
			return err
		}
	}
	return nil
}

// FindDevice returns the config of the named device.
func (c *Config) FindDevice(name string) *pinmux.DeviceConfig {
	for idx := range c.Devices {
		if c.Devices[idx].Name == name {
			return &c.Devices[idx]
		}
	}
	return nil
}

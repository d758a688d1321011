package pinmux

import (
	"fmt"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/pinmux/utils"
)

// A DeviceConfig describes one pin-muxed device.
type DeviceConfig struct {
	Name  string `json:"name"`
	Model string `json:"model"`

	// PinctrlNames lists the states in index order. When unset the names are read from the
	// pinctrl-names property of DeviceTreeNode.
	PinctrlNames   []string `json:"pinctrl_names,omitempty"`
	DeviceTreeNode string   `json:"device_tree_node,omitempty"`

	// StrictWrites returns write failures to the writer instead of only logging them.
	StrictWrites bool `json:"strict_writes,omitempty"`
	// ApplyDefault applies state 0 while probing.
	ApplyDefault bool `json:"apply_default,omitempty"`

	Attributes          utils.AttributeMap `json:"attributes,omitempty"`
	ConvertedAttributes interface{}        `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (conf *DeviceConfig) Validate(path string) error {
	if conf.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if conf.Model == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	for idx, name := range conf.PinctrlNames {
		if name == "" {
			return goutils.NewConfigValidationError(
				fmt.Sprintf("%s.%s.%d", path, "pinctrl_names", idx),
				errors.New("state names must not be empty"))
		}
	}
	return nil
}

// ConvertAttributes fills ConvertedAttributes using the converter registered for the model and
// validates the result when it knows how. Models without a converter keep the raw attribute map.
func (conf *DeviceConfig) ConvertAttributes(path string) error {
	if conf.ConvertedAttributes == nil {
		reg, ok := LookupModel(conf.Model)
		if !ok {
			return errors.Errorf("unknown pinmux model %q", conf.Model)
		}
		if reg.AttributeMapConverter == nil {
			conf.ConvertedAttributes = conf.Attributes
			return nil
		}
		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			return errors.Wrapf(err, "error converting attributes of %q", conf.Name)
		}
		conf.ConvertedAttributes = converted
	}
	if validator, ok := conf.ConvertedAttributes.(interface{ Validate(string) error }); ok {
		return validator.Validate(fmt.Sprintf("%s.%s", path, "attributes"))
	}
	return nil
}

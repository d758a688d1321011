package pinmux

import (
	"bytes"
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// PinctrlNamesProperty is the device-tree property listing a device's state names.
const PinctrlNamesProperty = "pinctrl-names"

// StaticSource serves state names given directly in configuration.
type StaticSource []string

// StateNames returns a copy of the names.
func (s StaticSource) StateNames(ctx context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// A DeviceTreeSource reads state names from the pinctrl-names property of a device-tree node, in
// the flattened form exposed under /proc/device-tree: a file holding NUL terminated strings.
type DeviceTreeSource struct {
	FS   fs.FS
	Node string
}

// StateNames reads and splits the property. A missing property is an error; an empty one declares
// no states.
func (s DeviceTreeSource) StateNames(ctx context.Context) ([]string, error) {
	prop := path.Join(strings.TrimPrefix(s.Node, "/"), PinctrlNamesProperty)
	raw, err := fs.ReadFile(s.FS, prop)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s of %q", PinctrlNamesProperty, s.Node)
	}
	raw = bytes.TrimSuffix(raw, []byte{0})
	if len(raw) == 0 {
		return nil, nil
	}
	parts := bytes.Split(raw, []byte{0})
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, string(p))
	}
	return names, nil
}

// SourceFor picks the state-name source of a device: explicit names win over a device-tree node.
func SourceFor(conf DeviceConfig, dt fs.FS) (Source, error) {
	switch {
	case conf.PinctrlNames != nil:
		return StaticSource(conf.PinctrlNames), nil
	case conf.DeviceTreeNode != "":
		return DeviceTreeSource{FS: dt, Node: conf.DeviceTreeNode}, nil
	default:
		return nil, ErrNoStateNames
	}
}

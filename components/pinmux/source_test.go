package pinmux_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/pinmux/components/pinmux"
)

func TestDeviceTreeSource(t *testing.T) {
	ctx := context.Background()
	dt := fstest.MapFS{
		"proc/device-tree/pins-mux/pinctrl-names": {Data: []byte("gpio\x00uart\x00spi\x00")},
		"proc/device-tree/empty/pinctrl-names":    {Data: []byte{}},
	}

	names, err := pinmux.DeviceTreeSource{FS: dt, Node: "/proc/device-tree/pins-mux"}.StateNames(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldResemble, []string{"gpio", "uart", "spi"})

	names, err = pinmux.DeviceTreeSource{FS: dt, Node: "proc/device-tree/empty"}.StateNames(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldBeEmpty)

	_, err = pinmux.DeviceTreeSource{FS: dt, Node: "/proc/device-tree/missing"}.StateNames(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pinctrl-names")
}

func TestStaticSourceCopies(t *testing.T) {
	src := pinmux.StaticSource{"gpio", "uart"}
	names, err := src.StateNames(context.Background())
	test.That(t, err, test.ShouldBeNil)
	names[0] = "changed"
	test.That(t, src[0], test.ShouldEqual, "gpio")
}

func TestSourceFor(t *testing.T) {
	dt := fstest.MapFS{}

	src, err := pinmux.SourceFor(pinmux.DeviceConfig{PinctrlNames: []string{"gpio"}, DeviceTreeNode: "/x"}, dt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src, test.ShouldResemble, pinmux.StaticSource{"gpio"})

	src, err = pinmux.SourceFor(pinmux.DeviceConfig{DeviceTreeNode: "/x"}, dt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src, test.ShouldResemble, pinmux.DeviceTreeSource{FS: dt, Node: "/x"})

	_, err = pinmux.SourceFor(pinmux.DeviceConfig{}, dt)
	test.That(t, errors.Is(err, pinmux.ErrNoStateNames), test.ShouldBeTrue)
}

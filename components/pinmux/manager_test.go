package pinmux_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/components/pinmux/fake"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/testutils"
	"go.viam.com/pinmux/utils"
)

func fakeDevice(name string, attrs utils.AttributeMap, names ...string) pinmux.DeviceConfig {
	return pinmux.DeviceConfig{Name: name, Model: fake.Model, PinctrlNames: names, Attributes: attrs}
}

func TestManagerProbe(t *testing.T) {
	ctx := context.Background()
	m := pinmux.NewManager(logging.NewTestLogger(t))

	dev, err := m.Probe(ctx, fakeDevice("uart2", nil, "gpio", "uart", "spi"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Controller.Name(), test.ShouldEqual, "uart2")
	test.That(t, dev.Controller.Table().Names(), test.ShouldResemble, []string{"gpio", "uart", "spi"})
	test.That(t, dev.Attribute.Show(), test.ShouldEqual, "0\n")
	test.That(t, dev.Config.ConvertedAttributes, test.ShouldHaveSameTypeAs, &fake.Config{})

	got, ok := m.Device("uart2")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, dev)

	_, err = m.Probe(ctx, fakeDevice("uart2", nil, "gpio"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already exists")

	test.That(t, m.Remove("uart2"), test.ShouldBeTrue)
	test.That(t, m.Remove("uart2"), test.ShouldBeFalse)
	_, ok = m.Device("uart2")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestManagerProbeInitializationErrors(t *testing.T) {
	ctx := context.Background()
	m := pinmux.NewManager(logging.NewTestLogger(t), pinmux.WithDeviceTree(fstest.MapFS{}))

	_, err := m.Probe(ctx, pinmux.DeviceConfig{Name: "a", Model: "nope", PinctrlNames: []string{"gpio"}})
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown pinmux model")

	_, err = m.Probe(ctx, fakeDevice("b", utils.AttributeMap{"fail_new": true}, "gpio"))
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unable to get pinctrl handle")

	_, err = m.Probe(ctx, fakeDevice("c", nil))
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeTrue)
	test.That(t, errors.Is(err, pinmux.ErrNoStateNames), test.ShouldBeTrue)

	_, err = m.Probe(ctx, pinmux.DeviceConfig{Name: "d", Model: fake.Model, DeviceTreeNode: "/proc/device-tree/missing"})
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeTrue)

	_, err = m.Probe(ctx, fakeDevice("e", utils.AttributeMap{"apply_delay_ms": -1}, "gpio"))
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "apply_delay_ms")

	_, err = m.Probe(ctx, pinmux.DeviceConfig{Model: fake.Model})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, pinmux.IsInitializationError(err), test.ShouldBeFalse)

	test.That(t, m.Names(), test.ShouldBeEmpty)
}

func TestManagerProbeDeviceTree(t *testing.T) {
	dt := testutils.DeviceTree(map[string][]string{"/proc/device-tree/pins-mux": {"gpio", "broken"}})
	m := pinmux.NewManager(logging.NewTestLogger(t), pinmux.WithDeviceTree(dt))

	dev, err := m.Probe(context.Background(), pinmux.DeviceConfig{
		Name:           "pins-mux",
		Model:          fake.Model,
		DeviceTreeNode: "/proc/device-tree/pins-mux",
		Attributes:     utils.AttributeMap{"unresolvable": []interface{}{"broken"}},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Controller.Table().Len(), test.ShouldEqual, 2)

	err = dev.Controller.RequestState(context.Background(), 1)
	test.That(t, errors.Is(err, pinmux.ErrUnresolvedState), test.ShouldBeTrue)
	test.That(t, dev.Controller.RequestState(context.Background(), 0), test.ShouldBeNil)
}

func TestManagerApplyDefault(t *testing.T) {
	ctx := context.Background()
	logger, logs := logging.NewObservedTestLogger(t)
	m := pinmux.NewManager(logger)

	conf := fakeDevice("ok", nil, "gpio", "uart")
	conf.ApplyDefault = true
	dev, err := m.Probe(ctx, conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Controller.Table().Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("applied pin state").Len(), test.ShouldEqual, 1)

	conf = fakeDevice("failing", utils.AttributeMap{"fail_apply": []interface{}{"gpio"}}, "gpio", "uart")
	conf.ApplyDefault = true
	dev, err = m.Probe(ctx, conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Controller.Query(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("could not apply default pin state").Len(), test.ShouldEqual, 1)
}

func TestManagerProbeAll(t *testing.T) {
	m := pinmux.NewManager(logging.NewTestLogger(t))

	err := m.ProbeAll(context.Background(), []pinmux.DeviceConfig{
		fakeDevice("spi0", nil, "gpio", "spi"),
		fakeDevice("uart2", nil, "gpio", "uart"),
		fakeDevice("broken1", utils.AttributeMap{"fail_new": true}, "gpio"),
		fakeDevice("broken2", nil),
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)
	for _, e := range multierr.Errors(err) {
		test.That(t, pinmux.IsInitializationError(e), test.ShouldBeTrue)
	}
	test.That(t, m.Names(), test.ShouldResemble, []string{"spi0", "uart2"})

	test.That(t, m.ProbeAll(context.Background(), nil), test.ShouldBeNil)
}

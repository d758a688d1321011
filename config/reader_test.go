package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/components/pinmux/fake"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/utils"
)

func TestFromReaderValidate(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	_, err := FromReader(ctx, "somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"robots": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown field")

	conf, err := FromReader(ctx, "somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{ConfigFilePath: "somepath"})

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [{}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "devices.0")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"name" is required`)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [{"name": "uart0"}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"model" is required`)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [{"name": "uart0", "model": "nope"}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown pinmux model "nope"`)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [
		{"name": "uart0", "model": "fake"},
		{"name": "uart0", "model": "fake"}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `duplicate device name "uart0"`)

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"web": {"port": 70000}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not a valid port")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"log": [{"pattern": "pinmux..x", "level": "debug"}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "log.0")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [
		{"name": "uart0", "model": "fake", "attributes": {"apply_delay_ms": -5}}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "devices.0.attributes")

	_, err = FromReader(ctx, "somepath", strings.NewReader(`{"devices": [
		{"name": "uart0", "model": "fake", "attributes": {"bogus": true}}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error converting attributes")
}

func TestFromReaderConvertsAttributes(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conf, err := FromReader(context.Background(), "somepath", strings.NewReader(`{
		"devices": [{
			"name": "uart0",
			"model": "fake",
			"pinctrl_names": ["gpio", "uart", "spi"],
			"strict_writes": true,
			"attributes": {"unresolvable": ["spi"]}
		}],
		"web": {"port": 9090},
		"log": [{"pattern": "pinmux.devices.*", "level": "debug"}]
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Web.Address(), test.ShouldEqual, ":9090")
	test.That(t, conf.Devices, test.ShouldHaveLength, 1)
	test.That(t, conf.Log, test.ShouldResemble, []logging.LoggerPatternConfig{{Pattern: "pinmux.devices.*", Level: "debug"}})

	dev := conf.FindDevice("uart0")
	test.That(t, dev, test.ShouldNotBeNil)
	test.That(t, dev.PinctrlNames, test.ShouldResemble, []string{"gpio", "uart", "spi"})
	test.That(t, dev.StrictWrites, test.ShouldBeTrue)
	test.That(t, dev.Attributes, test.ShouldResemble, utils.AttributeMap{"unresolvable": []interface{}{"spi"}})
	test.That(t, dev.ConvertedAttributes, test.ShouldResemble, &fake.Config{Unresolvable: []string{"spi"}})

	test.That(t, conf.FindDevice("spi1"), test.ShouldBeNil)
}

func TestReadSubstitutesEnvironment(t *testing.T) {
	t.Setenv("PINMUX_TEST_DEVICE", "spi1")
	t.Setenv("PINMUX_TEST_PORT", "8181")

	path := filepath.Join(t.TempDir(), "pinmux.json")
	err := os.WriteFile(path, []byte(`{
		"devices": [{"name": "${PINMUX_TEST_DEVICE}", "model": "fake", "pinctrl_names": ["gpio"]}],
		"web": {"port": ${PINMUX_TEST_PORT}}
	}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	conf, err := Read(context.Background(), path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.Devices[0].Name, test.ShouldEqual, "spi1")
	test.That(t, conf.Web.Port, test.ShouldEqual, 8181)

	_, err = Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWebAddress(t *testing.T) {
	test.That(t, WebConfig{}.Address(), test.ShouldEqual, ":8080")
	test.That(t, WebConfig{Host: "127.0.0.1", Port: 1}.Address(), test.ShouldEqual, "127.0.0.1:1")
}

func TestEnsureKeepsConvertedAttributes(t *testing.T) {
	conf := &Config{Devices: []pinmux.DeviceConfig{{
		Name:                "uart0",
		Model:               fake.Model,
		ConvertedAttributes: &fake.Config{States: []string{"gpio"}},
	}}}
	test.That(t, conf.Ensure(), test.ShouldBeNil)
	test.That(t, conf.Devices[0].ConvertedAttributes, test.ShouldResemble, &fake.Config{States: []string{"gpio"}})
}

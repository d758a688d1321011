package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/pinmux/components/pinmux"
	"go.viam.com/pinmux/components/pinmux/fake"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/web"
)

func setup(t *testing.T) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	manager := pinmux.NewManager(logger)
	test.That(t, manager.ProbeAll(context.Background(), []pinmux.DeviceConfig{
		{
			Name:                "spi1",
			Model:               fake.Model,
			PinctrlNames:        []string{"gpio", "broken"},
			StrictWrites:        true,
			ConvertedAttributes: &fake.Config{Unresolvable: []string{"broken"}},
		},
		{
			Name:                "uart0",
			Model:               fake.Model,
			PinctrlNames:        []string{"gpio", "uart", "spi"},
			ConvertedAttributes: &fake.Config{},
		},
	}), test.ShouldBeNil)

	ts := httptest.NewServer(web.NewHandler(manager, logger))
	t.Cleanup(ts.Close)
	return ts, &bytes.Buffer{}
}

func run(out *bytes.Buffer, addr string, args ...string) error {
	app := NewApp(out, out)
	return app.Run(append([]string{"pinmux", "--addr", addr}, args...))
}

func TestListDevicesAction(t *testing.T) {
	ts, out := setup(t)

	test.That(t, run(out, ts.URL, "list"), test.ShouldBeNil)
	rows := []string{
		`spi1\s+\|\s+0\s+\|\s+gpio\s+\|\s+\*\s+\|\s+\|`,
		`spi1\s+\|\s+1\s+\|\s+broken\s+\|\s+\|\s+\S+`,
		`uart0\s+\|\s+0\s+\|\s+gpio\s+\|\s+\*\s+\|`,
		`uart0\s+\|\s+1\s+\|\s+uart\s+\|\s+\|`,
		`uart0\s+\|\s+2\s+\|\s+spi\s+\|\s+\|`,
	}
	for _, row := range rows {
		test.That(t, regexp.MustCompile(row).MatchString(out.String()), test.ShouldBeTrue)
	}
	test.That(t, out.String(), test.ShouldContainSubstring, "DEVICE")
	test.That(t, strings.Index(out.String(), "spi1"), test.ShouldBeLessThan, strings.Index(out.String(), "uart0"))
}

func TestGetAndSetStateAction(t *testing.T) {
	ts, out := setup(t)

	test.That(t, run(out, ts.URL, "get", "uart0"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "0\n")

	out.Reset()
	test.That(t, run(out, ts.URL, "set", "uart0", "2"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "uart0: 2\n")

	out.Reset()
	test.That(t, run(out, ts.URL, "set", "uart0", "7"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "uart0: 2\n")

	err := run(out, ts.URL, "set", "spi1", "1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "409")

	err = run(out, ts.URL, "get", "i2c2")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "404")

	err = run(out, ts.URL, "get")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "<device>")

	err = run(out, ts.URL, "set", "uart0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "<device> <index>")
}

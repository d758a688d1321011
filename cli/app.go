package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagAddr    = "addr"
	generalFlagTimeout = "timeout"

	defaultAddr = "http://localhost:8080"
)

var app = &cli.App{
	Name:            "pinmux",
	Usage:           "query and change the pin configuration of pinmux devices",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagAddr,
			Value:   defaultAddr,
			Usage:   "base URL of the pinmux server",
			EnvVars: []string{"PINMUX_ADDR"},
		},
		&cli.DurationFlag{
			Name:  generalFlagTimeout,
			Usage: "request timeout; 0 waits for as long as the device takes",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list devices with their states",
			Action: ListDevicesAction,
		},
		{
			Name:      "get",
			Usage:     "print the active state index of a device",
			ArgsUsage: "<device>",
			Action:    GetStateAction,
		},
		{
			Name:      "set",
			Usage:     "request a new active state for a device",
			ArgsUsage: "<device> <index>",
			Action:    SetStateAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

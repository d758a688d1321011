// Package register registers all pinmux subsystem models.
package register

import (
	// register models.
	_ "go.viam.com/pinmux/components/pinmux/fake"
	_ "go.viam.com/pinmux/components/pinmux/periphmux"
)

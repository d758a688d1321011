// Package register registers all components
package register

import (
	// register pinmux subsystem models.
	_ "go.viam.com/pinmux/components/pinmux/register"
)

// Package main provides a server offering an HTTP control surface for pinmux devices.
package main

import (
	"go.viam.com/utils"

	// registers all components.
	_ "go.viam.com/pinmux/components/register"
	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/web/server"
)

var logger = logging.NewLogger("pinmux")

func main() {
	utils.ContextualMain(server.RunServer, logger)
}

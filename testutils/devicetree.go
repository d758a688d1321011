package testutils

import (
	"path"
	"strings"
	"testing/fstest"
)

// DeviceTree returns a filesystem holding a pinctrl-names property for every node, encoded the
// way the kernel exposes it: NUL-terminated strings. Nodes are absolute paths such as
// /proc/device-tree/pins-mux.
func DeviceTree(nodes map[string][]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for node, names := range nodes {
		var data []byte
		for _, name := range names {
			data = append(data, name...)
			data = append(data, 0)
		}
		fsys[path.Join(strings.TrimPrefix(node, "/"), "pinctrl-names")] = &fstest.MapFile{Data: data}
	}
	return fsys
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	Version = "dev"
)

func usage() string {
	ex, _ := os.Executable()
	absPath, _ := filepath.Abs(ex)
	return fmt.Sprintf(`Start the part cooling fan a few seconds before every bridge.
%s - https://github.com/macdylan/smbridgefan

Powerful fans take time to spin up. The slicer turns the bridge fan on when
the bridge starts, this moves an M106 ahead of it by the lead time.

Bridge detection and the bridge fan speed must be enabled in the slicer,
otherwise there are no bridge markers to work with.

Example configuration in PrusaSlicer,
Go to Print Settings -> Output options -> Post-processing scripts:

  %s --lead-time 1.5;

DO NOT include spaces in the path.

With no file argument G-code is read from stdin and written to stdout.
`, Version, absPath)
}

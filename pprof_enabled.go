//go:build pprof

package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// startProfile records a CPU profile into cpu.pprof, the returned stop
// also writes the heap to mem.pprof.
func startProfile() (stop func(), err error) {
	cpuFile, err := os.Create("cpu.pprof")
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err = pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpuFile.Close()

		memFile, err := os.Create("mem.pprof")
		if err != nil {
			fmt.Fprintf(os.Stderr, "create mem profile: %v\n", err)
			return
		}
		defer memFile.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			fmt.Fprintf(os.Stderr, "write mem profile: %v\n", err)
		}
	}, nil
}

package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"runtime/trace"
)

// These two profiling hooks (--trace/--cpuprofile) are kept from the
// teacher's own CLI verbatim in spirit: this compiler is
// just as fast-and-short-lived a process as a bundler invocation, so
// the same "one file written on a deferred close" profiling shape
// applies unchanged. The teacher splits this into a wasm/non-wasm pair
// of build-tagged files; there is no WebAssembly target for this CLI,
// so only the real-file variant survives.

func createTraceFile(traceFile string) func() {
	f, err := os.Create(traceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create trace file: %s\n", err)
		return nil
	}
	trace.Start(f)
	return func() {
		trace.Stop()
		f.Close()
	}
}

func createCpuprofileFile(cpuprofileFile string) func() {
	f, err := os.Create(cpuprofileFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create cpuprofile file: %s\n", err)
		return nil
	}
	pprof.StartCPUProfile(f)
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}

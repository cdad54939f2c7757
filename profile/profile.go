// Package profile starts runtime profilers for the dioscript command.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	dioscript --pprof-mode=cpu page.dio
//	go tool pprof -http=: ~/.cache/dioscript/pprof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
package profile

// Tag is the build tag enabling profiling. It also names the profile output
// directory and the command-line flag group.
const Tag = "pprof"

// Profiler describes one profiling session.
type Profiler struct {
	Mode  string // one of [Modes]
	Path  string // output directory; empty selects the working directory
	Quiet bool   // suppress the profiler's own log lines
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling. An empty or unknown mode, or a build without
// profiling, returns a Stopper that does nothing.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}

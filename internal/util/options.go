package util

// Options mirrors vslc's util.Options: a flat bag of settings threaded
// through every pass, populated here by cobra flag bindings in cmd/runac
// instead of a hand-rolled argv loop.
type Options struct {
	Src         string // Path to the main source file (.rns).
	CoreDir     string // Path to the core library directory merged with Src.
	Out         string // Path to the output file; empty means stdout.
	Threads     int    // Degree of parallelism for per-function passes.
	Verbose     bool   // Bound to --verbose; no pass reads it.
	TokenStream bool   // `tokens` subcommand: print tokens and exit.
	LastPass    string // `show` subcommand: name of the last pass to run before printing.

	TargetArch   int
	TargetVendor int
	TargetOS     int
}

const MaxThreads = 64

const (
	UnknownArch = iota
	X86_64
	Aarch64
	Riscv64
)

const (
	UnknownOS = iota
	Linux
	Windows
	MacOS
)

const (
	UnknownVendor = iota
	Apple
	PC
)

// Threads1 returns opt.Threads, defaulting to 1 when unset.
func (o Options) Threads1() int {
	if o.Threads < 1 {
		return 1
	}
	return o.Threads
}

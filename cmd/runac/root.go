// Command runac drives the lex/parse/lower/check/emit pipeline
// internal/compiler implements, wiring its entry points onto the five
// subcommands spec.md §6 names — the same role vslc/src/main.go's flat
// run(opt) plays for that compiler's CLI, split into cobra subcommands
// here because this driver exposes five genuinely distinct entry points
// (vslc's flags all funnel into one).
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/util"
)

var opt util.Options

var outFile *os.File
var writeWG sync.WaitGroup

var rootCmd = &cobra.Command{
	Use:           "runac",
	Short:         "runac compiles .rns source to LLIR (or, with compile, an executable)",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE starts the output sink only once flags are bound
	// (opt.Out isn't populated until cobra parses args), and
	// PersistentPostRunE drains it — the same open-sink/defer-Close split
	// vslc/src/main.go does around its call to run(opt), just moved to
	// cobra's hooks since there's no longer one flat main() body to bracket.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if opt.Out != "" {
			f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("opening output %s: %w", opt.Out, err)
			}
			outFile = f
		}
		util.ListenWrite(outFile, &writeWG)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		util.Close()
		writeWG.Wait()
		if outFile != nil {
			return outFile.Close()
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opt.CoreDir, "core", "", "path to the core library directory merged with the source file")
	pf.StringVarP(&opt.Out, "out", "o", "", "output path (default: stdout)")
	pf.IntVar(&opt.Threads, "threads", 0, "degree of parallelism for per-function passes (default: 1)")
	pf.BoolVarP(&opt.Verbose, "verbose", "v", false, "accepted, but has no effect")

	rootCmd.AddCommand(tokensCmd, parseCmd, showCmd, generateCmd, compileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

// printErr renders err the way spec.md §6 requires: a single-line
// "file [L.C]: message" diagnostic (ParseError/SemanticError already
// format themselves this way) followed by the caret-annotated source
// line, in red when stderr is a terminal (fatih/color degrades to plain
// text otherwise, same as vslc's colorable-gated error printing).
func printErr(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
}

func fatalf(format string, args ...interface{}) {
	printErr(fmt.Errorf(format, args...))
	os.Exit(1)
}

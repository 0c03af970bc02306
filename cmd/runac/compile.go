package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/compiler"
)

var backend string

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "invoke the backend to produce an executable at basename(file, '.rns')",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		opt.LastPass = ""
		m, err := compiler.Compile(opt)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(filepath.Base(opt.Src), filepath.Ext(opt.Src))
		llPath := base + ".ll"
		if err := os.WriteFile(llPath, []byte(m.LIR.String()), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", llPath, err)
		}

		// Producing the executable itself is genuinely out of scope (see
		// SPEC_FULL.md §4.0): this repo's job ends at LLIR text. When the
		// configured backend driver is on PATH, hand the file to it, same
		// as shelling out to `llc`/`clang` at the end of a vslc pipeline;
		// otherwise report what it would have run instead of failing.
		path, err := exec.LookPath(backend)
		if err != nil {
			fmt.Printf("would invoke: %s %s\n", backend, llPath)
			return nil
		}
		out := exec.Command(path, llPath, "-o", base)
		out.Stdout, out.Stderr = os.Stdout, os.Stderr
		return out.Run()
	},
}

func init() {
	compileCmd.Flags().StringVar(&backend, "backend", "clang", "external LLVM-IR compiler driver to invoke")
}

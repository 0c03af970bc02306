package main

import (
	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/compiler"
	"github.com/runalang/runac/internal/util"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "print LLIR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		opt.LastPass = ""
		m, err := compiler.Compile(opt)
		if err != nil {
			return err
		}

		w := util.NewWriter()
		w.WriteString(m.LIR.String())
		w.Close()
		return nil
	},
}

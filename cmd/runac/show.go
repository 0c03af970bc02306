package main

import (
	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/compiler"
	"github.com/runalang/runac/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "run passes up through --last and pretty-print each function's CFG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		m, err := compiler.Compile(opt)
		if err != nil {
			return err
		}

		for _, fn := range m.Funcs {
			w := util.NewWriter()
			fn.Graph.Dump(w, fn.Decl.Name)
			w.Close()
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&opt.LastPass, "last", "",
		"stop after this pass (lower, liveness, type, specialize, escape, destruct); default runs through emit")
}

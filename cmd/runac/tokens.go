package main

import (
	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/compiler"
	"github.com/runalang/runac/internal/util"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "print each token as (kind, value, (line, col))",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		toks, err := compiler.LexOnly(opt)
		if err != nil {
			return err
		}

		w := util.NewWriter()
		defer w.Close()
		for _, t := range toks {
			w.Write("(%s, %q, (%d, %d))\n", t.Kind, t.Value, t.Pos.StartLine, t.Pos.StartCol)
		}
		return nil
	},
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/runalang/runac/internal/compiler"
	"github.com/runalang/runac/internal/util"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "print the parsed AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		files, err := compiler.Parse(opt)
		if err != nil {
			return err
		}

		for _, f := range files {
			w := util.NewWriter()
			f.Dump(w)
			w.Close()
		}
		return nil
	},
}

package compiler

import (
	"golang.org/x/sync/errgroup"

	"github.com/runalang/runac/internal/check"
	"github.com/runalang/runac/internal/util"
)

// passOrder is spec.md §5's fixed pass sequence from "type" on; lex, parse
// and lower already ran by the time runPipeline is called (see Compile).
var passOrder = []string{"type", "specialize", "escape", "destruct"}

// runPipeline fans TypeCheck/Specialize/EscapeAnalyze/Destruct out across
// funcs with golang.org/x/sync/errgroup, bounded to threads concurrent
// goroutines at a time — one function's four passes run sequentially
// (Specialize needs TypeCheck's fn.RType, EscapeAnalyze needs Specialize's
// fn.Types, Destruct needs EscapeAnalyze's fn.Escaped), but independent
// functions run in parallel, mirroring vslc's per-function optimisation
// fan-out. lastPass, when one of passOrder's names, stops each function
// short of running the remaining passes (the `show --last=<pass>`
// contract); every candidate function is still tried even after one fails,
// with every resulting error collected via util.ErrorCollector rather than
// only the first (spec.md §7: "never silently continues").
func runPipeline(c *check.Checker, funcs []*check.Func, threads int, lastPass string) error {
	stopAt := len(passOrder)
	if lastPass != "" && lastPass != "emit" {
		stopAt = -1
		for i, name := range passOrder {
			if name == lastPass {
				stopAt = i + 1
				break
			}
		}
		if stopAt == -1 {
			stopAt = len(passOrder)
		}
	}

	ec := util.NewErrorCollector(len(funcs))
	defer ec.Stop()

	sem := make(chan struct{}, threads)
	var g errgroup.Group
	for _, fn := range funcs {
		fn := fn
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			ec.Append(runFuncPasses(c, fn, stopAt))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if errs := ec.Errors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// runFuncPasses runs fn through passOrder[:stopAt] in order, stopping at
// the first failing pass (a later pass's preconditions don't hold once an
// earlier one failed).
func runFuncPasses(c *check.Checker, fn *check.Func, stopAt int) error {
	passes := []func(*check.Func) error{
		c.TypeCheck,
		c.Specialize,
		c.EscapeAnalyze,
		c.Destruct,
	}
	for i := 0; i < stopAt && i < len(passes); i++ {
		if err := passes[i](fn); err != nil {
			return err
		}
	}
	return nil
}

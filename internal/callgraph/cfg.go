package callgraph

import (
	"github.com/zboralski/lattice"

	"framescan/internal/record"
)

// FuncCFG maps one emitted function record to a lattice.FuncCFG. Block
// Start/End are instruction index ranges in layout order. Taken edges of a
// fallthrough block are marked conditional.
func FuncCFG(rec *record.Record) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: rec.Function.Name}
	idx := 0
	for _, bb := range rec.Function.BBs {
		lb := &lattice.BasicBlock{
			ID:    bb.MI.Number,
			Start: idx,
			End:   idx + len(bb.MI.Instrs),
			Term:  bb.MI.EndsInReturn,
		}
		idx += len(bb.MI.Instrs)
		for _, s := range bb.MI.Succs {
			cond := ""
			if bb.MI.CanFallthrough && !s.LayoutSuccessor {
				cond = "T"
			}
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: s.Number,
				Cond:    cond,
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

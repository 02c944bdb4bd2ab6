package record

import "framescan/internal/mir"

// Walk produces one block record per basic block of fn, in layout order.
// Null or unresolvable edges are skipped and logged; they never abort the
// walk. When pretty is set, each instruction's rendered text is included in
// the block's asm list; otherwise the list stays empty.
func Walk(fn *mir.Function, pretty bool, diags *Diags) []BlockRecord {
	entry := fn.Entry()
	prologues := 0

	bbs := make([]BlockRecord, 0, len(fn.Blocks))
	for i := range fn.Blocks {
		b := &fn.Blocks[i]

		var rec BlockRecord
		if b.IR != "" {
			rec.IR = &IRRecord{Operand: b.IR}
		} else {
			diags.Addf(fn.Name, DiagMissingIR, "no IR block for machine block %d, emitting partial", b.Number)
		}

		mi := BlockFacts{
			Number:                   b.Number,
			Symbol:                   b.Symbol,
			CanFallthrough:           b.CanFallthrough,
			EndsInReturn:             b.EndsInReturn,
			IsEpilogueInsertionBlock: mir.IsEpilogueInsertionBlock(fn.Frame, b),
			IsPrologueInsertionBlock: mir.IsPrologueInsertionBlock(fn.Frame, b, entry),
			AddressTaken:             b.AddressTaken,
			HasInlineAsm:             b.HasInlineAsm(),
			Preds:                    make([]EdgeRecord, 0, len(b.Preds)),
			Succs:                    make([]SuccRecord, 0, len(b.Succs)),
			Instrs:                   make([]InstrRecord, 0, len(b.Instrs)),
			Asm:                      []string{},
		}
		if mi.IsPrologueInsertionBlock {
			prologues++
		}

		for _, p := range b.Preds {
			if p.Number < 0 {
				diags.Addf(fn.Name, DiagNullEdge, "null predecessor on block %d", b.Number)
				continue
			}
			mi.Preds = append(mi.Preds, EdgeRecord{Number: p.Number, Symbol: p.Symbol})
		}

		// Number of the next block in layout order; layout_successor is a
		// pure adjacency check against it, not a property of the edge.
		next := -1
		if i+1 < len(fn.Blocks) {
			next = fn.Blocks[i+1].Number
		}
		for _, s := range b.Succs {
			if s.Number < 0 {
				diags.Addf(fn.Name, DiagNullEdge, "null successor on block %d", b.Number)
				continue
			}
			mi.Succs = append(mi.Succs, SuccRecord{
				Number:          s.Number,
				Symbol:          s.Symbol,
				LayoutSuccessor: next >= 0 && s.Number == next,
			})
		}

		for j := range b.Instrs {
			in := &b.Instrs[j]
			mi.Instrs = append(mi.Instrs, instrFact(in))
			if pretty {
				mi.Asm = append(mi.Asm, in.Text)
			}
		}

		rec.MI = mi
		bbs = append(bbs, rec)
	}

	if prologues > 1 && !fn.Frame.SavePoint.Valid {
		diags.Addf(fn.Name, DiagMultiplePrologue, "%d prologue insertion blocks", prologues)
	}
	return bbs
}

// instrFact extracts the compact fact record for one instruction: the
// opaque opcode identity plus the frame-setup/frame-destroy markers.
func instrFact(in *mir.Instr) InstrRecord {
	return InstrRecord{
		Opcode:       in.Opcode,
		FrameSetup:   in.FrameSetup,
		FrameDestroy: in.FrameDestroy,
	}
}

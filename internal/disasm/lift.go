package disasm

import (
	"fmt"
	"sort"

	"framescan/internal/mir"
)

// span is a half-open instruction index range for one block.
type span struct{ start, end int }

// Lift partitions a function's instruction stream into basic blocks and
// derives its frame summary. The algorithm:
//  1. Find block leaders: index 0, branch targets, instructions after
//     terminators.
//  2. Partition instructions into blocks by leaders; block numbers follow
//     layout order.
//  3. Compute successor edges from each block's last instruction, then
//     mirror them into predecessor lists.
//  4. Mark frame-setup/frame-destroy instructions and fold the stack
//     effects into a mir.FrameInfo.
//
// A branch whose in-range target does not land on an instruction boundary
// produces an unresolvable edge (number -1); the walker logs and skips it.
func Lift(name string, number int, insts []Inst) mir.Function {
	fn := mir.Function{Name: name, Number: number}
	if len(insts) == 0 {
		return fn
	}

	last := insts[len(insts)-1]
	funcStart := insts[0].Addr
	funcEnd := last.Addr + uint64(last.Size)

	addrToIdx := make(map[uint64]int, len(insts))
	for i, in := range insts {
		addrToIdx[in.Addr] = i
	}

	// Pass 1: leaders.
	leaders := map[int]bool{0: true}
	for i, in := range insts {
		if in.Branch == nil {
			continue
		}
		if i+1 < len(insts) {
			leaders[i+1] = true
		}
		br := in.Branch
		if !br.IsRet && !br.Indirect && br.Target >= funcStart && br.Target < funcEnd {
			if idx, ok := addrToIdx[br.Target]; ok {
				leaders[idx] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: partition.
	spans := make([]span, len(sorted))
	leaderToBlock := make(map[int]int, len(sorted))
	for i, start := range sorted {
		end := len(insts)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		spans[i] = span{start, end}
		leaderToBlock[start] = i
	}

	blockSymbol := func(n int) string {
		if n == 0 {
			return name
		}
		return fmt.Sprintf(".L%s_%d", name, n)
	}

	// edgeTo resolves a branch target to an edge reference; unresolvable
	// in-range targets become number -1.
	edgeTo := func(target uint64) mir.EdgeRef {
		if idx, ok := addrToIdx[target]; ok {
			if bn, ok := leaderToBlock[idx]; ok {
				return mir.EdgeRef{Number: bn, Symbol: blockSymbol(bn)}
			}
		}
		return mir.EdgeRef{Number: -1}
	}

	// Pass 3: successors and block flags.
	fn.Blocks = make([]mir.Block, len(spans))
	for bi, sp := range spans {
		b := &fn.Blocks[bi]
		b.Number = bi
		b.Symbol = blockSymbol(bi)

		for i := sp.start; i < sp.end; i++ {
			b.Instrs = append(b.Instrs, mir.Instr{
				Opcode: insts[i].Op,
				Text:   insts[i].Text,
			})
		}

		term := insts[sp.end-1]
		br := term.Branch

		fallsThrough := func() {
			if next, ok := leaderToBlock[sp.end]; ok {
				b.Succs = append(b.Succs, mir.EdgeRef{Number: next, Symbol: blockSymbol(next)})
				b.CanFallthrough = true
			}
		}

		switch {
		case br == nil:
			fallsThrough()
		case br.IsRet:
			b.EndsInReturn = true
		case br.Indirect:
			// Register branch: the successor set is unknowable statically.
			b.Succs = append(b.Succs, mir.EdgeRef{Number: -1})
		case br.Target < funcStart || br.Target >= funcEnd:
			// Tail transfer out of the function: no local successor, but a
			// conditional may still fall through.
			if br.Cond {
				fallsThrough()
			}
		default:
			b.Succs = append(b.Succs, edgeTo(br.Target))
			if br.Cond {
				fallsThrough()
			}
		}
	}

	// Mirror successors into predecessor lists.
	for bi := range fn.Blocks {
		for _, s := range fn.Blocks[bi].Succs {
			if s.Number < 0 {
				continue
			}
			t := &fn.Blocks[s.Number]
			t.Preds = append(t.Preds, mir.EdgeRef{
				Number: bi,
				Symbol: blockSymbol(bi),
			})
		}
	}

	markFrame(&fn, insts, spans)
	return fn
}

// markFrame marks frame-setup/frame-destroy instruction runs, detects
// shrink-wrapped save/restore points, and derives the frame summary.
func markFrame(fn *mir.Function, insts []Inst, spans []span) {
	// The first block whose leading run matches frame-construction
	// patterns carries the setup code.
	setupBlock := -1
	for bi, sp := range spans {
		if !insts[sp.start].PrologueOp {
			continue
		}
		setupBlock = bi
		for i := sp.start; i < sp.end && insts[i].PrologueOp; i++ {
			fn.Blocks[bi].Instrs[i-sp.start].FrameSetup = true
		}
		break
	}

	// Frame destruction runs back from each return.
	destroyBlocks := 0
	lastDestroy := -1
	for bi, sp := range spans {
		if !fn.Blocks[bi].EndsInReturn {
			continue
		}
		marked := false
		for i := sp.end - 2; i >= sp.start && insts[i].EpilogueOp; i-- {
			fn.Blocks[bi].Instrs[i-sp.start].FrameDestroy = true
			marked = true
		}
		if marked {
			destroyBlocks++
			lastDestroy = bi
		}
	}

	// A setup run outside the entry block is a shrink-wrapped placement.
	if setupBlock > 0 && destroyBlocks == 1 {
		fn.Frame.SavePoint = mir.Ref(setupBlock)
		fn.Frame.RestorePoint = mir.Ref(lastDestroy)
	}

	fi := &fn.Frame
	for bi, sp := range spans {
		for i := sp.start; i < sp.end; i++ {
			in := &insts[i]
			setup := fn.Blocks[bi].Instrs[i-sp.start].FrameSetup
			destroy := fn.Blocks[bi].Instrs[i-sp.start].FrameDestroy

			switch {
			case setup:
				if in.SPDelta < 0 {
					fi.StackSize += -in.SPDelta
				}
				fi.NumFixedObjects += in.SavedRegs
				if in.SPDelta < 0 && in.SavedRegs == 0 {
					// A pure allocation reserves the local area.
					fi.NumObjects++
				}
			case destroy:
				// Restores carry no frame facts of their own.
			default:
				if in.SPDelta != 0 {
					fi.AdjustsStack = true
				}
			}

			if in.VarSP {
				fi.HasVarSizedObjects = true
			}
			if in.ReadsFP {
				fi.FrameAddressTaken = true
			}
			if in.ReadsLR {
				fi.ReturnAddressTaken = true
			}
		}
	}
	fi.NumObjects += fi.NumFixedObjects
	fi.HasStackObjects = fi.NumObjects > 0 || fi.StackSize > 0
}

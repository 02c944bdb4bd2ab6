// Package disasm decodes machine code and lifts it into the mir
// representation consumed by the record walker. Decoding produces a flat
// instruction stream annotated with the control-flow and frame facts the
// lifter needs; Lift partitions that stream into basic blocks and derives
// the function's frame summary.
package disasm

import "framescan/internal/elfx"

// BranchInfo describes a block-terminating control transfer.
type BranchInfo struct {
	Target   uint64 // absolute target, 0 when unknown
	Cond     bool   // conditional: execution may fall through
	IsRet    bool
	Indirect bool // target held in a register
}

// CallInfo describes a call site. Calls do not terminate blocks.
type CallInfo struct {
	Target   uint64
	Indirect bool
}

// Inst is one decoded instruction plus the facts the lifter consumes.
// Op is the numeric opcode in the decoder's namespace; it is carried as an
// opaque identity and never interpreted downstream.
type Inst struct {
	Addr uint64
	Size int
	Op   int
	Text string // pretty-printed form, "" when printing is disabled

	Branch *BranchInfo
	Call   *CallInfo

	PrologueOp bool  // matches a frame construction pattern
	EpilogueOp bool  // matches a frame destruction pattern
	SPDelta    int64 // static stack pointer adjustment, negative allocates
	VarSP      bool  // stack pointer moved by a register amount
	ReadsFP    bool  // frame pointer copied into a general register
	ReadsLR    bool  // return address copied into a general register
	SavedRegs  int   // callee-saved registers stored by this instruction
}

// Options controls decoding.
type Options struct {
	Base   uint64
	Pretty bool // render each instruction via the decoder's printer
}

// Decode decodes code for the given architecture into an annotated
// instruction stream. Undecodable bytes become opcode-0 filler so that
// addresses stay continuous.
func Decode(arch elfx.Arch, code []byte, opts Options) []Inst {
	switch arch {
	case elfx.ArchARM64:
		return decodeARM64(code, opts)
	case elfx.ArchAMD64:
		return decodeAMD64(code, opts)
	}
	return nil
}

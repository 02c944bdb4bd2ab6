// Package mir models the post-layout machine representation of a compiled
// function: basic blocks in layout order, their instructions, and the frame
// summary produced by the upstream frame-layout pass. The types here are
// read-only from the point of view of the fact extractor; nothing in this
// module mutates a Function after it has been built.
package mir

// BlockRef optionally designates a basic block by number. The zero value is
// an absent reference.
type BlockRef struct {
	Number int
	Valid  bool
}

// Ref returns a present reference to block n.
func Ref(n int) BlockRef { return BlockRef{Number: n, Valid: true} }

// EdgeRef names a predecessor or successor block by number and symbol.
// A negative number marks an edge whose target could not be resolved.
type EdgeRef struct {
	Number int
	Symbol string
}

// FrameInfo summarizes a function's stack frame. StackSize is passed through
// verbatim from the layout pass; it may be negative or a placeholder value
// and must not be clamped.
type FrameInfo struct {
	HasStackObjects    bool
	HasVarSizedObjects bool
	FrameAddressTaken  bool
	ReturnAddressTaken bool
	NumObjects         int
	NumFixedObjects    int
	StackSize          int64
	AdjustsStack       bool

	// SavePoint and RestorePoint are present when a shrink-wrapping pass
	// moved prologue/epilogue insertion away from the classical locations
	// (entry block, return blocks). They are always set together.
	SavePoint    BlockRef
	RestorePoint BlockRef
}

// Instr is one machine instruction. Opcode is an opaque numeric identity in
// the target decoder's namespace; it is never interpreted here. Text carries
// the pretty-printed form when the printer ran, "" otherwise.
type Instr struct {
	Opcode       int
	FrameSetup   bool
	FrameDestroy bool
	IsInlineAsm  bool
	Text         string
}

// Block is one basic block. Number is stable for the lifetime of the
// function and unique within it. IR holds the printable operand of the
// originating IR block, "" when unknown.
type Block struct {
	Number         int
	Symbol         string
	IR             string
	Preds          []EdgeRef
	Succs          []EdgeRef
	CanFallthrough bool
	EndsInReturn   bool
	AddressTaken   bool
	Instrs         []Instr
}

// HasInlineAsm reports whether any instruction in the block is inline
// assembly.
func (b *Block) HasInlineAsm() bool {
	for i := range b.Instrs {
		if b.Instrs[i].IsInlineAsm {
			return true
		}
	}
	return false
}

// Function is one compiled function. Blocks are in layout order, which is
// address order after block placement.
type Function struct {
	Name   string
	Number int
	Blocks []Block
	Frame  FrameInfo
}

// Entry returns the number of the function's first block in layout order,
// or -1 for a function with no blocks.
func (f *Function) Entry() int {
	if len(f.Blocks) == 0 {
		return -1
	}
	return f.Blocks[0].Number
}

// Module identifies the compilation unit a function came from.
type Module struct {
	Name       string
	SourceName string
}

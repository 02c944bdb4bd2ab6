// Package record walks a machine function and emits one JSON object per
// function (JSON Lines) describing its control-flow graph, frame summary,
// and per-instruction facts.
package record

import (
	"path/filepath"

	"framescan/internal/mangle"
	"framescan/internal/mir"
)

// EdgeRecord names a predecessor block.
type EdgeRecord struct {
	Number int    `json:"number"`
	Symbol string `json:"symbol"`
}

// SuccRecord names a successor block. LayoutSuccessor reports whether the
// successor is the very next block in layout order.
type SuccRecord struct {
	Number          int    `json:"number"`
	Symbol          string `json:"symbol"`
	LayoutSuccessor bool   `json:"layout_successor"`
}

// InstrRecord is the compact fact record for one instruction.
type InstrRecord struct {
	Opcode       int  `json:"opcode"`
	FrameSetup   bool `json:"frame_setup"`
	FrameDestroy bool `json:"frame_destroy"`
}

// IRRecord points at the originating IR block, when known.
type IRRecord struct {
	Operand string `json:"operand"`
}

// BlockFacts is the machine-level portion of a block record.
type BlockFacts struct {
	Number                   int           `json:"number"`
	Symbol                   string        `json:"symbol"`
	CanFallthrough           bool          `json:"can_fallthrough"`
	EndsInReturn             bool          `json:"ends_in_return"`
	IsEpilogueInsertionBlock bool          `json:"is_epilogue_insertion_block"`
	IsPrologueInsertionBlock bool          `json:"is_prologue_insertion_block"`
	AddressTaken             bool          `json:"address_taken"`
	HasInlineAsm             bool          `json:"has_inline_asm"`
	Preds                    []EdgeRecord  `json:"preds"`
	Succs                    []SuccRecord  `json:"succs"`
	Instrs                   []InstrRecord `json:"instrs"`
	Asm                      []string      `json:"asm"`
}

// BlockRecord is one basic block of the output record.
type BlockRecord struct {
	IR *IRRecord  `json:"ir,omitempty"`
	MI BlockFacts `json:"mi"`
}

// FrameInfoRecord mirrors mir.FrameInfo in the output shape.
type FrameInfoRecord struct {
	HasStackObjects      bool  `json:"has_stack_objects"`
	HasVariadicObjects   bool  `json:"has_variadic_objects"`
	IsFrameAddressTaken  bool  `json:"is_frame_address_taken"`
	IsReturnAddressTaken bool  `json:"is_return_address_taken"`
	NumObjects           int   `json:"num_objects"`
	NumFixedObjects      int   `json:"num_fixed_objects"`
	StackSize            int64 `json:"stack_size"`
	AdjustsStack         bool  `json:"adjusts_stack"`
}

// FunctionRecord is the per-function portion of the output record.
type FunctionRecord struct {
	Operand       string          `json:"operand"`
	Name          string          `json:"name"`
	Number        int             `json:"number"`
	IsMangled     bool            `json:"is_mangled"`
	DemangledName string          `json:"demangled_name"`
	FrameInfo     FrameInfoRecord `json:"frame_info"`
	BBs           []BlockRecord   `json:"bbs"`
}

// ModuleRecord carries module provenance.
type ModuleRecord struct {
	ModuleName string `json:"module_name"`
	ModuleStem string `json:"module_stem"`
	SourceName string `json:"source_name"`
	SourceStem string `json:"source_stem"`
}

// Record is the complete output object for one function.
type Record struct {
	Function FunctionRecord `json:"function"`
	Module   ModuleRecord   `json:"module"`
}

// Assemble builds the complete output record for one function from the
// walker's block records and the module provenance.
func Assemble(fn *mir.Function, mod *mir.Module, bbs []BlockRecord) Record {
	return Record{
		Function: FunctionRecord{
			Operand:       "@" + fn.Name,
			Name:          fn.Name,
			Number:        fn.Number,
			IsMangled:     mangle.IsItaniumEncoding(fn.Name),
			DemangledName: mangle.Demangle(fn.Name),
			FrameInfo: FrameInfoRecord{
				HasStackObjects:      fn.Frame.HasStackObjects,
				HasVariadicObjects:   fn.Frame.HasVarSizedObjects,
				IsFrameAddressTaken:  fn.Frame.FrameAddressTaken,
				IsReturnAddressTaken: fn.Frame.ReturnAddressTaken,
				NumObjects:           fn.Frame.NumObjects,
				NumFixedObjects:      fn.Frame.NumFixedObjects,
				StackSize:            fn.Frame.StackSize,
				AdjustsStack:         fn.Frame.AdjustsStack,
			},
			BBs: bbs,
		},
		Module: ModuleRecord{
			ModuleName: mod.Name,
			ModuleStem: stem(mod.Name),
			SourceName: mod.SourceName,
			SourceStem: stem(mod.SourceName),
		},
	}
}

// stem returns the base name of a path without its final extension.
func stem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = base[:len(base)-len(ext)]
	}
	return base
}

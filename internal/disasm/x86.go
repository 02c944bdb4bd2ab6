package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// decodeAMD64 decodes variable-length x86-64 instructions, resynchronizing
// one byte at a time on decode failure.
func decodeAMD64(code []byte, opts Options) []Inst {
	var insts []Inst
	off := 0
	for off < len(code) {
		addr := opts.Base + uint64(off)

		dec, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			in := Inst{Addr: addr, Size: 1}
			if opts.Pretty {
				in.Text = fmt.Sprintf(".byte 0x%02x", code[off])
			}
			insts = append(insts, in)
			off++
			continue
		}

		in := Inst{Addr: addr, Size: dec.Len, Op: int(dec.Op)}
		if opts.Pretty {
			in.Text = x86asm.IntelSyntax(dec, addr, nil)
		}

		in.Branch = decodeBranchAMD64(dec, addr)
		in.Call = decodeCallAMD64(dec, addr)
		classifyFrameAMD64(dec, &in)

		insts = append(insts, in)
		off += dec.Len
	}
	return insts
}

// relTarget resolves a relative branch operand to an absolute address.
func relTarget(arg x86asm.Arg, pc uint64, size int) (uint64, bool) {
	rel, ok := arg.(x86asm.Rel)
	if !ok {
		return 0, false
	}
	return uint64(int64(pc) + int64(size) + int64(rel)), true
}

func isCondJump(op x86asm.Op) bool {
	switch op {
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ,
		x86asm.JE, x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL,
		x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS,
		x86asm.JO, x86asm.JP, x86asm.JRCXZ, x86asm.JS:
		return true
	}
	return false
}

func decodeBranchAMD64(dec x86asm.Inst, pc uint64) *BranchInfo {
	switch {
	case dec.Op == x86asm.RET:
		return &BranchInfo{IsRet: true}
	case dec.Op == x86asm.JMP:
		if target, ok := relTarget(dec.Args[0], pc, dec.Len); ok {
			return &BranchInfo{Target: target}
		}
		return &BranchInfo{Indirect: true}
	case isCondJump(dec.Op):
		target, _ := relTarget(dec.Args[0], pc, dec.Len)
		return &BranchInfo{Target: target, Cond: true}
	}
	return nil
}

func decodeCallAMD64(dec x86asm.Inst, pc uint64) *CallInfo {
	if dec.Op != x86asm.CALL {
		return nil
	}
	if target, ok := relTarget(dec.Args[0], pc, dec.Len); ok {
		return &CallInfo{Target: target}
	}
	return &CallInfo{Indirect: true}
}

// isCalleeSavedAMD64 reports whether reg is callee-saved under the System V
// AMD64 ABI.
func isCalleeSavedAMD64(reg x86asm.Reg) bool {
	switch reg {
	case x86asm.RBX, x86asm.RBP, x86asm.R12, x86asm.R13, x86asm.R14, x86asm.R15:
		return true
	}
	return false
}

// classifyFrameAMD64 marks frame construction/destruction patterns and
// stack pointer effects.
func classifyFrameAMD64(dec x86asm.Inst, in *Inst) {
	switch dec.Op {
	case x86asm.PUSH:
		in.SPDelta = -8
		if reg, ok := dec.Args[0].(x86asm.Reg); ok && isCalleeSavedAMD64(reg) {
			in.PrologueOp = true
			in.SavedRegs = 1
		}

	case x86asm.POP:
		in.SPDelta = 8
		if reg, ok := dec.Args[0].(x86asm.Reg); ok && isCalleeSavedAMD64(reg) {
			in.EpilogueOp = true
		}

	case x86asm.MOV:
		switch {
		case dec.Args[0] == x86asm.RBP && dec.Args[1] == x86asm.RSP:
			in.PrologueOp = true
		case dec.Args[0] == x86asm.RSP && dec.Args[1] == x86asm.RBP:
			in.EpilogueOp = true
		case dec.Args[1] == x86asm.RBP:
			if reg, ok := dec.Args[0].(x86asm.Reg); ok && reg != x86asm.RSP {
				in.ReadsFP = true
			}
		}

	case x86asm.SUB:
		if dec.Args[0] == x86asm.RSP {
			if imm, ok := dec.Args[1].(x86asm.Imm); ok {
				in.PrologueOp = true
				in.SPDelta = -int64(imm)
			} else {
				in.VarSP = true
			}
		}

	case x86asm.ADD:
		if dec.Args[0] == x86asm.RSP {
			if imm, ok := dec.Args[1].(x86asm.Imm); ok {
				in.EpilogueOp = true
				in.SPDelta = int64(imm)
			} else {
				in.VarSP = true
			}
		}

	case x86asm.LEA:
		if dec.Args[0] == x86asm.RSP {
			in.VarSP = true
		}

	case x86asm.LEAVE:
		in.EpilogueOp = true
	}
}

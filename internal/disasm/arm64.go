package disasm

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

// decodeARM64 decodes fixed-width ARM64 instructions. Branch and frame
// facts come from the raw encodings; the arm64asm decoder supplies the
// opcode identity and the pretty-printed text.
func decodeARM64(code []byte, opts Options) []Inst {
	insts := make([]Inst, 0, len(code)/4)
	for off := 0; off+4 <= len(code); off += 4 {
		raw := binary.LittleEndian.Uint32(code[off : off+4])
		addr := opts.Base + uint64(off)
		in := Inst{Addr: addr, Size: 4}

		dec, err := arm64asm.Decode(code[off : off+4])
		if err == nil {
			in.Op = int(dec.Op)
			if opts.Pretty {
				in.Text = dec.String()
			}
		} else if opts.Pretty {
			in.Text = fmt.Sprintf(".word 0x%08x", raw)
		}

		in.Branch = decodeBranchARM64(raw, addr)
		in.Call = decodeCallARM64(raw, addr)
		classifyFrameARM64(raw, &in)

		insts = append(insts, in)
	}
	return insts
}

// decodeBranchARM64 identifies basic-block terminators from the raw 32-bit
// encoding. BL/BLR are calls, not terminators.
func decodeBranchARM64(raw uint32, pc uint64) *BranchInfo {
	// RET (including RET Xn)
	if raw&0xFFFFFC1F == 0xD65F0000 {
		return &BranchInfo{IsRet: true}
	}

	// BR Xn — unconditional register branch
	if raw&0xFFFFFC1F == 0xD61F0000 {
		return &BranchInfo{Indirect: true}
	}

	// B: 000101 imm26
	if raw&0xFC000000 == 0x14000000 {
		imm26 := raw & 0x03FFFFFF
		offset := signExtend(imm26, 26) * 4
		return &BranchInfo{Target: uint64(int64(pc) + int64(offset))}
	}

	// B.cond: 01010100 imm19 0 cond
	if raw&0xFF000010 == 0x54000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		offset := signExtend(imm19, 19) * 4
		return &BranchInfo{Target: uint64(int64(pc) + int64(offset)), Cond: true}
	}

	// CBZ / CBNZ: 0 sf 11010 x imm19 Rt
	if raw&0x7E000000 == 0x34000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		offset := signExtend(imm19, 19) * 4
		return &BranchInfo{Target: uint64(int64(pc) + int64(offset)), Cond: true}
	}

	// TBZ / TBNZ: b5 11011 x b40 imm14 Rt
	if raw&0x7E000000 == 0x36000000 {
		imm14 := (raw >> 5) & 0x3FFF
		offset := signExtend(imm14, 14) * 4
		return &BranchInfo{Target: uint64(int64(pc) + int64(offset)), Cond: true}
	}

	return nil
}

// decodeCallARM64 identifies BL/BLR call sites.
func decodeCallARM64(raw uint32, pc uint64) *CallInfo {
	// BL: 100101 imm26
	if raw&0xFC000000 == 0x94000000 {
		imm26 := raw & 0x03FFFFFF
		offset := signExtend(imm26, 26) * 4
		return &CallInfo{Target: uint64(int64(pc) + int64(offset))}
	}
	// BLR Xn
	if raw&0xFFFFFC1F == 0xD63F0000 {
		return &CallInfo{Indirect: true}
	}
	return nil
}

const regSP = 31

// classifyFrameARM64 marks frame construction/destruction patterns and
// stack pointer effects from the raw encoding.
func classifyFrameARM64(raw uint32, in *Inst) {
	rd := raw & 0x1F
	rn := (raw >> 5) & 0x1F

	switch {
	// stp Xt1, Xt2, [sp, #-N]! — store pair with pre-index writeback
	case raw&0xFFC00000 == 0xA9800000 && rn == regSP:
		imm7 := int64(signExtend((raw>>15)&0x7F, 7)) * 8
		in.PrologueOp = true
		in.SavedRegs = 2
		in.SPDelta = imm7

	// stp Xt1, Xt2, [sp, #N] — store pair into the save area
	case raw&0xFFC00000 == 0xA9000000 && rn == regSP:
		in.PrologueOp = true
		in.SavedRegs = 2

	// ldp Xt1, Xt2, [sp], #N — load pair with post-index writeback
	case raw&0xFFC00000 == 0xA8C00000 && rn == regSP:
		imm7 := int64(signExtend((raw>>15)&0x7F, 7)) * 8
		in.EpilogueOp = true
		in.SPDelta = imm7

	// ldp Xt1, Xt2, [sp, #N] — restore from the save area
	case raw&0xFFC00000 == 0xA9400000 && rn == regSP:
		in.EpilogueOp = true

	// str x30, [sp, #-N]! — lone link register spill
	case raw&0xFFE00C00 == 0xF8000C00 && rd == 30 && rn == regSP:
		imm9 := int64(signExtend((raw>>12)&0x1FF, 9))
		in.PrologueOp = true
		in.SavedRegs = 1
		in.SPDelta = imm9

	// ldr x30, [sp], #N — link register reload
	case raw&0xFFE00C00 == 0xF8400400 && rd == 30 && rn == regSP:
		imm9 := int64(signExtend((raw>>12)&0x1FF, 9))
		in.EpilogueOp = true
		in.SPDelta = imm9

	// mov x29, sp
	case raw == 0x910003FD:
		in.PrologueOp = true

	// mov sp, x29
	case raw == 0x910003BF:
		in.EpilogueOp = true

	// sub sp, sp, #imm
	case raw&0xFF800000 == 0xD1000000 && rd == regSP && rn == regSP:
		imm := int64((raw >> 10) & 0xFFF)
		if raw&(1<<22) != 0 {
			imm <<= 12
		}
		in.PrologueOp = true
		in.SPDelta = -imm

	// add sp, sp, #imm
	case raw&0xFF800000 == 0x91000000 && rd == regSP && rn == regSP:
		imm := int64((raw >> 10) & 0xFFF)
		if raw&(1<<22) != 0 {
			imm <<= 12
		}
		in.EpilogueOp = true
		in.SPDelta = imm

	// sub sp, sp, Xm (extended register) — variable-sized allocation
	case raw&0xFFE00000 == 0xCB200000 && rd == regSP && rn == regSP:
		in.VarSP = true

	// mov Xd, x29 — frame address escapes into a general register
	case raw&0xFFFFFFE0 == 0xAA1D03E0 && rd != regSP:
		in.ReadsFP = true

	// mov Xd, x30 — return address escapes
	case raw&0xFFFFFFE0 == 0xAA1E03E0 && rd != regSP:
		in.ReadsLR = true
	}
}

// signExtend sign-extends a value from the given bit width.
func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	mask := sign - 1
	if val&sign != 0 {
		return int32(val | ^mask)
	}
	return int32(val & mask)
}

package disasm

import (
	"encoding/binary"
	"testing"
)

// words packs ARM64 instruction words into little-endian bytes.
func words(ws ...uint32) []byte {
	buf := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// ARM64 instruction encodings used across these tests:
//	stp x29, x30, [sp, #-16]! = 0xa9bf7bfd
//	mov x29, sp               = 0x910003fd
//	sub sp, sp, #0x20         = 0xd10083ff
//	ldp x29, x30, [sp], #16   = 0xa8c17bfd
//	add sp, sp, #0x20         = 0x910083ff
//	nop                       = 0xd503201f
//	ret                       = 0xd65f03c0

func TestDecodeARM64PrologueFacts(t *testing.T) {
	insts := decodeARM64(words(0xa9bf7bfd, 0x910003fd, 0xd10083ff), Options{Base: 0x1000})
	if len(insts) != 3 {
		t.Fatalf("insts = %d, want 3", len(insts))
	}

	stp := insts[0]
	if !stp.PrologueOp || stp.SavedRegs != 2 || stp.SPDelta != -16 {
		t.Errorf("stp facts = %+v", stp)
	}
	mov := insts[1]
	if !mov.PrologueOp || mov.SPDelta != 0 {
		t.Errorf("mov x29, sp facts = %+v", mov)
	}
	sub := insts[2]
	if !sub.PrologueOp || sub.SPDelta != -0x20 {
		t.Errorf("sub sp facts = %+v", sub)
	}
}

func TestDecodeARM64EpilogueFacts(t *testing.T) {
	insts := decodeARM64(words(0x910083ff, 0xa8c17bfd, 0xd65f03c0), Options{})

	add := insts[0]
	if !add.EpilogueOp || add.SPDelta != 0x20 {
		t.Errorf("add sp facts = %+v", add)
	}
	ldp := insts[1]
	if !ldp.EpilogueOp || ldp.SPDelta != 16 {
		t.Errorf("ldp facts = %+v", ldp)
	}
	ret := insts[2]
	if ret.Branch == nil || !ret.Branch.IsRet {
		t.Errorf("ret facts = %+v", ret)
	}
}

func TestDecodeBranchARM64(t *testing.T) {
	tests := []struct {
		name string
		raw  uint32
		pc   uint64
		want *BranchInfo
	}{
		{"ret", 0xd65f03c0, 0x1000, &BranchInfo{IsRet: true}},
		{"br x8", 0xd61f0100, 0x1000, &BranchInfo{Indirect: true}},
		{"b +8", 0x14000002, 0x2000, &BranchInfo{Target: 0x2008}},
		{"b.eq +0x10", 0x54000080, 0x1000, &BranchInfo{Target: 0x1010, Cond: true}},
		{"cbz x0, +8", 0xb4000040, 0x1000, &BranchInfo{Target: 0x1008, Cond: true}},
		{"b -8", 0x17fffffe, 0x2000, &BranchInfo{Target: 0x1ff8}},
		{"bl is not a terminator", 0x94000040, 0x1000, nil},
		{"nop", 0xd503201f, 0x1000, nil},
	}
	for _, tt := range tests {
		got := decodeBranchARM64(tt.raw, tt.pc)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
			continue
		}
		if got != nil && *got != *tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, *got, *tt.want)
		}
	}
}

func TestDecodeCallARM64(t *testing.T) {
	// bl +0x100
	c := decodeCallARM64(0x94000040, 0x1000)
	if c == nil || c.Target != 0x1100 || c.Indirect {
		t.Errorf("bl call = %+v", c)
	}
	// blr x8
	c = decodeCallARM64(0xd63f0100, 0x1000)
	if c == nil || !c.Indirect {
		t.Errorf("blr call = %+v", c)
	}
	if decodeCallARM64(0xd503201f, 0) != nil {
		t.Error("nop classified as call")
	}
}

func TestDecodeARM64EscapeFacts(t *testing.T) {
	// mov x0, x29; mov x1, x30
	insts := decodeARM64(words(0xaa1d03e0, 0xaa1e03e1), Options{})
	if !insts[0].ReadsFP {
		t.Errorf("mov x0, x29 facts = %+v", insts[0])
	}
	if !insts[1].ReadsLR {
		t.Errorf("mov x1, x30 facts = %+v", insts[1])
	}
}

func TestDecodeARM64PrettyGated(t *testing.T) {
	plain := decodeARM64(words(0xd65f03c0), Options{})
	if plain[0].Text != "" {
		t.Errorf("text = %q, want empty without pretty printing", plain[0].Text)
	}
	pretty := decodeARM64(words(0xd65f03c0), Options{Pretty: true})
	if pretty[0].Text == "" {
		t.Error("text empty with pretty printing enabled")
	}
	if plain[0].Op != pretty[0].Op {
		t.Error("opcode identity differs with pretty printing")
	}
}

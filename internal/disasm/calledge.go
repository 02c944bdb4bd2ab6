package disasm

import "fmt"

// SymbolLookup resolves an address to a symbolic name. Returns ("", false)
// if unknown.
type SymbolLookup func(addr uint64) (name string, ok bool)

// CallEdgeRecord is one static call site, emitted to the call-edge sidecar
// stream.
type CallEdgeRecord struct {
	Caller   string `json:"caller"`
	FromPC   string `json:"from_pc"`
	Target   string `json:"target"`
	Indirect bool   `json:"indirect,omitempty"`
}

// CallEdges extracts the call sites of one function. Direct targets are
// named through lookup when possible, falling back to the raw address;
// indirect calls keep an empty target.
func CallEdges(caller string, insts []Inst, lookup SymbolLookup) []CallEdgeRecord {
	var edges []CallEdgeRecord
	for i := range insts {
		c := insts[i].Call
		if c == nil {
			continue
		}
		rec := CallEdgeRecord{
			Caller:   caller,
			FromPC:   fmt.Sprintf("0x%x", insts[i].Addr),
			Indirect: c.Indirect,
		}
		if !c.Indirect {
			if name, ok := lookupName(lookup, c.Target); ok {
				rec.Target = name
			} else {
				rec.Target = fmt.Sprintf("0x%x", c.Target)
			}
		}
		edges = append(edges, rec)
	}
	return edges
}

func lookupName(lookup SymbolLookup, addr uint64) (string, bool) {
	if lookup == nil {
		return "", false
	}
	return lookup(addr)
}

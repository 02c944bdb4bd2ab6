// Package callgraph converts emitted function records and call-edge sidecar
// streams into lattice graph types for DOT rendering.
package callgraph

import (
	"github.com/zboralski/lattice"

	"framescan/internal/disasm"
)

// BuildCallGraph folds call sites into a deduplicated caller/callee graph.
// Each caller becomes a node; each resolved target becomes an edge. Indirect
// sites carry no target and are skipped.
func BuildCallGraph(edges []disasm.CallEdgeRecord) *lattice.Graph {
	g := &lattice.Graph{}
	seen := make(map[string]bool)
	for _, e := range edges {
		if !seen[e.Caller] {
			seen[e.Caller] = true
			g.Nodes = append(g.Nodes, e.Caller)
		}
		if e.Target == "" {
			continue
		}
		g.Edges = append(g.Edges, lattice.Edge{Caller: e.Caller, Callee: e.Target})
	}
	g.Dedup()
	return g
}

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"framescan/internal/callgraph"
	"framescan/internal/disasm"
	"framescan/internal/record"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	in := fs.String("in", "records.jsonl", "record stream from scan")
	edges := fs.String("edges", "", "call-edge sidecar from scan (empty skips the call graph)")
	outDir := fs.String("out", "", "output directory for DOT files")
	maxFuncs := fs.Int("max-funcs", 0, "cap per-function CFG renders (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return fmt.Errorf("--out is required")
	}

	cfgDir := filepath.Join(*outDir, "cfg")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", cfgDir, err)
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	var rendered, seen int
	for {
		var rec record.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read %s: %w", *in, err)
		}
		seen++

		// Single-block functions render as one box; skip them.
		if len(rec.Function.BBs) < 2 {
			continue
		}
		if *maxFuncs > 0 && rendered >= *maxFuncs {
			continue
		}

		lcfg := callgraph.FuncCFG(&rec)
		g := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}
		dot := render.DOTCFG(g, rec.Function.Name)
		path := filepath.Join(cfgDir, safeFileName(rec.Function.Name)+".dot")
		if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write cfg dot %s: %w", path, err)
		}
		rendered++
	}

	fmt.Fprintf(os.Stderr, "Rendered %d of %d function CFGs to %s\n", rendered, seen, cfgDir)

	if *edges != "" {
		sites, err := readCallEdges(*edges)
		if err != nil {
			return err
		}
		cg := callgraph.BuildCallGraph(sites)
		path := filepath.Join(*outDir, "callgraph.dot")
		if err := os.WriteFile(path, []byte(render.DOT(cg, "call graph")), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote call graph (%d edges) to %s\n", len(cg.Edges), path)
	}
	return nil
}

func readCallEdges(path string) ([]disasm.CallEdgeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var sites []disasm.CallEdgeRecord
	dec := json.NewDecoder(f)
	for {
		var e disasm.CallEdgeRecord
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		sites = append(sites, e)
	}
	return sites, nil
}

// safeFileName maps a symbol name to a filesystem-safe base name. Mangled
// C++ names survive unchanged; anything path-hostile becomes '_'.
func safeFileName(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '.' || r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if len(s) > 120 {
		s = s[:120]
	}
	if s == "" {
		s = "_"
	}
	return s
}

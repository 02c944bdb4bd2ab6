package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"framescan/internal/disasm"
	"framescan/internal/elfx"
	"framescan/internal/mir"
	"framescan/internal/record"
)

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ELF binary")
	out := fs.String("out", "records.jsonl", "output record stream")
	diag := fs.String("diag", "", "diagnostic stream (empty discards)")
	edges := fs.String("edges", "", "call-edge sidecar stream (empty disables)")
	pretty := fs.Bool("pretty", false, "include pretty-printed instruction text")
	limit := fs.Int("limit", 0, "stop after n functions (0 = all)")
	confPath := fs.String("config", defaultConfigName, "TOML file with flag defaults")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" {
		return fmt.Errorf("--bin is required")
	}

	explicit := setFlags(fs)
	conf, err := loadScanConfig(*confPath, explicit["config"])
	if err != nil {
		return err
	}
	if !explicit["out"] && conf.Out != "" {
		*out = conf.Out
	}
	if !explicit["diag"] && conf.Diag != "" {
		*diag = conf.Diag
	}
	if !explicit["edges"] && conf.Edges != "" {
		*edges = conf.Edges
	}
	if !explicit["pretty"] && conf.Pretty {
		*pretty = true
	}
	if !explicit["limit"] && conf.Limit > 0 {
		*limit = conf.Limit
	}

	ef, err := elfx.Open(*bin)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer ef.Close()

	funcs, err := ef.Funcs()
	if err != nil {
		return fmt.Errorf("symbols: %w", err)
	}

	mod := &mir.Module{Name: ef.Path(), SourceName: ef.SourceFile()}

	emitter, err := record.Open(record.Config{
		Enabled:     true,
		PrettyPrint: *pretty,
		OutputPath:  *out,
		DiagPath:    *diag,
	})
	if err != nil {
		return err
	}
	defer emitter.Close()

	var edgesEnc *json.Encoder
	if *edges != "" {
		f, err := os.Create(*edges)
		if err != nil {
			return fmt.Errorf("create %s: %w", *edges, err)
		}
		defer f.Close()
		edgesEnc = json.NewEncoder(f)
		edgesEnc.SetEscapeHTML(false)
	}

	// Name calls by the symbol that starts at the target address.
	byAddr := make(map[uint64]string, len(funcs))
	for _, f := range funcs {
		byAddr[f.Addr] = f.Name
	}
	lookup := func(addr uint64) (string, bool) {
		name, ok := byAddr[addr]
		return name, ok
	}

	var written, skipped, totalEdges int
	for i, sym := range funcs {
		if *limit > 0 && written >= *limit {
			break
		}

		code, err := ef.ReadVA(sym.Addr, sym.Size)
		if err != nil {
			emitter.Warn(record.Diag{Func: sym.Name, Kind: record.DiagSkipped, Msg: err.Error()})
			skipped++
			continue
		}

		insts := disasm.Decode(ef.Arch(), code, disasm.Options{Base: sym.Addr, Pretty: *pretty})
		fn := disasm.Lift(sym.Name, i, insts)
		if emitter.Emit(&fn, mod) {
			written++
		} else {
			skipped++
		}

		if edgesEnc != nil {
			for _, e := range disasm.CallEdges(sym.Name, insts, lookup) {
				if err := edgesEnc.Encode(e); err != nil {
					return fmt.Errorf("write %s: %w", *edges, err)
				}
				totalEdges++
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Wrote %d records to %s (%d skipped)\n", written, *out, skipped)
	if edgesEnc != nil {
		fmt.Fprintf(os.Stderr, "Wrote %d call edges to %s\n", totalEdges, *edges)
	}
	return nil
}

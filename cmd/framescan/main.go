package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `framescan — compiled-function CFG and frame fact extractor

Usage:
  framescan scan  --bin <path> [--out records.jsonl]   Lift every function and emit fact records
  framescan graph --in records.jsonl --out <dir>       Render DOT CFGs and call graph from records

Flags:
  --bin <path>        Path to a 64-bit ARM64 or x86-64 ELF binary
  --out <path|dir>    Output stream (scan) or output directory (graph)
  --diag <path>       Diagnostic stream; omitted means diagnostics are discarded
  --edges <path>      Call-edge sidecar stream (scan) or input (graph)
  --pretty            Include pretty-printed instruction text per block
  --limit <n>         Stop after n functions
  --config <path>     TOML file with scan flag defaults (default framescan.toml)
  --max-funcs <n>     Cap the number of per-function CFG renders
`)
}

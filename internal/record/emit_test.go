package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"framescan/internal/mir"
)

// single builds the end-to-end scenario function: one block, one
// instruction, no stack objects, ending in a return.
func single() mir.Function {
	return mir.Function{
		Name:   "_Z3foov",
		Number: 7,
		Blocks: []mir.Block{{
			Number: 0, Symbol: "_Z3foov",
			EndsInReturn: true,
			Instrs:       []mir.Instr{{Opcode: 4086, Text: "ret"}},
		}},
	}
}

func testModule() mir.Module {
	return mir.Module{Name: "app/libdemo.so", SourceName: "demo.cc"}
}

func openTestEmitter(t *testing.T, cfg Config) (*Emitter, string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg.Enabled = true
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(dir, "records.jsonl")
	}
	if cfg.DiagPath == "discard" {
		cfg.DiagPath = ""
	} else if cfg.DiagPath == "" {
		cfg.DiagPath = filepath.Join(dir, "diag.log")
	}
	e, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e, cfg.OutputPath, cfg.DiagPath
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestEmitSingleBlockRecord(t *testing.T) {
	e, out, _ := openTestEmitter(t, Config{})
	fn := single()
	mod := testModule()
	if !e.Emit(&fn, &mod) {
		t.Fatal("Emit = false, want true")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, out)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}

	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("emitted line is not valid JSON: %v", err)
	}

	f := rec.Function
	if f.Name != "_Z3foov" || f.Operand != "@_Z3foov" || f.Number != 7 {
		t.Errorf("function header = %+v", f)
	}
	if !f.IsMangled {
		t.Error("is_mangled = false, want true")
	}
	if f.DemangledName != "foo()" {
		t.Errorf("demangled_name = %q, want foo()", f.DemangledName)
	}
	if f.FrameInfo.NumObjects != 0 || f.FrameInfo.StackSize != 0 {
		t.Errorf("frame_info = %+v, want zero frame", f.FrameInfo)
	}
	if len(f.BBs) != 1 {
		t.Fatalf("bbs = %d, want 1", len(f.BBs))
	}
	mi := f.BBs[0].MI
	if len(mi.Instrs) != 1 {
		t.Errorf("instrs = %d, want 1", len(mi.Instrs))
	}
	if !mi.EndsInReturn {
		t.Error("ends_in_return = false")
	}
	// Entry block and only return block coincide.
	if !mi.IsEpilogueInsertionBlock || !mi.IsPrologueInsertionBlock {
		t.Error("single block should be both insertion sites")
	}
	if len(mi.Preds) != 0 || len(mi.Succs) != 0 {
		t.Errorf("preds/succs = %d/%d, want 0/0", len(mi.Preds), len(mi.Succs))
	}
	if rec.Module.ModuleStem != "libdemo" || rec.Module.SourceStem != "demo" {
		t.Errorf("module = %+v", rec.Module)
	}
}

func TestEmitDeterministic(t *testing.T) {
	e, out, _ := openTestEmitter(t, Config{})
	fn := single()
	mod := testModule()
	e.Emit(&fn, &mod)
	e.Emit(&fn, &mod)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, out)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0] != lines[1] {
		t.Errorf("records differ across identical walks:\n%s\n%s", lines[0], lines[1])
	}
}

func TestEmitRoundTrip(t *testing.T) {
	e, out, _ := openTestEmitter(t, Config{PrettyPrint: true})
	fn := chain()
	fn.Blocks[0].Instrs = []mir.Instr{{Opcode: 12, FrameSetup: true, Text: "sub sp, sp, #0x20"}}
	mod := testModule()
	e.Emit(&fn, &mod)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	line := readLines(t, out)[0]
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatal(err)
	}
	again, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var rec2 Record
	if err := json.Unmarshal(again, &rec2); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rec, rec2) {
		t.Error("re-serialized record is not field-for-field equal")
	}
}

func TestEmitSkipsFunctionWithoutModule(t *testing.T) {
	e, out, diag := openTestEmitter(t, Config{})
	fn := single()
	if e.Emit(&fn, nil) {
		t.Error("Emit = true for function without module")
	}
	if e.Emit(&fn, &mir.Module{}) {
		t.Error("Emit = true for empty module")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	if lines := readLines(t, out); len(lines) != 0 {
		t.Errorf("lines = %d, want 0 (no partial records)", len(lines))
	}
	diagLines := readLines(t, diag)
	if len(diagLines) != 2 {
		t.Fatalf("diag lines = %d, want 2", len(diagLines))
	}
	if !strings.Contains(diagLines[0], string(DiagSkipped)) {
		t.Errorf("diag line = %q, want %s kind", diagLines[0], DiagSkipped)
	}
}

func TestEmitAnomalyDiagLine(t *testing.T) {
	e, out, diag := openTestEmitter(t, Config{})
	fn := chain()
	fn.Blocks[1].Succs = append(fn.Blocks[1].Succs, mir.EdgeRef{Number: -1})
	mod := testModule()
	if !e.Emit(&fn, &mod) {
		t.Fatal("Emit = false, want true (anomalies never abort)")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	if lines := readLines(t, out); len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	var nullLines int
	for _, l := range readLines(t, diag) {
		if strings.Contains(l, string(DiagNullEdge)) {
			nullLines++
		}
	}
	if nullLines != 1 {
		t.Errorf("null edge diag lines = %d, want exactly 1", nullLines)
	}
}

func TestEmitDiagnosticsDiscardedByDefault(t *testing.T) {
	e, _, _ := openTestEmitter(t, Config{DiagPath: "discard"})
	fn := single()
	if e.Emit(&fn, nil) {
		t.Error("Emit = true, want false")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEmitDisabled(t *testing.T) {
	e, err := Open(Config{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	fn := single()
	mod := testModule()
	if e.Emit(&fn, &mod) {
		t.Error("disabled emitter wrote a record")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenFatalOnBadPath(t *testing.T) {
	_, err := Open(Config{Enabled: true, OutputPath: filepath.Join(t.TempDir(), "no", "such", "dir", "out.jsonl")})
	if err == nil {
		t.Fatal("Open succeeded on unopenable output path")
	}
	_, err = Open(Config{
		Enabled:    true,
		OutputPath: filepath.Join(t.TempDir(), "out.jsonl"),
		DiagPath:   filepath.Join(t.TempDir(), "no", "such", "dir", "diag.log"),
	})
	if err == nil {
		t.Fatal("Open succeeded on unopenable diagnostic path")
	}
}

func TestStem(t *testing.T) {
	tests := []struct{ in, want string }{
		{"app/libdemo.so", "libdemo"},
		{"demo.cc", "demo"},
		{"noext", "noext"},
		{"", ""},
		{".hidden", ".hidden"},
	}
	for _, tt := range tests {
		if got := stem(tt.in); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package record

import (
	"encoding/json"
	"fmt"
	"os"

	"framescan/internal/mir"
)

// Config controls the emitter. There are no process-wide toggles; the whole
// configuration is passed in at construction.
type Config struct {
	Enabled     bool
	PrettyPrint bool
	OutputPath  string
	DiagPath    string // "" discards diagnostics
}

// Emitter appends one JSON line per processed function to the primary
// stream and free-form warnings to the optional diagnostic stream. Both
// streams are opened once, before the first function, and closed once after
// the last. The emitter is not safe for concurrent use; the pipeline feeds
// it one function at a time.
type Emitter struct {
	cfg  Config
	out  *os.File
	enc  *json.Encoder
	diag *os.File
}

// Open creates the output streams. A stream that cannot be opened is fatal:
// the error is returned before any function is processed. A disabled config
// yields an emitter whose Emit is a no-op.
func Open(cfg Config) (*Emitter, error) {
	e := &Emitter{cfg: cfg}
	if !cfg.Enabled {
		return e, nil
	}

	if cfg.DiagPath != "" {
		f, err := os.Create(cfg.DiagPath)
		if err != nil {
			return nil, fmt.Errorf("record: open diagnostic stream %s: %w", cfg.DiagPath, err)
		}
		e.diag = f
	}

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		if e.diag != nil {
			e.diag.Close()
		}
		return nil, fmt.Errorf("record: open output stream %s: %w", cfg.OutputPath, err)
	}
	e.out = f

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	e.enc = enc
	return e, nil
}

// Close releases both streams.
func (e *Emitter) Close() error {
	if e.diag != nil {
		e.diag.Close()
		e.diag = nil
	}
	if e.out != nil {
		err := e.out.Close()
		e.out = nil
		return err
	}
	return nil
}

// Emit walks fn, assembles its record, and appends it as one line to the
// output stream. A function missing required collaborator data is skipped
// whole — no partial record is ever written — with a warning on the
// diagnostic stream. Emit reports whether a record was written; it never
// fails the caller.
func (e *Emitter) Emit(fn *mir.Function, mod *mir.Module) bool {
	if !e.cfg.Enabled || e.enc == nil {
		return false
	}

	if fn == nil || mod == nil || mod.Name == "" {
		name := "?"
		if fn != nil {
			name = fn.Name
		}
		e.Warn(Diag{Func: name, Kind: DiagSkipped, Msg: "no function or owning module, skipping"})
		return false
	}

	var diags Diags
	bbs := Walk(fn, e.cfg.PrettyPrint, &diags)
	rec := Assemble(fn, mod, bbs)

	if err := e.enc.Encode(rec); err != nil {
		diags.Addf(fn.Name, DiagWriteFailed, "%v", err)
		e.flush(&diags)
		return false
	}
	e.flush(&diags)
	return true
}

// Warn writes one diagnostic line, independent of any function record.
func (e *Emitter) Warn(d Diag) {
	if e.diag == nil {
		return
	}
	fmt.Fprintln(e.diag, d.String())
}

func (e *Emitter) flush(diags *Diags) {
	if e.diag == nil {
		return
	}
	for _, d := range diags.Items() {
		fmt.Fprintln(e.diag, d.String())
	}
}

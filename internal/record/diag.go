package record

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagMissingIR        DiagKind = "missing_ir"
	DiagNullEdge         DiagKind = "null_edge"
	DiagMultiplePrologue DiagKind = "multiple_prologue"
	DiagSkipped          DiagKind = "skipped"
	DiagWriteFailed      DiagKind = "write_failed"
)

// Diag records a non-fatal issue encountered while processing one function.
type Diag struct {
	Func string
	Kind DiagKind
	Msg  string
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Func, d.Msg)
}

// Diags accumulates diagnostics for one function's walk.
type Diags struct {
	items []Diag
}

func (d *Diags) Addf(fn string, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Func: fn, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

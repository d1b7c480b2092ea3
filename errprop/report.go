package errprop

import (
	"fmt"
	"strconv"
	"strings"
)

// divider separates bound assertion entries in the report.
const divider = "\n------------------------\n"

// Location carries the source position of a checked instruction. Any field
// may be empty when debug metadata is unavailable.
type Location struct {
	Line     int
	File     string
	Dir      string
	Function string
}

// Report is an append-only text buffer of bound assertions, one per checked
// instruction. The text is a diagnostic artifact for downstream reporting; it
// is never parsed back.
type Report struct {
	buf strings.Builder
}

// AddBound appends one formatted bound assertion. With full location metadata
// the entry is prefixed "Line L of dir/file (function): "; with only a
// function name, "function: "; otherwise no prefix.
func (r *Report) AddBound(errVar, exprText string, bound float64, loc *Location) {
	if r.buf.Len() > 0 {
		r.buf.WriteString(divider)
	}

	switch {
	case loc != nil && loc.Line > 0:
		fmt.Fprintf(&r.buf, "Line %d of %s/%s", loc.Line, loc.Dir, loc.File)
		if loc.Function != "" {
			fmt.Fprintf(&r.buf, " (%s)", loc.Function)
		}
		r.buf.WriteString(": ")
	case loc != nil && loc.Function != "":
		fmt.Fprintf(&r.buf, "%s: ", loc.Function)
	}

	b := strconv.FormatFloat(bound, 'g', -1, 64)
	fmt.Fprintf(&r.buf, "%s == (%s) && (%s <= %s) && (%s >= -%s)\n",
		errVar, exprText, errVar, b, errVar, b)
}

// Empty reports whether no bound has been recorded.
func (r *Report) Empty() bool { return r.buf.Len() == 0 }

// String returns the accumulated report text.
func (r *Report) String() string { return r.buf.String() }

package errprop

import (
	"strings"
	"testing"
)

func TestReportEntryFormat(t *testing.T) {
	var r Report
	r.AddBound("__error__7", "(read _unspecified_error_x 0)", 0.05, &Location{
		Line:     42,
		File:     "kernel.c",
		Dir:      "src/math",
		Function: "normalize",
	})

	want := "Line 42 of src/math/kernel.c (normalize): " +
		"__error__7 == ((read _unspecified_error_x 0)) && " +
		"(__error__7 <= 0.05) && (__error__7 >= -0.05)\n"
	if got := r.String(); got != want {
		t.Errorf("report entry:\n got %q\nwant %q", got, want)
	}
}

func TestReportLocationFallbacks(t *testing.T) {
	t.Run("function only", func(t *testing.T) {
		var r Report
		r.AddBound("__error__1", "0", 1, &Location{Function: "main"})
		if !strings.HasPrefix(r.String(), "main: __error__1") {
			t.Errorf("got %q, want a function-only prefix", r.String())
		}
	})
	t.Run("no location", func(t *testing.T) {
		var r Report
		r.AddBound("__error__1", "0", 1, nil)
		if !strings.HasPrefix(r.String(), "__error__1 ==") {
			t.Errorf("got %q, want no prefix", r.String())
		}
	})
}

func TestReportDivider(t *testing.T) {
	var r Report
	r.AddBound("__error__1", "0", 1, nil)
	r.AddBound("__error__2", "0", 2, nil)

	parts := strings.Split(r.String(), "\n------------------------\n")
	if len(parts) != 2 {
		t.Fatalf("expected two divider-separated entries, got %d:\n%s", len(parts), r.String())
	}
	if !strings.HasPrefix(parts[1], "__error__2") {
		t.Errorf("second entry = %q", parts[1])
	}
}

func TestReportBoundFormatting(t *testing.T) {
	var r Report
	r.AddBound("__error__1", "0", 0.30000000000000004, nil)
	if !strings.Contains(r.String(), "<= 0.30000000000000004") {
		t.Errorf("expected a shortest-roundtrip bound, got %q", r.String())
	}
}

func TestReportEmpty(t *testing.T) {
	var r Report
	if !r.Empty() {
		t.Error("fresh report should be empty")
	}
	r.AddBound("__error__1", "0", 1, nil)
	if r.Empty() {
		t.Error("report with an entry should not be empty")
	}
}

package floatgauge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/floatgauge/floatgauge/errprop"
	"github.com/floatgauge/floatgauge/expr"
)

func TestNewSessionWiring(t *testing.T) {
	s := NewSession(nil, prometheus.NewRegistry())
	if s.Builder == nil || s.Ledger == nil || s.Backend == nil || s.Optimizer == nil || s.Stats == nil {
		t.Fatal("session left a component unwired")
	}

	s2 := NewSession(nil, nil)
	if s.ID == s2.ID {
		t.Error("expected distinct session IDs")
	}
}

func TestWriteReport(t *testing.T) {
	s := NewSession(nil, nil)
	b := s.Builder
	a := b.Read(b.Array("a", expr.Width64), b.Constant(0, expr.Width32))
	s.Ledger.GetError("a", a)
	s.Ledger.OutputErrorBound("a", 0.1, &errprop.Location{Function: "f"})

	var sb strings.Builder
	if err := s.WriteReport(&sb); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(sb.String(), "f: __error__") {
		t.Errorf("report = %q", sb.String())
	}
}

func TestWriteReportEmpty(t *testing.T) {
	s := NewSession(nil, nil)
	var sb strings.Builder
	if err := s.WriteReport(&sb); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("empty session wrote %q", sb.String())
	}
}

func TestWriteReportToConfiguredFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.Output = filepath.Join(t.TempDir(), "report.txt")
	s := NewSession(cfg, nil)

	b := s.Builder
	a := b.Read(b.Array("a", expr.Width64), b.Constant(0, expr.Width32))
	s.Ledger.GetError("a", a)
	s.Ledger.OutputErrorBound("a", 0.1, nil)

	if err := s.WriteReport(nil); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(cfg.Report.Output)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "__error__") {
		t.Errorf("report file = %q", data)
	}
}

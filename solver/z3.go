package solver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/floatgauge/floatgauge/expr"
	"github.com/floatgauge/floatgauge/logging"
)

// Z3 drives the z3 binary over SMT-LIB 2. Each call runs one fresh process
// and tears it down with the response, so no state leaks between queries and
// the term cache lives only for one request.
type Z3 struct {
	path string
	log  logging.Logger
}

var _ Backend = (*Z3)(nil)

// NewZ3 returns a Z3 backend. An empty path resolves "z3" from PATH; a nil
// logger disables logging.
func NewZ3(path string, log logging.Logger) *Z3 {
	if path == "" {
		path = "z3"
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Z3{path: path, log: log}
}

// Available reports whether the z3 binary can be resolved.
func (z *Z3) Available() bool {
	_, err := exec.LookPath(z.path)
	return err == nil
}

// Solve implements Backend.
func (z *Z3) Solve(ctx context.Context, req SolveRequest) (SolveResponse, error) {
	script := buildScript(req.Assertions, req.Evaluate, nil)
	nodes, result, reason, err := z.run(ctx, script, req.Timeout)
	if err != nil {
		return SolveResponse{}, err
	}
	resp := SolveResponse{Result: result, Reason: reason}
	if result == Sat && len(req.Evaluate) > 0 {
		values, err := parseValues(nodes, req.Evaluate)
		if err != nil {
			return SolveResponse{}, err
		}
		resp.Values = values
	}
	return resp, nil
}

// Optimize implements Backend.
func (z *Z3) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error) {
	script := buildScript(req.Assertions, nil, req.Maximize)
	nodes, result, reason, err := z.run(ctx, script, req.Timeout)
	if err != nil {
		return OptimizeResponse{}, err
	}
	resp := OptimizeResponse{Result: result, Reason: reason}
	if result == Sat {
		bounds, err := parseObjectives(nodes, req.Maximize)
		if err != nil {
			return OptimizeResponse{}, err
		}
		resp.Bounds = bounds
	}
	return resp, nil
}

// ConstraintLog implements Backend.
func (z *Z3) ConstraintLog(assertions []expr.Expr, formula expr.Expr) string {
	return benchmarkScript(assertions, formula)
}

// run executes one z3 process over the script and parses the generic parts of
// its output: the check-sat verdict and, on unknown, the reason. The timeout
// is handed to z3 in milliseconds; zero disables it.
func (z *Z3) run(ctx context.Context, script string, timeout time.Duration) ([]sexp, SatResult, string, error) {
	args := []string{"-smt2", "-in"}
	if timeout > 0 {
		args = append(args, fmt.Sprintf("-t:%d", timeout.Milliseconds()))
	}

	cmd := exec.CommandContext(ctx, z.path, args...)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	z.log.Debugf("running %s %s", z.path, strings.Join(args, " "))
	runErr := cmd.Run()

	result, reason, nodes, parseErr := parseVerdict(stdout.String())
	if parseErr != nil {
		if runErr != nil {
			return nil, UnknownResult, "", fmt.Errorf("solver: z3: %w: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return nil, UnknownResult, "", parseErr
	}
	return nodes, result, reason, nil
}

// parseVerdict extracts the first sat/unsat/unknown atom and, for unknown,
// the reason-unknown answer. Error replies to commands that do not apply to
// the verdict (such as get-value after unsat) are skipped.
func parseVerdict(output string) (SatResult, string, []sexp, error) {
	nodes, err := parseSexps(output)
	if err != nil {
		return UnknownResult, "", nil, err
	}

	result := UnknownResult
	found := false
	for _, n := range nodes {
		if n.IsList {
			continue
		}
		switch n.Atom {
		case "sat":
			result, found = Sat, true
		case "unsat":
			result, found = Unsat, true
		case "unknown":
			result, found = UnknownResult, true
		}
		if found {
			break
		}
	}
	if !found {
		return UnknownResult, "", nil, fmt.Errorf("solver: no verdict in z3 output %q", strings.TrimSpace(output))
	}

	reason := ""
	if result == UnknownResult {
		reason = reasonUnknown(nodes)
	}
	return result, reason, nodes, nil
}

// reasonUnknown finds the (:reason-unknown "...") reply. A missing reply maps
// to the generic "unknown" reason.
func reasonUnknown(nodes []sexp) string {
	for _, n := range nodes {
		if !n.IsList {
			continue
		}
		for i := 0; i+1 < len(n.List); i++ {
			if !n.List[i].IsList && n.List[i].Atom == ":reason-unknown" && !n.List[i+1].IsList {
				r := n.List[i+1].Atom
				// Normalize z3's cancellation spellings.
				if strings.Contains(r, "canceled") || strings.Contains(r, "cancelled") {
					return "canceled"
				}
				if strings.Contains(r, "timeout") {
					return "timeout"
				}
				return r
			}
		}
	}
	return "unknown"
}

// symbolName strips the pipe quoting z3 echoes back for non-simple symbols.
func symbolName(atom string) string {
	if len(atom) >= 2 && atom[0] == '|' && atom[len(atom)-1] == '|' {
		return atom[1 : len(atom)-1]
	}
	return atom
}

// parseValues reads the get-value reply, one numeral per requested array in
// request order.
func parseValues(nodes []sexp, arrays []*expr.Array) ([]Numeral, error) {
	want := make(map[string]int, len(arrays))
	for i, a := range arrays {
		want[a.Name] = i
	}
	values := make([]Numeral, len(arrays))
	seen := 0

	for _, n := range nodes {
		if !n.IsList || len(n.List) == 0 || !n.List[0].IsList {
			continue // not a get-value reply, which is a list of pairs
		}
		for _, pair := range n.List {
			if !pair.IsList || len(pair.List) != 2 || pair.List[0].IsList {
				continue
			}
			idx, ok := want[symbolName(pair.List[0].Atom)]
			if !ok {
				continue
			}
			v, err := numeralFromSexp(pair.List[1])
			if err != nil {
				return nil, err
			}
			values[idx] = v
			seen++
		}
	}
	if seen != len(arrays) {
		return nil, fmt.Errorf("solver: z3 model covered %d of %d arrays", seen, len(arrays))
	}
	return values, nil
}

// parseObjectives reads the (objectives ...) block, one bound per objective
// in request order.
func parseObjectives(nodes []sexp, arrays []*expr.Array) ([]Bound, error) {
	want := make(map[string]int, len(arrays))
	for i, a := range arrays {
		want[a.Name] = i
	}
	bounds := make([]Bound, len(arrays))
	seen := 0

	for _, n := range nodes {
		if n.head() != "objectives" {
			continue
		}
		for _, entry := range n.List[1:] {
			if !entry.IsList || len(entry.List) != 2 || entry.List[0].IsList {
				continue
			}
			idx, ok := want[symbolName(entry.List[0].Atom)]
			if !ok {
				continue
			}
			b, err := boundFromSexp(entry.List[1])
			if err != nil {
				return nil, err
			}
			bounds[idx] = b
			seen++
		}
	}
	if seen != len(arrays) {
		return nil, fmt.Errorf("solver: z3 reported %d of %d objectives", seen, len(arrays))
	}
	return bounds, nil
}

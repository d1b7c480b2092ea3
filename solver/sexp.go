package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// sexp is one parsed s-expression node from solver output: either an atom or
// a list. Exactly one of Atom/List is meaningful, discriminated by IsList.
type sexp struct {
	IsList bool
	Atom   string
	List   []sexp
}

func atomSexp(s string) sexp { return sexp{Atom: s} }
func listSexp(l []sexp) sexp { return sexp{IsList: true, List: l} }

func (s sexp) head() string {
	if s.IsList && len(s.List) > 0 && !s.List[0].IsList {
		return s.List[0].Atom
	}
	return ""
}

// parseSexps reads every top-level s-expression and bare atom from solver
// output. Quoted strings become single atoms without the quotes.
func parseSexps(input string) ([]sexp, error) {
	toks := tokenize(input)
	var out []sexp
	pos := 0
	for pos < len(toks) {
		node, next, err := parseSexp(toks, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
		pos = next
	}
	return out, nil
}

func parseSexp(toks []string, pos int) (sexp, int, error) {
	if pos >= len(toks) {
		return sexp{}, pos, fmt.Errorf("solver: unexpected end of solver output")
	}
	tok := toks[pos]
	switch tok {
	case "(":
		pos++
		var items []sexp
		for {
			if pos >= len(toks) {
				return sexp{}, pos, fmt.Errorf("solver: unbalanced parenthesis in solver output")
			}
			if toks[pos] == ")" {
				return listSexp(items), pos + 1, nil
			}
			item, next, err := parseSexp(toks, pos)
			if err != nil {
				return sexp{}, pos, err
			}
			items = append(items, item)
			pos = next
		}
	case ")":
		return sexp{}, pos, fmt.Errorf("solver: unexpected ')' in solver output")
	default:
		return atomSexp(tok), pos + 1, nil
	}
}

func tokenize(input string) []string {
	var toks []string
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == '"':
			j := i + 1
			for j < len(input) && input[j] != '"' {
				j++
			}
			toks = append(toks, input[i+1:j])
			i = j + 1
		case c == ';':
			for i < len(input) && input[i] != '\n' {
				i++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			j := i
			for j < len(input) && !strings.ContainsRune("() \t\n\r\";", rune(input[j])) {
				j++
			}
			toks = append(toks, input[i:j])
			i = j
		}
	}
	return toks
}

// numeralFromSexp decodes a numeric term from solver output. Handles integer
// and decimal atoms, (/ a b) rationals and unary (- x) negation.
func numeralFromSexp(v sexp) (Numeral, error) {
	if !v.IsList {
		return numeralFromAtom(v.Atom)
	}
	switch v.head() {
	case "/":
		if len(v.List) != 3 {
			return Numeral{}, fmt.Errorf("solver: malformed rational %v", v)
		}
		num, err := numeralFromSexp(v.List[1])
		if err != nil {
			return Numeral{}, err
		}
		den, err := numeralFromSexp(v.List[2])
		if err != nil {
			return Numeral{}, err
		}
		if den.num == 0 {
			return Numeral{}, fmt.Errorf("solver: rational with zero denominator %v", v)
		}
		return RatNumeral(num.num*den.den, num.den*den.num), nil
	case "-":
		if len(v.List) != 2 {
			return Numeral{}, fmt.Errorf("solver: malformed negation %v", v)
		}
		n, err := numeralFromSexp(v.List[1])
		if err != nil {
			return Numeral{}, err
		}
		return Numeral{num: -n.num, den: n.den}, nil
	default:
		return Numeral{}, fmt.Errorf("solver: unrecognized numeral form %v", v)
	}
}

// numeralFromAtom parses "42", "-42" and decimals like "0.5" (as 5/10).
func numeralFromAtom(s string) (Numeral, error) {
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart := s[:dot]
		fracPart := s[dot+1:]
		neg := strings.HasPrefix(intPart, "-")
		intPart = strings.TrimPrefix(intPart, "-")
		if intPart == "" {
			intPart = "0"
		}
		whole, err := strconv.ParseInt(intPart+fracPart, 10, 64)
		if err != nil {
			return Numeral{}, fmt.Errorf("solver: malformed decimal numeral %q", s)
		}
		den := int64(1)
		for range fracPart {
			den *= 10
		}
		if neg {
			whole = -whole
		}
		if den == 1 {
			return IntNumeral(whole), nil
		}
		return RatNumeral(whole, den), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Numeral{}, fmt.Errorf("solver: malformed numeral %q", s)
	}
	return IntNumeral(v), nil
}

// boundFromSexp decodes one objective bound. Z3 reports bounds as a value, as
// "oo" (or a product with "oo") for an unbounded objective, or as a sum with
// an epsilon term for a bound attained only in the limit.
func boundFromSexp(v sexp) (Bound, error) {
	switch {
	case !v.IsList && v.Atom == "oo":
		return Bound{Infinite: true}, nil
	case !v.IsList && v.Atom == "epsilon":
		return Bound{Epsilon: true, Value: IntNumeral(0)}, nil
	case !v.IsList:
		n, err := numeralFromAtom(v.Atom)
		if err != nil {
			return Bound{}, err
		}
		return Bound{Value: n}, nil
	}

	switch v.head() {
	case "+":
		// Sum of a base value with infinity/epsilon terms.
		var out Bound
		haveValue := false
		for _, part := range v.List[1:] {
			if mentionsAtom(part, "oo") {
				out.Infinite = true
				continue
			}
			if mentionsAtom(part, "epsilon") {
				out.Epsilon = true
				continue
			}
			n, err := numeralFromSexp(part)
			if err != nil {
				return Bound{}, err
			}
			out.Value = n
			haveValue = true
		}
		if !haveValue {
			out.Value = IntNumeral(0)
		}
		return out, nil
	case "*", "-":
		if mentionsAtom(v, "oo") {
			return Bound{Infinite: true}, nil
		}
		if mentionsAtom(v, "epsilon") {
			return Bound{Epsilon: true, Value: IntNumeral(0)}, nil
		}
		n, err := numeralFromSexp(v)
		if err != nil {
			return Bound{}, err
		}
		return Bound{Value: n}, nil
	case "/":
		n, err := numeralFromSexp(v)
		if err != nil {
			return Bound{}, err
		}
		return Bound{Value: n}, nil
	default:
		return Bound{}, fmt.Errorf("solver: unrecognized bound form %v", v)
	}
}

func mentionsAtom(v sexp, atom string) bool {
	if !v.IsList {
		return v.Atom == atom
	}
	for _, item := range v.List {
		if mentionsAtom(item, atom) {
			return true
		}
	}
	return false
}

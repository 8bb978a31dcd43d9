package signature

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/coral-mesh/sigscan/internal/constants"
	sigerrors "github.com/coral-mesh/sigscan/internal/errors"
)

// Filter selects signatures with a CEL expression evaluated against each raw
// entry. The expression sees:
//
//	name      string  signature name
//	pattern   string  normalized hex pattern
//	length    int     decoded length in bytes
//	wildcards int     number of "??" positions
//
// Example: name.startsWith("EICAR") && wildcards == 0
type Filter struct {
	expr string
	prg  cel.Program
}

var filterEnv = newFilterEnv()

func newFilterEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("pattern", cel.StringType),
		cel.Variable("length", cel.IntType),
		cel.Variable("wildcards", cel.IntType),
	)
	sigerrors.Must(err, "signature filter environment")
	return env
}

// NewFilter compiles expr. An empty expression yields a nil filter, which
// keeps every signature.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	ast, iss := filterEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}

	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether sig passes the filter.
func (f *Filter) Match(sig Signature) (bool, error) {
	if f == nil {
		return true, nil
	}

	pattern := Normalize(sig.Pattern)
	out, _, err := f.prg.Eval(map[string]any{
		"name":      sig.Name,
		"pattern":   pattern,
		"length":    int64(len(pattern) / 2),
		"wildcards": int64(countWildcards(pattern)),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate filter on %q: %w", sig.Name, err)
	}

	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out.Value())
	}
	return keep, nil
}

// Apply returns the signatures that pass the filter, in their original order.
func (f *Filter) Apply(sigs []Signature) ([]Signature, error) {
	if f == nil {
		return sigs, nil
	}

	kept := make([]Signature, 0, len(sigs))
	for _, sig := range sigs {
		ok, err := f.Match(sig)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, sig)
		}
	}
	return kept, nil
}

func countWildcards(pattern string) int {
	n := 0
	for i := 0; i+1 < len(pattern); i += 2 {
		if pattern[i:i+2] == constants.WildcardToken {
			n++
		}
	}
	return n
}

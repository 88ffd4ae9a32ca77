// Copyright 2025 The DQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dqcore

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a minimal SQL expression node. Every metric builder returns a tree
// rooted at an Expr; the batch builder walks and rewrites that tree before
// rendering it as ANSI-ish SQL. Render takes no dialect: every node renders
// the same text for every backend.
type Expr interface {
	// Render produces the SQL text for this node.
	Render() string
}

// Ident is a bare identifier rendered verbatim (table names, column names
// that are already known to be safe SQL identifiers).
type Ident struct{ Name string }

func (i Ident) Render() string { return i.Name }

// Column is a column reference. Column("*") renders as the star used inside
// COUNT(*).
type Column struct{ Name string }

func (c Column) Render() string { return c.Name }

// Literal is a scalar constant: number, string, or NULL (Value == nil).
type Literal struct{ Value any }

func (l Literal) Render() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int, int64, uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Raw is an escape hatch for predicate fragments supplied by callers
// (filter_sql, custom validator SQL). It is never parsed, only interpolated
// — callers are trusted SQL authors.
type Raw struct{ SQL string }

func (r Raw) Render() string { return r.SQL }

// FuncCall is a generic function call, e.g. LENGTH(col) or REGEXP_LIKE(a,b).
type FuncCall struct {
	Name string
	Args []Expr
}

func (f FuncCall) Render() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Render()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

// BinaryOp renders `left op right`.
type BinaryOp struct {
	Op          string
	Left, Right Expr
}

func (b BinaryOp) Render() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.Render(), b.Op, b.Right.Render())
}

// CaseWhen models a single-branch `CASE WHEN cond THEN then ELSE else END`.
// Else may be nil, which omits the ELSE clause (the engine then returns SQL
// NULL for non-matching rows, the convention SUM()/COUNT() rely on to skip
// rows).
type CaseWhen struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (c CaseWhen) Render() string {
	if c.Else != nil {
		return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END", c.Cond.Render(), c.Then.Render(), c.Else.Render())
	}
	return fmt.Sprintf("CASE WHEN %s THEN %s END", c.Cond.Render(), c.Then.Render())
}

// Cast renders `CAST(inner AS typ)`.
type Cast struct {
	Inner Expr
	Type  string
}

func (c Cast) Render() string { return fmt.Sprintf("CAST(%s AS %s)", c.Inner.Render(), c.Type) }

// AggKind enumerates the aggregate functions the batch builder's filter
// rewrite understands.
type AggKind string

const (
	AggCount AggKind = "COUNT"
	AggSum   AggKind = "SUM"
	AggAvg   AggKind = "AVG"
	AggMin   AggKind = "MIN"
	AggMax   AggKind = "MAX"
	AggStdev AggKind = "STDDEV_SAMP"
)

// Agg is an aggregate node. Arg == nil with Kind == AggCount and
// Distinct == false renders COUNT(*). Distinct renders COUNT(DISTINCT arg).
type Agg struct {
	Kind     AggKind
	Arg      Expr
	Distinct bool
}

func (a Agg) Render() string {
	if a.Kind == AggCount && a.Arg == nil {
		return "COUNT(*)"
	}
	arg := a.Arg.Render()
	if a.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", a.Kind, arg)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, arg)
}

// Div renders `numerator / denominator`, the shape every percentage metric
// and reconciliation ratio uses.
type Div struct {
	Num, Denom Expr
}

func (d Div) Render() string { return fmt.Sprintf("(%s / %s)", d.Num.Render(), d.Denom.Render()) }

// Sub renders `left - right`.
type Sub struct {
	Left, Right Expr
}

func (s Sub) Render() string { return fmt.Sprintf("(%s - %s)", s.Left.Render(), s.Right.Render()) }

// --------------------------------------------------------------------------
// Filter rewrite
// --------------------------------------------------------------------------

// rewriteForFilter applies a per-request filter_sql predicate to expr,
// following this convention:
//
//   - COUNT(*)            -> SUM(CASE WHEN φ THEN 1 ELSE 0 END)
//   - COUNT(x)             -> SUM(CASE WHEN φ AND x IS NOT NULL THEN 1 ELSE 0 END)
//   - SUM/AVG/MIN/MAX(x)    -> same aggregate over CASE WHEN φ THEN x END
//   - COUNT(DISTINCT x)     -> COUNT(DISTINCT CASE WHEN φ THEN x END)
//   - Div                   -> recurse into numerator and denominator independently
//
// A non-aggregate, non-Div expression reaching the top level is a
// programmer error: the metric builder promised an aggregate (or a ratio of
// aggregates) and didn't deliver one.
func rewriteForFilter(expr Expr, filter string) (Expr, error) {
	if filter == "" {
		return expr, nil
	}
	cond := Raw{SQL: filter}

	switch e := expr.(type) {
	case Div:
		num, err := rewriteForFilter(e.Num, filter)
		if err != nil {
			return nil, err
		}
		denom, err := rewriteForFilter(e.Denom, filter)
		if err != nil {
			return nil, err
		}
		return Div{Num: num, Denom: denom}, nil

	case Agg:
		switch e.Kind {
		case AggCount:
			if e.Distinct {
				return Agg{Kind: AggCount, Distinct: true, Arg: CaseWhen{Cond: cond, Then: e.Arg}}, nil
			}
			if e.Arg == nil {
				return Agg{Kind: AggSum, Arg: CaseWhen{Cond: cond, Then: Literal{1}, Else: Literal{0}}}, nil
			}
			notNull := BinaryOp{Op: "AND", Left: Raw{SQL: "(" + filter + ")"}, Right: Raw{SQL: e.Arg.Render() + " IS NOT NULL"}}
			return Agg{Kind: AggSum, Arg: CaseWhen{Cond: notNull, Then: Literal{1}, Else: Literal{0}}}, nil
		case AggSum, AggAvg, AggMin, AggMax, AggStdev:
			return Agg{Kind: e.Kind, Arg: CaseWhen{Cond: cond, Then: e.Arg}}, nil
		}
		return nil, fmt.Errorf("%w: unsupported aggregate kind %q under filter", ErrInvalidMetric, e.Kind)

	default:
		return nil, fmt.Errorf("%w: filtered metric expression must be an aggregate or ratio of aggregates", ErrInvalidMetric)
	}
}

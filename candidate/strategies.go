// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package candidate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/czcorpus/sqlizer/sqlparse"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
)

var selectKwRegexp = regexp.MustCompile(`(?i)\bSELECT\b`)

// applyJoinHints wraps the query with optimizer hints. Hints only make
// sense for queries with at least one join; join-free queries get nothing.
func (gen *Generator) applyJoinHints(query string, sel *ast.SelectStmt) []rewrite {
	if countJoins(sel) < 1 {
		return nil
	}
	loc := selectKwRegexp.FindStringIndex(query)
	if loc == nil {
		return nil
	}
	inject := func(hint string) string {
		return query[:loc[1]] + " /*+ " + hint + " */" + query[loc[1]:]
	}
	return []rewrite{
		{query: inject("USE_NL"), strategy: StrategyHintNestedLoop},
		{query: inject("USE_HASH"), strategy: StrategyHintHashJoin},
	}
}

// applyImplicitJoin converts `A JOIN B ON a.x = b.y` into `A, B` with the
// join predicate moved into WHERE. The precondition is deliberately
// narrow: exactly one inner join of two plain tables with a single
// equality of two column references. Anything else - outer joins, USING,
// compound predicates, three and more tables, subquery sources - is
// refused, because a textual rewrite of those can silently drop or
// misplace a predicate.
func (gen *Generator) applyImplicitJoin(sel *ast.SelectStmt) (rewrite, bool) {
	if sel.From == nil || sel.From.TableRefs == nil {
		return rewrite{}, false
	}
	join := sel.From.TableRefs
	if join.Right == nil {
		return rewrite{}, false
	}
	if join.Tp != ast.CrossJoin || join.NaturalJoin || join.StraightJoin || len(join.Using) > 0 {
		return rewrite{}, false
	}
	left, ok := join.Left.(*ast.TableSource)
	if !ok {
		return rewrite{}, false
	}
	right, ok := join.Right.(*ast.TableSource)
	if !ok {
		return rewrite{}, false
	}
	if _, ok := left.Source.(*ast.TableName); !ok {
		return rewrite{}, false
	}
	if _, ok := right.Source.(*ast.TableName); !ok {
		return rewrite{}, false
	}
	if join.On == nil || join.On.Expr == nil {
		return rewrite{}, false
	}
	pred, ok := join.On.Expr.(*ast.BinaryOperationExpr)
	if !ok || pred.Op != opcode.EQ {
		return rewrite{}, false
	}
	if _, ok := pred.L.(*ast.ColumnNameExpr); !ok {
		return rewrite{}, false
	}
	if _, ok := pred.R.(*ast.ColumnNameExpr); !ok {
		return rewrite{}, false
	}

	fieldsSQL, err := sqlparse.Restore(sel.Fields)
	if err != nil {
		return rewrite{}, false
	}
	leftSQL, err := sqlparse.Restore(left)
	if err != nil {
		return rewrite{}, false
	}
	rightSQL, err := sqlparse.Restore(right)
	if err != nil {
		return rewrite{}, false
	}
	predSQL, err := sqlparse.Restore(pred)
	if err != nil {
		return rewrite{}, false
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if sel.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(fieldsSQL)
	sb.WriteString(" FROM ")
	sb.WriteString(leftSQL)
	sb.WriteString(", ")
	sb.WriteString(rightSQL)
	sb.WriteString(" WHERE ")
	sb.WriteString(predSQL)
	if sel.Where != nil {
		whereSQL, err := sqlparse.Restore(sel.Where)
		if err != nil {
			return rewrite{}, false
		}
		sb.WriteString(" AND (")
		sb.WriteString(whereSQL)
		sb.WriteString(")")
	}
	for _, clause := range []ast.Node{sel.GroupBy, sel.Having, sel.OrderBy, sel.Limit} {
		if clause == nil || isNilNode(clause) {
			continue
		}
		clauseSQL, err := sqlparse.Restore(clause)
		if err != nil {
			return rewrite{}, false
		}
		sb.WriteString(" ")
		sb.WriteString(clauseSQL)
	}
	return rewrite{query: sb.String(), strategy: StrategyImplicitJoin}, true
}

// isNilNode guards against typed-nil interface values coming from the
// optional *ast.XxxClause fields above.
func isNilNode(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.GroupByClause:
		return v == nil
	case *ast.HavingClause:
		return v == nil
	case *ast.OrderByClause:
		return v == nil
	case *ast.Limit:
		return v == nil
	}
	return false
}

// applyWhereReorder sorts AND-joined WHERE predicates so that the one
// guessed most selective comes first. Evaluation order is the only thing
// that changes; any OR in the predicate list disables the strategy
// entirely. The selectivity classes are a guess from the literal shape,
// nothing more - they do not reflect real table statistics.
func (gen *Generator) applyWhereReorder(query string) (rewrite, bool) {
	sel, err := sqlparse.ParseSelect(query)
	if err != nil || sel.Where == nil {
		return rewrite{}, false
	}
	conjuncts, ok := flattenConjunction(sel.Where)
	if !ok || len(conjuncts) < 2 {
		return rewrite{}, false
	}
	ranked := make([]ast.ExprNode, len(conjuncts))
	copy(ranked, conjuncts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return selectivityClass(ranked[i]) < selectivityClass(ranked[j])
	})
	if sameOrder(conjuncts, ranked) {
		return rewrite{}, false
	}

	newWhere := ranked[0]
	for _, c := range ranked[1:] {
		newWhere = &ast.BinaryOperationExpr{
			Op: opcode.LogicAnd,
			L:  newWhere,
			R:  c,
		}
	}
	sel.Where = newWhere
	out, err := sqlparse.Restore(sel)
	if err != nil {
		return rewrite{}, false
	}
	return rewrite{query: out, strategy: StrategyWhereReorder}, true
}

// flattenConjunction splits a WHERE expression into its top-level AND
// operands. It reports false when the list is not a pure conjunction
// (i.e. any operand is an OR expression).
func flattenConjunction(expr ast.ExprNode) ([]ast.ExprNode, bool) {
	var conjuncts []ast.ExprNode
	var walk func(e ast.ExprNode) bool
	walk = func(e ast.ExprNode) bool {
		if bin, ok := e.(*ast.BinaryOperationExpr); ok && bin.Op == opcode.LogicAnd {
			return walk(bin.L) && walk(bin.R)
		}
		if isOrExpr(e) {
			return false
		}
		conjuncts = append(conjuncts, e)
		return true
	}
	if !walk(expr) {
		return nil, false
	}
	return conjuncts, true
}

func sameOrder(a, b []ast.ExprNode) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isOrExpr(e ast.ExprNode) bool {
	if paren, ok := e.(*ast.ParenthesesExpr); ok {
		return isOrExpr(paren.Expr)
	}
	bin, ok := e.(*ast.BinaryOperationExpr)
	return ok && bin.Op == opcode.LogicOr
}

// selectivityClass buckets a predicate by how selective it looks:
// equality against a literal first, ranges next, IN and LIKE last.
func selectivityClass(e ast.ExprNode) int {
	if paren, ok := e.(*ast.ParenthesesExpr); ok {
		return selectivityClass(paren.Expr)
	}
	switch node := e.(type) {
	case *ast.BinaryOperationExpr:
		switch node.Op {
		case opcode.EQ:
			if isLiteral(node.L) || isLiteral(node.R) {
				return 0
			}
			return 1
		case opcode.GT, opcode.LT, opcode.GE, opcode.LE:
			return 2
		}
	case *ast.BetweenExpr:
		return 2
	case *ast.PatternInExpr:
		return 3
	case *ast.PatternLikeOrIlikeExpr:
		return 4
	}
	return 5
}

func isLiteral(e ast.ExprNode) bool {
	_, ok := e.(ast.ValueExpr)
	return ok
}

// applyLimitInject appends a LIMIT when the query sorts its output but
// does not bound it. Without ORDER BY the rewrite would change which rows
// the caller sees, so it is never applied there.
func (gen *Generator) applyLimitInject(query string, sel *ast.SelectStmt) (rewrite, bool) {
	if sel.OrderBy == nil || sel.Limit != nil {
		return rewrite{}, false
	}
	out := fmt.Sprintf("%s LIMIT %d", strings.TrimRight(query, "; \t\n"), gen.rowLimit)
	return rewrite{query: out, strategy: StrategyLimitInject}, true
}

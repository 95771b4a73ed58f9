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

// Package sqlparse wraps the TiDB SQL parser with the few operations the
// rest of sqlizer needs: well-formedness checks for generated rewrites,
// statement kind detection and AST round-tripping back to SQL text.
package sqlparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// StatementKind is a coarse classification of a parsed statement - just
// enough for the cost estimator to decide whether live execution is safe.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindDDL
	KindOther
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindDDL:
		return "ddl"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

var hintCommentRegexp = regexp.MustCompile(`/\*\+.*?\*/`)

// ParseOne parses a single SQL statement. A new parser instance is created
// for each call - the TiDB parser is stateful and not safe for concurrent
// use, and instantiation is cheap compared to parsing.
func ParseOne(sql string) (ast.StmtNode, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, fmt.Errorf("failed to parse SQL: empty statement")
	}
	stmt, err := parser.New().ParseOneStmt(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL: %w", err)
	}
	return stmt, nil
}

// ParseSelect parses a statement and requires it to be a plain SELECT.
func ParseSelect(sql string) (*ast.SelectStmt, error) {
	stmt, err := ParseOne(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("failed to parse SQL: not a SELECT statement")
	}
	return sel, nil
}

// Validate reports whether sql is a single syntactically well-formed
// statement. Optimizer hint comments (/*+ ... */) are stripped first, so a
// rewrite differing from a valid query only by a hint passes the check
// regardless of whether the target engine knows the hint name.
func Validate(sql string) error {
	_, err := ParseOne(hintCommentRegexp.ReplaceAllString(sql, ""))
	return err
}

// Kind classifies a statement without requiring the caller to touch the AST.
// Unparseable input yields KindUnknown, not an error.
func Kind(sql string) StatementKind {
	stmt, err := ParseOne(sql)
	if err != nil {
		return KindUnknown
	}
	switch stmt.(type) {
	case *ast.SelectStmt, *ast.SetOprStmt:
		return KindSelect
	case *ast.InsertStmt:
		return KindInsert
	case *ast.UpdateStmt:
		return KindUpdate
	case *ast.DeleteStmt:
		return KindDelete
	case ast.DDLNode:
		return KindDDL
	default:
		return KindOther
	}
}

// Restore renders an AST node back to SQL text.
func Restore(node ast.Node) (string, error) {
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := node.Restore(ctx); err != nil {
		return "", fmt.Errorf("failed to restore SQL from AST: %w", err)
	}
	return sb.String(), nil
}

// Normalize collapses whitespace so that textual duplicates with different
// formatting compare equal.
func Normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

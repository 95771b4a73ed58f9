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

package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOneValid(t *testing.T) {
	stmt, err := ParseOne("SELECT * FROM employees WHERE salary > 50000")
	assert.NoError(t, err)
	assert.NotNil(t, stmt)
}

func TestParseOneEmpty(t *testing.T) {
	_, err := ParseOne("   ")
	assert.Error(t, err)
}

func TestParseOneMalformed(t *testing.T) {
	_, err := ParseOne("SELECT FROM WHERE")
	assert.Error(t, err)
}

func TestValidateStripsHints(t *testing.T) {
	err := Validate("SELECT /*+ USE_NL */ * FROM a JOIN b ON a.x = b.x")
	assert.NoError(t, err)
}

func TestValidateRejectsBrokenSQL(t *testing.T) {
	err := Validate("SELECT * FROM a JOIN ON = b.x")
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindSelect, Kind("SELECT 1"))
	assert.Equal(t, KindInsert, Kind("INSERT INTO t (a) VALUES (1)"))
	assert.Equal(t, KindUpdate, Kind("UPDATE t SET a = 1"))
	assert.Equal(t, KindDelete, Kind("DELETE FROM t WHERE a = 1"))
	assert.Equal(t, KindDDL, Kind("DROP TABLE t"))
	assert.Equal(t, KindUnknown, Kind("definitely not sql"))
}

func TestRestoreRoundTrip(t *testing.T) {
	stmt, err := ParseOne("SELECT a, b FROM t WHERE a = 1 ORDER BY b")
	assert.NoError(t, err)
	out, err := Restore(stmt)
	assert.NoError(t, err)
	_, err = ParseOne(out)
	assert.NoError(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(
		t,
		"SELECT * FROM t",
		Normalize("  SELECT \n\t *   FROM    t  "),
	)
}

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

package ranking

import (
	"fmt"
	"io"

	"github.com/czcorpus/sqlizer/backend"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func fmtReading(r backend.Reading) string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// PrintResult writes a human-readable comparison table of all the
// evaluated query variants along with a verdict line.
func PrintResult(w io.Writer, res *Result) {
	table := tablewriter.NewTable(w)
	table.Header([]string{
		"rank", "variant", "best cost", "source", "measured [ms]", "planner", "model [ms]", "heuristic"})
	for i, entry := range res.Entries {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			entry.Label,
			fmt.Sprintf("%.2f", entry.Estimate.Best),
			string(entry.Estimate.Source),
			fmtReading(entry.Estimate.Measured),
			fmtReading(entry.Estimate.Planner),
			fmtReading(entry.Estimate.Model),
			fmtReading(entry.Estimate.Heuristic),
		})
	}
	table.Render()

	fmt.Fprintln(w)
	if res.OptimizationSucceeded {
		color.New(color.FgGreen).Fprintf(
			w, "suggested rewrite (%s), estimated improvement: %.1f%%\n",
			res.Winner.Label, res.ImprovementPercent)
		fmt.Fprintf(w, "\n%s\n", res.Winner.Query)

	} else {
		color.New(color.FgYellow).Fprintln(
			w, "the original query is already the best variant")
	}
}

// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tombee/soarbridge/internal/jq"
)

// MarkdownTable renders a titled markdown table. An empty title omits the
// heading line.
func MarkdownTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("### ")
		b.WriteString(title)
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		b.WriteString("**No entries.**\n")
		return b.String()
	}

	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		Rows(rows...)

	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// RecordsTable renders records as a markdown table with one column per
// header, reading each cell from the record key of the same name.
func RecordsTable(title string, headers []string, records []map[string]interface{}) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = cell(rec[h])
		}
		rows = append(rows, row)
	}
	return MarkdownTable(title, headers, rows)
}

func cell(v interface{}) string {
	s := jq.Stringify(v)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

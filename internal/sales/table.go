// Package sales loads the supermarket transaction sheet and filters it by
// category columns.
package sales

import (
	"strconv"
)

// Column names of the 销售数据 sheet.
const (
	ColumnOrderID      = "订单号"
	ColumnTime         = "时间"
	ColumnCity         = "城市"
	ColumnCustomerType = "顾客类型"
	ColumnGender       = "性别"
	ColumnHour         = "小时数"
)

// Row is one transaction. Cells align with Table.Columns.
type Row struct {
	OrderID string   `json:"order_id"`
	Cells   []string `json:"cells"`
}

// Table is the loaded transaction sheet. Rows are shared between a table and
// the tables filtered from it and must be treated as read-only.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	index map[string]int
}

// NewTable builds a table and its column index.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// ColumnIndex returns the position of column in Columns, or -1.
func (t *Table) ColumnIndex(column string) int {
	if t == nil {
		return -1
	}
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Value returns the cell of row under column, or "" when the column is absent.
func (t *Table) Value(row Row, column string) string {
	i := t.ColumnIndex(column)
	if i < 0 || i >= len(row.Cells) {
		return ""
	}
	return row.Cells[i]
}

// Hour returns the derived hour-of-day of row.
func (t *Table) Hour(row Row) int {
	h, err := strconv.Atoi(t.Value(row, ColumnHour))
	if err != nil {
		return -1
	}
	return h
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Shape returns the row and column counts. The row key is not a column.
func (t *Table) Shape() (rows, columns int) {
	if t == nil {
		return 0, 0
	}
	return len(t.Rows), len(t.Columns)
}

// Distinct returns the distinct values of column in order of first appearance.
func (t *Table) Distinct(column string) []string {
	i := t.ColumnIndex(column)
	if i < 0 {
		return []string{}
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range t.Rows {
		if i >= len(row.Cells) {
			continue
		}
		v := row.Cells[i]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// with returns a table sharing t's columns and index over rows.
func (t *Table) with(rows []Row) *Table {
	out := &Table{Columns: t.Columns, Rows: rows, index: t.index}
	if out.index == nil {
		out.buildIndex()
	}
	return out
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table {
	return NewTable([]string{}, []Row{})
}

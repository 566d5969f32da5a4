package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable() *Table {
	columns := []string{ColumnCity, ColumnCustomerType, ColumnGender, ColumnTime, ColumnHour}
	return NewTable(columns, []Row{
		{OrderID: "1", Cells: []string{"A", "Member", "F", "08:30:00", "8"}},
		{OrderID: "2", Cells: []string{"B", "Normal", "M", "12:00:00", "12"}},
		{OrderID: "3", Cells: []string{"A", "Normal", "M", "23:59:59", "23"}},
		{OrderID: "4", Cells: []string{"C", "Member", "M", "10:15:00", "10"}},
		{OrderID: "5", Cells: []string{"B", "Member", "F", "19:45:00", "19"}},
	})
}

func orderIDs(t *Table) []string {
	ids := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		ids = append(ids, r.OrderID)
	}
	return ids
}

func TestFilter_Scenario(t *testing.T) {
	table := NewTable([]string{ColumnCity, ColumnCustomerType, ColumnGender}, []Row{
		{OrderID: "r1", Cells: []string{"A", "Member", "F"}},
		{OrderID: "r2", Cells: []string{"B", "Normal", "M"}},
		{OrderID: "r3", Cells: []string{"A", "Normal", "M"}},
	})

	got := Filter(table, []string{"A"}, []string{"Member", "Normal"}, []string{"F", "M"})

	assert.Equal(t, []string{"r1", "r3"}, orderIDs(got))
	assert.Equal(t, table.Columns, got.Columns)
}

func TestFilter_Conjunction(t *testing.T) {
	table := newTestTable()
	cities := []string{"A", "B"}
	types := []string{"Member"}
	genders := []string{"F", "M"}

	got := Filter(table, cities, types, genders)
	require.NotEmpty(t, got.Rows)

	for _, row := range got.Rows {
		assert.Contains(t, cities, got.Value(row, ColumnCity))
		assert.Contains(t, types, got.Value(row, ColumnCustomerType))
		assert.Contains(t, genders, got.Value(row, ColumnGender))
	}
	assert.Equal(t, []string{"1", "5"}, orderIDs(got))
}

func TestFilter_EmptySetMatchesNothing(t *testing.T) {
	table := newTestTable()
	full := FullSelection(table)

	tests := []struct {
		name string
		sel  Selection
	}{
		{"no cities", Selection{Cities: []string{}, CustomerTypes: full.CustomerTypes, Genders: full.Genders}},
		{"no customer types", Selection{Cities: full.Cities, CustomerTypes: nil, Genders: full.Genders}},
		{"no genders", Selection{Cities: full.Cities, CustomerTypes: full.CustomerTypes, Genders: []string{}}},
		{"nothing", Selection{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(table, tt.sel)
			assert.True(t, got.Empty())
			assert.Equal(t, table.Columns, got.Columns)
		})
	}
}

func TestFilter_FullSelectionIsIdentity(t *testing.T) {
	table := newTestTable()

	got := Apply(table, FullSelection(table))

	assert.Equal(t, table.Rows, got.Rows)
	assert.Equal(t, table.Columns, got.Columns)
}

func TestFilter_Idempotent(t *testing.T) {
	table := newTestTable()
	sel := Selection{
		Cities:        []string{"A", "C"},
		CustomerTypes: []string{"Normal", "Member"},
		Genders:       []string{"M"},
	}

	once := Apply(table, sel)
	twice := Apply(once, sel)

	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, []string{"3", "4"}, orderIDs(once))
}

func TestFilter_UnknownValuesMatchNothing(t *testing.T) {
	table := newTestTable()

	got := Filter(table, []string{"Z"}, []string{"Member", "Normal"}, []string{"F", "M"})
	assert.True(t, got.Empty())

	got = Filter(table, []string{"Z", "C"}, []string{"Member"}, []string{"M"})
	assert.Equal(t, []string{"4"}, orderIDs(got))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	table := newTestTable()
	before := append([]Row(nil), table.Rows...)

	_ = Filter(table, []string{"B"}, []string{"Member"}, []string{"F"})

	assert.Equal(t, before, table.Rows)
	assert.Equal(t, 5, table.Len())
}

func TestFilter_MissingCategoryColumn(t *testing.T) {
	table := NewTable([]string{ColumnCity, ColumnGender}, []Row{
		{OrderID: "1", Cells: []string{"A", "F"}},
	})

	got := Filter(table, []string{"A"}, []string{"Member"}, []string{"F"})
	assert.True(t, got.Empty())
}

func TestFilter_NilTable(t *testing.T) {
	got := Filter(nil, []string{"A"}, []string{"Member"}, []string{"F"})
	require.NotNil(t, got)
	assert.True(t, got.Empty())
}

func TestTable_Distinct(t *testing.T) {
	table := newTestTable()

	assert.Equal(t, []string{"A", "B", "C"}, table.Distinct(ColumnCity))
	assert.Equal(t, []string{"Member", "Normal"}, table.Distinct(ColumnCustomerType))
	assert.Equal(t, []string{"F", "M"}, table.Distinct(ColumnGender))
	assert.Empty(t, table.Distinct("unknown"))
}

func TestTable_Shape(t *testing.T) {
	rows, cols := newTestTable().Shape()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)

	var nilTable *Table
	rows, cols = nilTable.Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

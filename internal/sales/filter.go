package sales

// Selection holds the chosen values of the three category columns.
// A nil or empty slice selects nothing.
type Selection struct {
	Cities        []string `json:"cities" validate:"dive,max=128"`
	CustomerTypes []string `json:"customerTypes" validate:"dive,max=128"`
	Genders       []string `json:"genders" validate:"dive,max=128"`
}

// FullSelection selects every distinct value present in t.
func FullSelection(t *Table) Selection {
	return Selection{
		Cities:        t.Distinct(ColumnCity),
		CustomerTypes: t.Distinct(ColumnCustomerType),
		Genders:       t.Distinct(ColumnGender),
	}
}

// Filter returns the rows of t whose city, customer type and gender are all
// members of the corresponding set. Values are OR-combined within a column
// and columns are AND-combined. Row order is preserved and t is not modified.
func Filter(t *Table, cities, customerTypes, genders []string) *Table {
	return Apply(t, Selection{Cities: cities, CustomerTypes: customerTypes, Genders: genders})
}

// Apply is Filter with the sets carried in a Selection.
func Apply(t *Table, sel Selection) *Table {
	if t == nil {
		return EmptyTable()
	}

	constraints := []struct {
		col int
		set map[string]struct{}
	}{
		{t.ColumnIndex(ColumnCity), toSet(sel.Cities)},
		{t.ColumnIndex(ColumnCustomerType), toSet(sel.CustomerTypes)},
		{t.ColumnIndex(ColumnGender), toSet(sel.Genders)},
	}

	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		pass := true
		for _, c := range constraints {
			if c.col < 0 || c.col >= len(row.Cells) {
				pass = false
				break
			}
			if _, ok := c.set[row.Cells[c.col]]; !ok {
				pass = false
				break
			}
		}
		if pass {
			rows = append(rows, row)
		}
	}

	return t.with(rows)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

package sales

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeader = []any{"订单号", "分店", "城市", "顾客类型", "性别", "产品类型", "单价", "数量", "总价", "日期", "时间"}

// writeWorkbook saves a workbook with one sheet holding rows, starting at A1.
func writeWorkbook(t *testing.T, name, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func salesRows(data ...[]any) [][]any {
	rows := [][]any{{"超市销售数据"}, testHeader}
	return append(rows, data...)
}

func TestLoader_Load(t *testing.T) {
	path := writeWorkbook(t, "sales.xlsx", DefaultSheet, salesRows(
		[]any{"750-67-8428", "A", "银川", "会员", "女性", "健康美容", "74.69", "7", "548.97", "2019-01-05", "08:30:00"},
		[]any{"226-31-3081", "C", "呼和浩特", "普通", "女性", "电子配件", "15.28", "5", "80.22", "2019-03-08", "23:59:59"},
		[]any{"631-41-3108", "A", "银川", "普通", "男性", "家居生活", "46.33", "7", "340.53", "2019-03-03", "13:23:00"},
	))

	result := NewLoader(path, DefaultSheet).Load(context.Background())
	require.True(t, result.OK(), "unexpected error: %v", result.Err)

	table := result.Table
	rows, cols := table.Shape()
	assert.Equal(t, 3, rows)
	// header minus the row key, plus the hour column
	assert.Equal(t, len(testHeader), cols)
	assert.Equal(t, ColumnHour, table.Columns[len(table.Columns)-1])
	assert.Equal(t, -1, table.ColumnIndex(ColumnOrderID))

	assert.Equal(t, "750-67-8428", table.Rows[0].OrderID)
	assert.Equal(t, 8, table.Hour(table.Rows[0]))
	assert.Equal(t, 23, table.Hour(table.Rows[1]))
	assert.Equal(t, 13, table.Hour(table.Rows[2]))

	assert.Equal(t, "银川", table.Value(table.Rows[0], ColumnCity))
	assert.Equal(t, "548.97", table.Value(table.Rows[0], "总价"))
	assert.Equal(t, []string{"银川", "呼和浩特"}, table.Distinct(ColumnCity))
}

func TestLoader_Load_SkipsBlankRows(t *testing.T) {
	path := writeWorkbook(t, "sales.xlsx", DefaultSheet, salesRows(
		[]any{"1", "A", "银川", "会员", "女性", "x", "1", "1", "1", "2019-01-05", "10:00:00"},
		[]any{},
		[]any{"2", "A", "银川", "会员", "男性", "x", "1", "1", "1", "2019-01-05", "11:00:00"},
	))

	result := NewLoader(path, "").Load(context.Background())
	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	assert.Equal(t, 2, result.Table.Len())
	assert.Equal(t, "2", result.Table.Rows[1].OrderID)
}

func TestLoader_Load_HeaderOnly(t *testing.T) {
	path := writeWorkbook(t, "sales.xlsx", DefaultSheet, salesRows())

	result := NewLoader(path, DefaultSheet).Load(context.Background())
	require.True(t, result.OK())
	assert.True(t, result.Table.Empty())
	assert.Equal(t, "", result.Message())
}

func TestLoader_Load_Errors(t *testing.T) {
	dir := t.TempDir()

	legacy := filepath.Join(dir, "sales.xls")
	require.NoError(t, os.WriteFile(legacy, []byte("legacy"), 0o644))

	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip archive"), 0o644))

	tests := []struct {
		name  string
		path  string
		sheet string
		want  LoadErrorKind
	}{
		{
			name: "missing file",
			path: filepath.Join(dir, "absent.xlsx"),
			want: ResourceMissing,
		},
		{
			name: "unsupported format",
			path: legacy,
			want: DependencyMissing,
		},
		{
			name:  "missing sheet",
			path:  writeWorkbook(t, "other-sheet.xlsx", "其他", salesRows()),
			sheet: DefaultSheet,
			want:  SchemaMismatch,
		},
		{
			name: "missing order column",
			path: writeWorkbook(t, "no-key.xlsx", DefaultSheet, [][]any{
				{"banner"},
				{"城市", "时间"},
				{"银川", "08:00:00"},
			}),
			want: SchemaMismatch,
		},
		{
			name: "missing time column",
			path: writeWorkbook(t, "no-time.xlsx", DefaultSheet, [][]any{
				{"banner"},
				{"订单号", "城市"},
				{"1", "银川"},
			}),
			want: SchemaMismatch,
		},
		{
			name: "unparseable time",
			path: writeWorkbook(t, "bad-time.xlsx", DefaultSheet, salesRows(
				[]any{"1", "A", "银川", "会员", "女性", "x", "1", "1", "1", "2019-01-05", "8.30am"},
			)),
			want: SchemaMismatch,
		},
		{
			name: "fractional seconds",
			path: writeWorkbook(t, "fraction.xlsx", DefaultSheet, salesRows(
				[]any{"1", "A", "银川", "会员", "女性", "x", "1", "1", "1", "2019-01-05", "08:30:00.5"},
			)),
			want: SchemaMismatch,
		},
		{
			name: "comma fraction",
			path: writeWorkbook(t, "comma.xlsx", DefaultSheet, salesRows(
				[]any{"1", "A", "银川", "会员", "女性", "x", "1", "1", "1", "2019-01-05", "08:30:00,250"},
			)),
			want: SchemaMismatch,
		},
		{
			name: "banner only",
			path: writeWorkbook(t, "banner.xlsx", DefaultSheet, [][]any{{"banner"}}),
			want: SchemaMismatch,
		},
		{
			name: "corrupt workbook",
			path: corrupt,
			want: Unclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewLoader(tt.path, tt.sheet).Load(context.Background())

			require.False(t, result.OK())
			require.NotNil(t, result.Err)
			assert.Equal(t, tt.want, result.Err.Kind)
			assert.NotNil(t, result.Table)
			assert.True(t, result.Table.Empty())
			assert.NotEmpty(t, result.Message())
		})
	}
}

type panicReader struct{}

func (panicReader) ReadSheet(io.Reader, string) ([][]string, error) {
	panic("reader exploded")
}

type stubReader struct {
	rows [][]string
	err  error
}

func (s stubReader) ReadSheet(io.Reader, string) ([][]string, error) {
	return s.rows, s.err
}

func TestLoader_Load_CustomReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("ignored"), 0o644))

	t.Run("panic is unclassified", func(t *testing.T) {
		result := NewLoader(path, "", WithReader(".csv", panicReader{})).Load(context.Background())
		require.NotNil(t, result.Err)
		assert.Equal(t, Unclassified, result.Err.Kind)
		assert.Contains(t, result.Message(), "reader exploded")
	})

	t.Run("reader error is unclassified", func(t *testing.T) {
		boom := errors.New("boom")
		result := NewLoader(path, "", WithReader(".CSV", stubReader{err: boom})).Load(context.Background())
		require.NotNil(t, result.Err)
		assert.Equal(t, Unclassified, result.Err.Kind)
		assert.ErrorIs(t, result.Err, boom)
	})

	t.Run("rows from reader", func(t *testing.T) {
		rows := [][]string{
			{"banner"},
			{"订单号", "时间", "城市", "", "城市"},
			{"9", "00:00:01", "A", "x", "B"},
		}
		result := NewLoader(path, "", WithReader(".csv", stubReader{rows: rows})).Load(context.Background())
		require.True(t, result.OK(), "unexpected error: %v", result.Err)
		assert.Equal(t, []string{"时间", "城市", "Unnamed: 3", "城市.1", ColumnHour}, result.Table.Columns)
		assert.Equal(t, 0, result.Table.Hour(result.Table.Rows[0]))
	})

	t.Run("removed reader", func(t *testing.T) {
		xlsx := filepath.Join(t.TempDir(), "sales.xlsx")
		require.NoError(t, os.WriteFile(xlsx, []byte("x"), 0o644))
		result := NewLoader(xlsx, "", WithReader(".xlsx", nil)).Load(context.Background())
		require.NotNil(t, result.Err)
		assert.Equal(t, DependencyMissing, result.Err.Kind)
	})
}

func TestLoader_Load_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewLoader(filepath.Join(t.TempDir(), "sales.xlsx"), "").Load(ctx)
	require.NotNil(t, result.Err)
	assert.Equal(t, Unclassified, result.Err.Kind)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		value string
		hour  int
		ok    bool
	}{
		{"08:30:00", 8, true},
		{"8:30:00", 8, true},
		{"23:59:59", 23, true},
		{"08:30:00.5", 0, false},
		{"08:30:00,250", 0, false},
		{"8:5:0", 0, false},
		{"24:00:00", 0, false},
		{"08:30", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			ts, err := parseTime(tt.value)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, ts.Hour())
		})
	}
}

func TestLoadErrorKind_String(t *testing.T) {
	assert.Equal(t, "resource_missing", ResourceMissing.String())
	assert.Equal(t, "dependency_missing", DependencyMissing.String())
	assert.Equal(t, "schema_mismatch", SchemaMismatch.String())
	assert.Equal(t, "unclassified", Unclassified.String())
	assert.Equal(t, "none", LoadErrorKind(0).String())
}

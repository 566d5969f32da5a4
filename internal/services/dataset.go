package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
)

// DefaultTotalColumn is the column summed for sales totals.
const DefaultTotalColumn = "总价"

type Option func(*Dataset)

func WithTotalColumn(column string) Option {
	return func(d *Dataset) {
		if column != "" {
			d.totalColumn = column
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dataset) {
		d.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dataset) {
		d.logger = logger
	}
}

// Dataset holds the transaction table loaded at startup and answers filter
// queries against it. The table is never modified after it is stored.
type Dataset struct {
	mu       sync.RWMutex
	result   sales.LoadResult
	path     string
	sheet    string
	loadedAt time.Time

	totalColumn string
	metrics     *observability.Metrics
	logger      *slog.Logger
}

func NewDataset(opts ...Option) *Dataset {
	d := &Dataset{
		result:      sales.LoadResult{Table: sales.EmptyTable()},
		totalColumn: DefaultTotalColumn,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load runs loader and keeps its result, successful or not.
func (d *Dataset) Load(ctx context.Context, loader *sales.Loader) sales.LoadResult {
	start := time.Now()
	result := loader.Load(ctx)

	outcome := "ok"
	if result.Err != nil {
		outcome = result.Err.Kind.String()
	}
	d.metrics.RecordLoad(ctx, outcome, time.Since(start))

	d.mu.Lock()
	d.path = loader.Path()
	d.sheet = loader.Sheet()
	d.mu.Unlock()
	d.Store(result)

	if result.OK() {
		rows, cols := result.Table.Shape()
		d.logger.Debug("dataset ready", "rows", rows, "columns", cols, "duration", time.Since(start))
	} else {
		d.logger.Warn("dataset unavailable", "kind", result.Err.Kind.String(), "message", result.Message())
	}

	return result
}

// Store keeps result as the current data. A result without a table holds
// an empty one.
func (d *Dataset) Store(result sales.LoadResult) {
	if result.Table == nil {
		result.Table = sales.EmptyTable()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.result = result
	d.loadedAt = time.Now()
}

func (d *Dataset) Table() *sales.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.result.Table
}

// Err returns the load error, or nil when a table is available.
func (d *Dataset) Err() *sales.LoadError {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.result.Err
}

func (d *Dataset) Status() models.DatasetStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := models.DatasetStatus{
		Loaded:   d.result.OK(),
		Path:     d.path,
		Sheet:    d.sheet,
		LoadedAt: d.loadedAt,
	}
	if d.result.Err != nil {
		status.ErrorKind = d.result.Err.Kind
		status.Message = d.result.Message()
	}
	return status
}

// Options lists the distinct values of each category column.
func (d *Dataset) Options() models.FilterOptions {
	sel := sales.FullSelection(d.Table())
	return models.FilterOptions{
		Cities:        sel.Cities,
		CustomerTypes: sel.CustomerTypes,
		Genders:       sel.Genders,
	}
}

// DefaultSelection selects every value of every category column.
func (d *Dataset) DefaultSelection() sales.Selection {
	return sales.FullSelection(d.Table())
}

func (d *Dataset) Filter(ctx context.Context, sel sales.Selection) *sales.Table {
	out := sales.Apply(d.Table(), sel)
	d.metrics.RecordFilter(ctx, out.Len())
	return out
}

// Summary describes t: its shape, the cities it covers and its sales total.
func (d *Dataset) Summary(t *sales.Table) models.Summary {
	rows, cols := t.Shape()
	return models.Summary{
		Rows:       rows,
		Columns:    cols,
		Cities:     t.Distinct(sales.ColumnCity),
		TotalSales: d.total(t, t.Rows),
	}
}

// HourlySales groups t by hour of day, in ascending hour order.
func (d *Dataset) HourlySales(t *sales.Table) []models.HourlySales {
	groups := make(map[int]*models.HourlySales)
	for _, row := range t.Rows {
		hour := t.Hour(row)
		if hour < 0 {
			continue
		}
		g, ok := groups[hour]
		if !ok {
			g = &models.HourlySales{Hour: hour, Sales: decimal.Zero}
			groups[hour] = g
		}
		g.Transactions++
		g.Sales = g.Sales.Add(d.amount(t, row))
	}

	result := make([]models.HourlySales, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.HourlySales) int {
		return a.Hour - b.Hour
	})
	return result
}

// Page renders t as keyed rows with its summary.
func (d *Dataset) Page(t *sales.Table) models.TransactionPage {
	rows := make([]models.TransactionRow, 0, t.Len())
	for _, row := range t.Rows {
		values := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row.Cells) {
				values[col] = row.Cells[i]
			}
		}
		rows = append(rows, models.TransactionRow{OrderID: row.OrderID, Values: values})
	}

	return models.TransactionPage{
		Columns: t.Columns,
		Rows:    rows,
		Summary: d.Summary(t),
	}
}

func (d *Dataset) total(t *sales.Table, rows []sales.Row) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(d.amount(t, row))
	}
	return sum
}

// amount is the row's total column as a decimal; unparseable cells count as zero.
func (d *Dataset) amount(t *sales.Table, row sales.Row) decimal.Decimal {
	v, err := decimal.NewFromString(t.Value(row, d.totalColumn))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Stats reports dataset figures for the admin endpoint.
func (d *Dataset) Stats() map[string]any {
	status := d.Status()
	t := d.Table()
	rows, cols := t.Shape()

	return map[string]any{
		"loaded":         status.Loaded,
		"path":           status.Path,
		"sheet":          status.Sheet,
		"error_kind":     status.ErrorKind,
		"record_count":   rows,
		"column_count":   cols,
		"last_processed": status.LoadedAt,
		"cities":         len(t.Distinct(sales.ColumnCity)),
		"customer_types": len(t.Distinct(sales.ColumnCustomerType)),
		"genders":        len(t.Distinct(sales.ColumnGender)),
	}
}

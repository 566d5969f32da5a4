package sales

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultSheet is the worksheet holding the transactions.
	DefaultSheet = "销售数据"
	// TimeLayout is the accepted format of the 时间 column.
	TimeLayout = "15:04:05"

	bannerRows = 1
)

var (
	tracer = otel.Tracer("sales-dashboard/internal/sales")

	// timePattern admits only H:MM:SS or HH:MM:SS. time.Parse alone also
	// takes fractional seconds after the seconds field.
	timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
)

// SheetReader returns the raw cell text of one worksheet, row by row.
type SheetReader interface {
	ReadSheet(r io.Reader, sheet string) ([][]string, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithReader registers r for files with extension ext (".xlsx").
func WithReader(ext string, r SheetReader) Option {
	return func(l *Loader) {
		if r == nil {
			delete(l.readers, strings.ToLower(ext))
			return
		}
		l.readers[strings.ToLower(ext)] = r
	}
}

// WithLogger sets the logger used to report load outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader reads the transaction table from a spreadsheet at a fixed path.
type Loader struct {
	path    string
	sheet   string
	readers map[string]SheetReader
	logger  *slog.Logger
}

// NewLoader returns a loader for the worksheet sheet of the file at path.
// An empty sheet means DefaultSheet.
func NewLoader(path, sheet string, opts ...Option) *Loader {
	if sheet == "" {
		sheet = DefaultSheet
	}
	l := &Loader{
		path:    path,
		sheet:   sheet,
		readers: make(map[string]SheetReader),
		logger:  slog.Default(),
	}
	xlsx := &xlsxReader{}
	for _, ext := range []string{".xlsx", ".xlsm", ".xltx", ".xltm"} {
		l.readers[ext] = xlsx
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the configured spreadsheet location.
func (l *Loader) Path() string { return l.path }

// Sheet returns the configured worksheet name.
func (l *Loader) Sheet() string { return l.sheet }

// Load reads the sheet and derives the hour column. It never returns an
// error value and never panics: failures come back as an empty table with a
// classified LoadError.
func (l *Loader) Load(ctx context.Context) (result LoadResult) {
	ctx, span := tracer.Start(ctx, "sales.Load")
	defer span.End()
	span.SetAttributes(
		attribute.String("sales.path", l.path),
		attribute.String("sales.sheet", l.sheet),
	)

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result = l.fail(Unclassified, fmt.Errorf("panic: %v", p))
		}

		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Kind.String())
			l.logger.ErrorContext(ctx, "load transactions failed",
				"path", l.path,
				"sheet", l.sheet,
				"kind", result.Err.Kind.String(),
				"error", result.Err.Err,
				"duration", time.Since(start),
			)
			return
		}

		rows, cols := result.Table.Shape()
		span.SetAttributes(attribute.Int("sales.rows", rows))
		l.logger.InfoContext(ctx, "transactions loaded",
			"path", l.path,
			"rows", rows,
			"columns", cols,
			"duration", time.Since(start),
		)
	}()

	table, err := l.load(ctx)
	if err != nil {
		return l.fail(classify(err), err)
	}
	return LoadResult{Table: table}
}

func (l *Loader) fail(kind LoadErrorKind, err error) LoadResult {
	return LoadResult{
		Table: EmptyTable(),
		Err:   &LoadError{Kind: kind, Path: l.path, Sheet: l.sheet, Err: err},
	}
}

func (l *Loader) load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(l.path))
	reader, ok := l.readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w for %q files", ErrNoReader, ext)
	}

	rows, err := reader.ReadSheet(f, l.sheet)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildTable(rows)
}

func classify(err error) LoadErrorKind {
	var se *schemaError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ResourceMissing
	case errors.Is(err, ErrNoReader):
		return DependencyMissing
	case errors.Is(err, ErrSheetNotFound), errors.As(err, &se):
		return SchemaMismatch
	default:
		return Unclassified
	}
}

// buildTable turns raw sheet rows into a Table. The first row is a banner,
// the second the header.
func buildTable(raw [][]string) (*Table, error) {
	if len(raw) <= bannerRows {
		return nil, schemaErrorf("sheet has no header row")
	}

	header := normalizeHeader(raw[bannerRows])
	keyIdx := indexOf(header, ColumnOrderID)
	if keyIdx < 0 {
		return nil, schemaErrorf("missing column %q", ColumnOrderID)
	}
	timeIdx := indexOf(header, ColumnTime)
	if timeIdx < 0 {
		return nil, schemaErrorf("missing column %q", ColumnTime)
	}

	columns := make([]string, 0, len(header))
	for i, h := range header {
		if i != keyIdx {
			columns = append(columns, h)
		}
	}
	hourIdx := indexOf(columns, ColumnHour)
	if hourIdx < 0 {
		columns = append(columns, ColumnHour)
		hourIdx = len(columns) - 1
	}

	rows := make([]Row, 0, len(raw)-bannerRows-1)
	for i, record := range raw[bannerRows+1:] {
		if isBlank(record) {
			continue
		}
		sheetRow := i + bannerRows + 2

		cells := make([]string, len(header))
		copy(cells, record)

		value := strings.TrimSpace(cells[timeIdx])
		ts, err := parseTime(value)
		if err != nil {
			return nil, schemaErrorf("row %d: %s value %q does not match HH:MM:SS", sheetRow, ColumnTime, value)
		}

		out := make([]string, len(columns))
		j := 0
		for k, c := range cells {
			if k == keyIdx {
				continue
			}
			out[j] = c
			j++
		}
		out[hourIdx] = strconv.Itoa(ts.Hour())

		rows = append(rows, Row{OrderID: strings.TrimSpace(cells[keyIdx]), Cells: out})
	}

	return NewTable(columns, rows), nil
}

func parseTime(value string) (time.Time, error) {
	if !timePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%q is not HH:MM:SS", value)
	}
	return time.Parse(TimeLayout, value)
}

// normalizeHeader names blank header cells "Unnamed: N" and suffixes
// repeated names with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func indexOf(items []string, item string) int {
	for i, s := range items {
		if s == item {
			return i
		}
	}
	return -1
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

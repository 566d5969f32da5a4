package sales

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies why a load produced no table. Kinds are
// mutually exclusive and checked in declaration order.
type LoadErrorKind int

const (
	ResourceMissing LoadErrorKind = iota + 1
	DependencyMissing
	SchemaMismatch
	Unclassified
)

func (k LoadErrorKind) String() string {
	switch k {
	case ResourceMissing:
		return "resource_missing"
	case DependencyMissing:
		return "dependency_missing"
	case SchemaMismatch:
		return "schema_mismatch"
	case Unclassified:
		return "unclassified"
	default:
		return "none"
	}
}

// MarshalText renders the kind as its snake_case name.
func (k LoadErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// LoadError is a classified load failure.
type LoadError struct {
	Kind  LoadErrorKind
	Path  string
	Sheet string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Kind)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Message is the notice shown to the user in place of the table.
func (e *LoadError) Message() string {
	switch e.Kind {
	case ResourceMissing:
		return fmt.Sprintf("❌ 文件未找到！请检查 Excel 文件是否存在：%s", e.Path)
	case DependencyMissing:
		return fmt.Sprintf("❌ 无法读取该文件格式：%v", e.Err)
	case SchemaMismatch:
		return fmt.Sprintf("❌ 数据格式错误：%v\n请检查 Excel 是否有'%s'工作表、'%s'/'%s'列", e.Err, e.Sheet, ColumnOrderID, ColumnTime)
	default:
		return fmt.Sprintf("❌ 未知错误：%v", e.Err)
	}
}

// schemaError marks a failure as a schema mismatch inside the loader.
type schemaError struct {
	msg string
}

func (e *schemaError) Error() string { return e.msg }

func schemaErrorf(format string, args ...any) error {
	return &schemaError{msg: fmt.Sprintf(format, args...)}
}

// ErrNoReader is returned when no SheetReader handles a file's format.
var ErrNoReader = errors.New("no spreadsheet reader registered")

// LoadResult is the outcome of a load: a table, or an empty table and an error.
type LoadResult struct {
	Table *Table
	Err   *LoadError
}

// OK reports whether the load produced a table.
func (r LoadResult) OK() bool {
	return r.Err == nil && r.Table != nil
}

// Message returns the user-facing notice, or "" when the load succeeded.
func (r LoadResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message()
}

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"formula/internal/object"
	"formula/internal/types"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Drivers lists the database/sql drivers linked into the binary.
var Drivers = []string{"sqlite3", "mysql", "postgres"}

// Source is a database that supplies rows for evaluation.
type Source struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and checks it answers.
func Open(ctx context.Context, driver, dsn string) (*Source, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Debug("database connected", slog.String("driver", driver))
	return &Source{db: db, driver: driver}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// Exec runs a statement that returns no rows.
func (s *Source) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected unavailable: %w", err)
	}
	return n, nil
}

// Column describes one result column and the type its values take.
type Column struct {
	Name string
	Type types.Type
}

// Result holds the rows of a query.
type Result struct {
	Columns []Column
	Rows    []Row
}

// Scope maps every column to its type, for declaring query columns as
// expression variables.
func (r *Result) Scope() map[string]types.Type {
	scope := make(map[string]types.Type, len(r.Columns))
	for _, c := range r.Columns {
		scope[c.Name] = c.Type
	}
	return scope
}

// Row is one result row. It serves as the runtime data of an evaluation.
type Row struct {
	values map[string]object.Value
}

// NewRow builds a row from already converted values.
func NewRow(values map[string]object.Value) Row {
	return Row{values: values}
}

func (r Row) Lookup(name string) (object.Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Query runs a query and converts every row.
func (s *Source) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	result, err := renderRows(rows)
	if err != nil {
		return nil, err
	}
	slog.Debug("query done",
		slog.String("driver", s.driver),
		slog.Int("rows", len(result.Rows)))
	return result, nil
}

func renderRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	result := &Result{Columns: make([]Column, len(columns))}
	dbTypes := make([]string, len(columns))
	for i, col := range columns {
		if i < len(columnTypes) {
			dbTypes[i] = strings.ToUpper(columnTypes[i].DatabaseTypeName())
		}
		result.Columns[i] = Column{Name: col, Type: columnType(dbTypes[i])}
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]object.Value, len(columns))
		for i, col := range columns {
			row[col] = mapValue(values[i], dbTypes[i])
		}
		result.Rows = append(result.Rows, Row{values: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return result, nil
}

// columnType maps a database type name to the kinds its values convert to.
// Every column may be NULL, so void is always admitted.
func columnType(dbType string) types.Type {
	base, _, _ := strings.Cut(dbType, "(")
	switch base {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE",
		"NUMERIC", "DECIMAL", "SERIAL", "BIGSERIAL",
		"DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return types.OptionalNumber
	case "TEXT", "VARCHAR", "CHAR", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT", "BPCHAR", "UUID":
		return types.OptionalString
	case "BLOB", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB", "BINARY", "VARBINARY", "BYTEA":
		return types.OptionalBuffer
	case "BOOL", "BOOLEAN":
		return types.OptionalBoolean
	case "JSON", "JSONB":
		return types.Json
	}
	return types.Unknown
}

func mapValue(v interface{}, dbType string) object.Value {
	if v == nil {
		return object.NIL
	}
	switch x := v.(type) {
	case []byte:
		t := columnType(dbType)
		switch {
		case t.Equals(types.OptionalBuffer):
			return object.Buffer{Value: append([]byte(nil), x...)}
		case t.Equals(types.OptionalNumber):
			return parseNumber(string(x))
		default:
			return object.String{Value: string(x)}
		}
	case string:
		if columnType(dbType).Equals(types.OptionalNumber) {
			return parseNumber(x)
		}
		return object.String{Value: x}
	default:
		return object.FromNative(x)
	}
}

// parseNumber reads decimal text some drivers return for NUMERIC columns.
func parseNumber(s string) object.Value {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return object.String{Value: s}
	}
	return object.Number{Value: f}
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/squirrel"

	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Gateway is the persistence surface the seeding engine runs against. One
// implementation exists per database provider; all of them build SQL through
// squirrel and differ only in introspection and sequence handling.
type Gateway interface {
	ListColumns(ctx context.Context, table string) ([]types.ColumnMeta, error)
	WithTransaction(ctx context.Context, fn func(Session) error) error

	// Sequence repair support. Engines that have no settable auto-increment
	// counter report false and the other two methods are never called.
	SupportsSequenceRepair() bool
	MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error)
	ResetSequence(ctx context.Context, table, pkColumn string, next int64) error

	Close() error
}

// Session is the row-level API bound to one open transaction.
type Session interface {
	FindFirst(ctx context.Context, table string, predicate map[string]interface{}) (*Row, error)
	NewRow(table string) *Row
	Assign(row *Row, attrs map[string]interface{}) []string
	Save(ctx context.Context, row *Row) error
}

// Row is one table row, either loaded from the database or a fresh unpersisted
// shell. Attrs holds the last known column values; assignments are staged
// separately and written on Save.
type Row struct {
	Table  string
	Exists bool
	Key    map[string]interface{} // identity predicate used for updates
	Attrs  map[string]interface{}

	dirty map[string]interface{}
}

// Get returns the current value of a column, staged assignments included.
func (r *Row) Get(column string) interface{} {
	if v, ok := r.dirty[column]; ok {
		return v
	}
	return r.Attrs[column]
}

func NewGateway(provider string, db *sql.DB) Gateway {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresGateway(db)
	case "mysql":
		return NewMySQLGateway(db)
	case "sqlite", "sqlite3":
		return NewSQLiteGateway(db)
	default:
		return NewPostgresGateway(db)
	}
}

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// sqlGateway carries the row-level plumbing shared by every provider. The
// provider types embed it and add introspection plus sequence handling.
type sqlGateway struct {
	db          *sql.DB
	qb          squirrel.StatementBuilderType
	meta        map[string][]types.ColumnMeta // filled by ListColumns
	emptyInsert string                        // INSERT statement for a row with no attributes
}

func (g *sqlGateway) Close() error {
	return g.db.Close()
}

func (g *sqlGateway) WithTransaction(ctx context.Context, fn func(Session) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&session{gw: g, run: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (g *sqlGateway) cacheColumns(table string, columns []types.ColumnMeta) {
	g.meta[table] = columns
}

// columnNames returns the known column set for a table, nil when the table has
// never been introspected through this gateway.
func (g *sqlGateway) columnNames(table string) map[string]struct{} {
	columns, ok := g.meta[table]
	if !ok {
		return nil
	}
	names := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		names[col.Name] = struct{}{}
	}
	return names
}

func (g *sqlGateway) primaryKey(table string) string {
	for _, col := range g.meta[table] {
		if col.IsPrimary {
			return col.Name
		}
	}
	return ""
}

type session struct {
	gw  *sqlGateway
	run runner
}

func (s *session) NewRow(table string) *Row {
	return &Row{
		Table: table,
		Attrs: make(map[string]interface{}),
		dirty: make(map[string]interface{}),
	}
}

func (s *session) FindFirst(ctx context.Context, table string, predicate map[string]interface{}) (*Row, error) {
	if !validIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	for col := range predicate {
		if !validIdentifier.MatchString(col) {
			return nil, fmt.Errorf("invalid column name: %s", col)
		}
	}

	query, args, err := s.gw.qb.Select("*").From(table).
		Where(squirrel.Eq(predicate)).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	attrs, err := scanRowMap(rows)
	if err != nil {
		return nil, err
	}

	row := &Row{
		Table:  table,
		Exists: true,
		Attrs:  attrs,
		dirty:  make(map[string]interface{}),
	}
	row.Key = s.identityFor(table, attrs, predicate)
	return row, nil
}

// identityFor prefers the primary-key value as the update identity and falls
// back to the lookup predicate when no usable pk value was loaded.
func (s *session) identityFor(table string, attrs, predicate map[string]interface{}) map[string]interface{} {
	if pk := s.gw.primaryKey(table); pk != "" {
		if v, ok := attrs[pk]; ok && v != nil {
			return map[string]interface{}{pk: v}
		}
	}
	key := make(map[string]interface{}, len(predicate))
	for col, v := range predicate {
		key[col] = v
	}
	return key
}

func (s *session) Assign(row *Row, attrs map[string]interface{}) []string {
	known := s.gw.columnNames(row.Table)

	var warnings []string
	for _, key := range sortedKeys(attrs) {
		if known != nil {
			if _, ok := known[key]; !ok {
				warnings = append(warnings, fmt.Sprintf("unknown attribute %q on table %s, skipped", key, row.Table))
				continue
			}
		}
		row.dirty[key] = attrs[key]
	}
	return warnings
}

func (s *session) Save(ctx context.Context, row *Row) error {
	if !validIdentifier.MatchString(row.Table) {
		return fmt.Errorf("invalid table name: %s", row.Table)
	}
	for col := range row.dirty {
		if !validIdentifier.MatchString(col) {
			return fmt.Errorf("invalid column name: %s", col)
		}
	}

	if row.Exists {
		if len(row.dirty) == 0 {
			return nil
		}
		update := s.gw.qb.Update(row.Table)
		for _, col := range sortedKeys(row.dirty) {
			update = update.Set(col, writeValue(row.dirty[col]))
		}
		query, args, err := update.Where(squirrel.Eq(row.Key)).ToSql()
		if err != nil {
			return err
		}
		if _, err := s.run.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	} else if len(row.dirty) == 0 {
		if _, err := s.run.ExecContext(ctx, fmt.Sprintf(s.gw.emptyInsert, row.Table)); err != nil {
			return err
		}
	} else {
		columns := sortedKeys(row.dirty)
		values := make([]interface{}, len(columns))
		for i, col := range columns {
			values[i] = writeValue(row.dirty[col])
		}
		query, args, err := s.gw.qb.Insert(row.Table).Columns(columns...).Values(values...).ToSql()
		if err != nil {
			return err
		}
		if _, err := s.run.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	for col, v := range row.dirty {
		row.Attrs[col] = v
	}
	row.dirty = make(map[string]interface{})
	row.Exists = true
	return nil
}

// writeValue maps schema-default markers onto raw SQL expressions.
func writeValue(v interface{}) interface{} {
	if expr, ok := v.(types.DefaultExpr); ok {
		return squirrel.Expr(string(expr))
	}
	return v
}

func scanRowMap(rows *sql.Rows) (map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	attrs := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			attrs[col] = string(b)
			continue
		}
		attrs[col] = values[i]
	}
	return attrs, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

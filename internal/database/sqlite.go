package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

type SQLiteGateway struct {
	sqlGateway
}

func NewSQLiteGateway(db *sql.DB) *SQLiteGateway {
	return &SQLiteGateway{sqlGateway{
		db:          db,
		qb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		meta:        make(map[string][]types.ColumnMeta),
		emptyInsert: "INSERT INTO %s DEFAULT VALUES",
	}}
}

func (g *SQLiteGateway) ListColumns(ctx context.Context, table string) ([]types.ColumnMeta, error) {
	if !validIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.ColumnMeta
	for rows.Next() {
		var cid, notNull, pk int
		var column types.ColumnMeta
		var dataType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &column.Name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		column.Type = strings.ToUpper(dataType)
		column.Nullable = notNull == 0
		column.IsPrimary = pk > 0
		// An INTEGER primary key aliases the rowid and is assigned by the engine.
		column.IsAutoIncrement = column.IsPrimary && strings.EqualFold(dataType, "INTEGER")
		if defaultValue.Valid {
			column.Default = defaultValue.String
		}

		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist or has no columns", table)
	}

	g.cacheColumns(table, columns)
	return columns, nil
}

func (g *SQLiteGateway) SupportsSequenceRepair() bool {
	return true
}

func (g *SQLiteGateway) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	if !validIdentifier.MatchString(pkColumn) {
		return 0, fmt.Errorf("invalid column name: %s", pkColumn)
	}

	query := fmt.Sprintf(`SELECT COALESCE(MAX("%s"), 0) FROM "%s"`, pkColumn, table)

	var max int64
	if err := g.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// ResetSequence updates the sqlite_sequence bookkeeping row. Tables without
// AUTOINCREMENT have no row there, and a database without any AUTOINCREMENT
// table has no sqlite_sequence table at all; both cases are no-ops.
func (g *SQLiteGateway) ResetSequence(ctx context.Context, table, pkColumn string, next int64) error {
	var name string
	err := g.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='sqlite_sequence'").Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	// sqlite_sequence stores the last value handed out, not the next one.
	_, err = g.db.ExecContext(ctx, "UPDATE sqlite_sequence SET seq = ? WHERE name = ?", next-1, table)
	return err
}

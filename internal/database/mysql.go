package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

type MySQLGateway struct {
	sqlGateway
}

// MySQL type mappings
var mysqlTypeMap = map[string]string{
	"varchar": "VARCHAR", "char": "CHAR", "text": "TEXT", "longtext": "TEXT",
	"mediumtext": "TEXT", "tinytext": "TEXT",
	"int": "INTEGER", "bigint": "BIGINT", "smallint": "SMALLINT", "tinyint": "TINYINT",
	"mediumint": "INTEGER", "decimal": "NUMERIC", "numeric": "NUMERIC",
	"float": "REAL", "double": "DOUBLE PRECISION",
	"datetime": "TIMESTAMP", "timestamp": "TIMESTAMP", "date": "DATE", "time": "TIME",
	"json": "JSON",
}

func NewMySQLGateway(db *sql.DB) *MySQLGateway {
	return &MySQLGateway{sqlGateway{
		db:          db,
		qb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		meta:        make(map[string][]types.ColumnMeta),
		emptyInsert: "INSERT INTO %s () VALUES ()",
	}}
}

func (g *MySQLGateway) ListColumns(ctx context.Context, table string) ([]types.ColumnMeta, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default, column_key, extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.ColumnMeta
	for rows.Next() {
		var column types.ColumnMeta
		var dataType, isNullable, columnKey, extra string
		var columnDefault sql.NullString

		if err := rows.Scan(&column.Name, &dataType, &isNullable, &columnDefault, &columnKey, &extra); err != nil {
			return nil, err
		}

		column.Type = mapMySQLType(dataType)
		column.Nullable = isNullable == "YES"
		column.IsPrimary = columnKey == "PRI"
		column.IsAutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if columnDefault.Valid {
			column.Default = normalizeMySQLDefault(columnDefault.String, extra)
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

// normalizeMySQLDefault turns the bare literal that information_schema reports
// into a usable SQL expression. MySQL stores a string default 'active' as the
// unquoted text active, unlike PostgreSQL and SQLite.
func normalizeMySQLDefault(raw, extra string) string {
	upper := strings.ToUpper(raw)
	if upper == "NULL" {
		return ""
	}
	if strings.Contains(strings.ToUpper(extra), "DEFAULT_GENERATED") ||
		strings.HasPrefix(upper, "CURRENT_TIMESTAMP") {
		return raw
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return raw
	}
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'"
}

func (g *MySQLGateway) SupportsSequenceRepair() bool {
	return true
}

func (g *MySQLGateway) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	if !validIdentifier.MatchString(pkColumn) {
		return 0, fmt.Errorf("invalid column name: %s", pkColumn)
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(`%s`), 0) FROM `%s`", pkColumn, table)

	var max int64
	if err := g.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (g *MySQLGateway) ResetSequence(ctx context.Context, table, pkColumn string, next int64) error {
	if !validIdentifier.MatchString(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}
	_, err := g.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = %d", table, next))
	return err
}

func mapMySQLType(dataType string) string {
	if mapped, ok := mysqlTypeMap[strings.ToLower(dataType)]; ok {
		return mapped
	}
	return strings.ToUpper(dataType)
}

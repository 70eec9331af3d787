package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

type PostgresGateway struct {
	sqlGateway
}

// PostgreSQL type mappings
var pgTypeMap = map[string]string{
	"character varying": "VARCHAR", "varchar": "VARCHAR",
	"character": "CHAR", "char": "CHAR", "text": "TEXT",
	"integer": "INTEGER", "int4": "INTEGER", "bigint": "BIGINT", "int8": "BIGINT",
	"smallint": "SMALLINT", "int2": "SMALLINT", "boolean": "BOOLEAN", "bool": "BOOLEAN",
	"timestamp with time zone": "TIMESTAMP WITH TIME ZONE", "timestamptz": "TIMESTAMP WITH TIME ZONE",
	"timestamp without time zone": "TIMESTAMP", "timestamp": "TIMESTAMP",
	"date": "DATE", "time": "TIME", "numeric": "NUMERIC", "decimal": "NUMERIC",
	"real": "REAL", "float4": "REAL", "double precision": "DOUBLE PRECISION", "float8": "DOUBLE PRECISION",
	"uuid": "UUID", "json": "JSON", "jsonb": "JSONB",
}

func NewPostgresGateway(db *sql.DB) *PostgresGateway {
	return &PostgresGateway{sqlGateway{
		db:          db,
		qb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		meta:        make(map[string][]types.ColumnMeta),
		emptyInsert: "INSERT INTO %s DEFAULT VALUES",
	}}
}

func (g *PostgresGateway) ListColumns(ctx context.Context, table string) ([]types.ColumnMeta, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT
			c.column_name, c.data_type, c.is_nullable, c.column_default, c.is_identity,
			CASE WHEN pk.column_name IS NOT NULL THEN true ELSE false END AS is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT ku.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage ku ON tc.constraint_name = ku.constraint_name
			WHERE tc.table_name = $1 AND tc.constraint_type = 'PRIMARY KEY'
		) pk ON c.column_name = pk.column_name
		WHERE c.table_name = $1 AND c.table_schema = 'public'
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.ColumnMeta
	for rows.Next() {
		var column types.ColumnMeta
		var dataType, isNullable, isIdentity string
		var columnDefault sql.NullString

		if err := rows.Scan(&column.Name, &dataType, &isNullable, &columnDefault, &isIdentity, &column.IsPrimary); err != nil {
			return nil, err
		}

		column.Type = mapPostgresType(dataType)
		column.Nullable = isNullable == "YES"
		if columnDefault.Valid {
			column.Default = columnDefault.String
		}
		column.IsAutoIncrement = isIdentity == "YES" || strings.HasPrefix(column.Default, "nextval(")
		// Serial defaults are sequence plumbing, not seedable values.
		if strings.HasPrefix(column.Default, "nextval(") {
			column.Default = ""
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

func (g *PostgresGateway) SupportsSequenceRepair() bool {
	return true
}

func (g *PostgresGateway) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	if !validIdentifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	if !validIdentifier.MatchString(pkColumn) {
		return 0, fmt.Errorf("invalid column name: %s", pkColumn)
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s",
		pq.QuoteIdentifier(pkColumn), pq.QuoteIdentifier(table))

	var max int64
	if err := g.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (g *PostgresGateway) ResetSequence(ctx context.Context, table, pkColumn string, next int64) error {
	// is_called=false makes the next nextval() return exactly `next`.
	_, err := g.db.ExecContext(ctx,
		"SELECT setval(pg_get_serial_sequence($1, $2), $3, false)", table, pkColumn, next)
	return err
}

func mapPostgresType(dataType string) string {
	if mapped, ok := pgTypeMap[strings.ToLower(dataType)]; ok {
		return mapped
	}
	return strings.ToUpper(dataType)
}

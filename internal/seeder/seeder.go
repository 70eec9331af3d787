package seeder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Lumos-Labs-HQ/sprout/internal/database"
	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

// Timestamp columns are always stamped by the write path, never by seed data.
const (
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Engine reconciles a declared set of seed records against one table. Repeated
// runs with the same input converge to the same rows without duplicates.
type Engine struct {
	gw         database.Gateway
	table      string
	pk         string
	pkAuto     bool
	columns    map[string]types.ColumnMeta // schema snapshot, fixed for the run
	constraint []string
	candidates []map[string]interface{}
	reporter   Reporter
}

// New captures the table's column metadata once and validates the constraint
// columns and the candidate list eagerly, so misconfiguration surfaces before
// any transaction opens.
func New(ctx context.Context, gw database.Gateway, table string, constraints []string,
	candidates []map[string]interface{}, reporter Reporter) (*Engine, error) {

	if reporter == nil {
		reporter = NewConsoleReporter()
	}

	columns, err := gw.ListColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of table %s: %w", table, err)
	}

	e := &Engine{
		gw:         gw,
		table:      table,
		columns:    types.ColumnMap(columns),
		candidates: candidates,
		reporter:   reporter,
	}
	for _, col := range columns {
		if col.IsPrimary {
			e.pk = col.Name
			e.pkAuto = col.IsAutoIncrement
			break
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no seed records for table %s: %w", table, ErrEmptySeedSet)
	}

	e.constraint, err = e.resolveConstraints(constraints, columns)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// resolveConstraints de-duplicates the requested constraint columns preserving
// caller order, falling back to the primary key when none were given.
func (e *Engine) resolveConstraints(requested []string, columns []types.ColumnMeta) ([]string, error) {
	if len(requested) == 0 {
		if e.pk == "" {
			return nil, fmt.Errorf("table %s has no primary key, constraint columns are required", e.table)
		}
		return []string{e.pk}, nil
	}

	var resolved, invalid []string
	seen := make(map[string]bool, len(requested))
	for _, col := range requested {
		if seen[col] {
			continue
		}
		seen[col] = true
		if _, ok := e.columns[col]; !ok {
			invalid = append(invalid, col)
			continue
		}
		resolved = append(resolved, col)
	}

	if len(invalid) > 0 {
		valid := make([]string, 0, len(columns))
		for _, col := range columns {
			valid = append(valid, col.Name)
		}
		return nil, &UnknownConstraintColumnError{Table: e.table, Invalid: invalid, Valid: valid}
	}
	return resolved, nil
}

// Seed runs the whole candidate list inside one transaction, in declaration
// order. Any save failure rolls back everything. After a successful commit the
// primary-key sequence is bumped past the highest seeded id, so later inserts
// don't collide with explicitly seeded keys.
func (e *Engine) Seed(ctx context.Context, opts Options) ([]*database.Row, error) {
	var seeded []*database.Row

	err := e.gw.WithTransaction(ctx, func(s database.Session) error {
		for _, candidate := range e.candidates {
			row, err := e.seedOne(ctx, s, candidate, opts)
			if err != nil {
				return err
			}
			if row != nil {
				seeded = append(seeded, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.repairSequence(ctx)
	return seeded, nil
}

func (e *Engine) seedOne(ctx context.Context, s database.Session, candidate map[string]interface{}, opts Options) (*database.Row, error) {
	predicate := make(map[string]interface{}, len(e.constraint))
	for _, col := range e.constraint {
		// A missing constraint value matches against NULL.
		predicate[col] = candidate[col]
	}

	row, err := s.FindFirst(ctx, e.table, predicate)
	if err != nil {
		return nil, fmt.Errorf("failed to match seed record on table %s: %w", e.table, err)
	}
	if row == nil {
		row = s.NewRow(e.table)
	} else if opts.InsertOnly {
		return nil, nil
	}

	attrs := e.merge(candidate)

	if !opts.Quiet {
		e.reporter.Report(fmt.Sprintf("seed %s: %s", e.table, formatAttrs(attrs)))
	}

	for _, warning := range s.Assign(row, attrs) {
		e.reporter.Report(warning)
	}

	if err := s.Save(ctx, row); err != nil {
		saveErr := &RecordNotSavedError{Table: e.table, Messages: []string{err.Error()}}
		for _, msg := range saveErr.Messages {
			e.reporter.Report(fmt.Sprintf("cannot save %s: %s", e.table, msg))
		}
		return nil, saveErr
	}
	return row, nil
}

// merge projects a candidate payload onto the known, non-system columns.
// Unknown keys are dropped silently so seed files can be shared across
// slightly divergent schema versions. An explicit null takes the column's
// schema default when one exists.
func (e *Engine) merge(candidate map[string]interface{}) map[string]interface{} {
	attrs := make(map[string]interface{}, len(candidate))
	for key, value := range candidate {
		if key == createdAtColumn || key == updatedAtColumn {
			continue
		}
		col, ok := e.columns[key]
		if !ok {
			continue
		}
		if value == nil && col.Default != "" {
			attrs[key] = types.DefaultExpr(col.Default)
			continue
		}
		attrs[key] = value
	}
	return attrs
}

// repairSequence is a best-effort post-commit fixup; a failure here leaves the
// seeded rows in place and only costs a warning.
func (e *Engine) repairSequence(ctx context.Context) {
	if e.pk == "" || !e.pkAuto || !e.gw.SupportsSequenceRepair() {
		return
	}

	max, err := e.gw.MaxPrimaryKey(ctx, e.table, e.pk)
	if err != nil {
		e.reporter.Report(fmt.Sprintf("sequence repair skipped for %s: %v", e.table, err))
		return
	}
	if err := e.gw.ResetSequence(ctx, e.table, e.pk, max+1); err != nil {
		e.reporter.Report(fmt.Sprintf("sequence repair failed for %s: %v", e.table, err))
	}
}

func formatAttrs(attrs map[string]interface{}) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s=%q", k, v))
		case types.DefaultExpr:
			parts = append(parts, fmt.Sprintf("%s=DEFAULT(%s)", k, string(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

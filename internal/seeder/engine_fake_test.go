package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Lumos-Labs-HQ/sprout/internal/database"
	"github.com/Lumos-Labs-HQ/sprout/internal/types"
)

// fakeGateway is an in-memory Gateway for exercising engine behavior that the
// sqlite-backed tests can't isolate: capability gating, warning flow and save
// failure reporting.
type fakeGateway struct {
	columns        []types.ColumnMeta
	rows           []map[string]interface{}
	supportsRepair bool
	repairCalls    []int64
	failSaveMsg    string
	warnOn         string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		columns: []types.ColumnMeta{
			{Name: "id", Type: "INTEGER", IsPrimary: true, IsAutoIncrement: true},
			{Name: "code", Type: "TEXT"},
			{Name: "name", Type: "TEXT", Nullable: true},
		},
	}
}

func (g *fakeGateway) ListColumns(ctx context.Context, table string) ([]types.ColumnMeta, error) {
	return g.columns, nil
}

func (g *fakeGateway) WithTransaction(ctx context.Context, fn func(database.Session) error) error {
	snapshot := make([]map[string]interface{}, len(g.rows))
	copy(snapshot, g.rows)
	if err := fn(&fakeSession{gw: g}); err != nil {
		g.rows = snapshot
		return err
	}
	return nil
}

func (g *fakeGateway) SupportsSequenceRepair() bool {
	return g.supportsRepair
}

func (g *fakeGateway) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	var max int64
	for _, row := range g.rows {
		if id, ok := row[pkColumn].(int64); ok && id > max {
			max = id
		}
	}
	return max, nil
}

func (g *fakeGateway) ResetSequence(ctx context.Context, table, pkColumn string, next int64) error {
	g.repairCalls = append(g.repairCalls, next)
	return nil
}

func (g *fakeGateway) Close() error {
	return nil
}

type fakeSession struct {
	gw *fakeGateway
}

func (s *fakeSession) FindFirst(ctx context.Context, table string, predicate map[string]interface{}) (*database.Row, error) {
	for _, stored := range s.gw.rows {
		match := true
		for col, want := range predicate {
			if stored[col] != want {
				match = false
				break
			}
		}
		if match {
			attrs := make(map[string]interface{}, len(stored))
			for col, v := range stored {
				attrs[col] = v
			}
			return &database.Row{Table: table, Exists: true, Key: predicate, Attrs: attrs}, nil
		}
	}
	return nil, nil
}

func (s *fakeSession) NewRow(table string) *database.Row {
	return &database.Row{Table: table, Attrs: make(map[string]interface{})}
}

func (s *fakeSession) Assign(row *database.Row, attrs map[string]interface{}) []string {
	var warnings []string
	for col, v := range attrs {
		if col == s.gw.warnOn {
			warnings = append(warnings, fmt.Sprintf("unknown attribute %q on table %s, skipped", col, row.Table))
			continue
		}
		row.Attrs[col] = v
	}
	return warnings
}

func (s *fakeSession) Save(ctx context.Context, row *database.Row) error {
	if s.gw.failSaveMsg != "" {
		return errors.New(s.gw.failSaveMsg)
	}
	if !row.Exists {
		stored := make(map[string]interface{}, len(row.Attrs))
		for col, v := range row.Attrs {
			stored[col] = v
		}
		s.gw.rows = append(s.gw.rows, stored)
		row.Exists = true
	}
	return nil
}

func TestSequenceRepairCapabilityGate(t *testing.T) {
	candidates := []map[string]interface{}{{"id": int64(5), "code": "US"}}

	t.Run("unsupported gateway is never asked", func(t *testing.T) {
		gw := newFakeGateway()
		gw.supportsRepair = false

		engine, err := New(context.Background(), gw, "countries", []string{"code"}, candidates, &recordingReporter{})
		if err != nil {
			t.Fatalf("Failed to construct engine: %v", err)
		}
		if _, err := engine.Seed(context.Background(), Options{Quiet: true}); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}
		if len(gw.repairCalls) != 0 {
			t.Errorf("Expected no sequence repair calls, got %v", gw.repairCalls)
		}
	})

	t.Run("supported gateway repairs once to max+1", func(t *testing.T) {
		gw := newFakeGateway()
		gw.supportsRepair = true

		engine, err := New(context.Background(), gw, "countries", []string{"code"}, candidates, &recordingReporter{})
		if err != nil {
			t.Fatalf("Failed to construct engine: %v", err)
		}
		if _, err := engine.Seed(context.Background(), Options{Quiet: true}); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}
		if len(gw.repairCalls) != 1 {
			t.Fatalf("Expected exactly one sequence repair call, got %d", len(gw.repairCalls))
		}
		if gw.repairCalls[0] != 6 {
			t.Errorf("Expected sequence reset to 6, got %d", gw.repairCalls[0])
		}
	})

	t.Run("non auto-increment pk skips repair", func(t *testing.T) {
		gw := newFakeGateway()
		gw.supportsRepair = true
		gw.columns[0].IsAutoIncrement = false

		engine, err := New(context.Background(), gw, "countries", []string{"code"}, candidates, &recordingReporter{})
		if err != nil {
			t.Fatalf("Failed to construct engine: %v", err)
		}
		if _, err := engine.Seed(context.Background(), Options{Quiet: true}); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}
		if len(gw.repairCalls) != 0 {
			t.Errorf("Expected no sequence repair calls, got %v", gw.repairCalls)
		}
	})
}

func TestSaveFailureIsReportedThenFatal(t *testing.T) {
	gw := newFakeGateway()
	gw.failSaveMsg = "code has already been taken"

	reporter := &recordingReporter{}
	engine, err := New(context.Background(), gw, "countries", []string{"code"},
		[]map[string]interface{}{{"code": "US"}}, reporter)
	if err != nil {
		t.Fatalf("Failed to construct engine: %v", err)
	}

	_, err = engine.Seed(context.Background(), Options{Quiet: true})
	if err == nil {
		t.Fatal("Expected seed to fail")
	}

	var saveErr *RecordNotSavedError
	if !errors.As(err, &saveErr) {
		t.Fatalf("Expected RecordNotSavedError, got %v", err)
	}
	if len(saveErr.Messages) == 0 || saveErr.Messages[0] != "code has already been taken" {
		t.Errorf("Expected failure messages to carry the save error, got %v", saveErr.Messages)
	}

	found := false
	for _, line := range reporter.lines {
		if strings.Contains(line, "code has already been taken") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected failure message to be reported before the error, got %v", reporter.lines)
	}
}

func TestAttributeWarningsAlwaysReported(t *testing.T) {
	gw := newFakeGateway()
	gw.warnOn = "name"

	reporter := &recordingReporter{}
	engine, err := New(context.Background(), gw, "countries", []string{"code"},
		[]map[string]interface{}{{"code": "US", "name": "United States"}}, reporter)
	if err != nil {
		t.Fatalf("Failed to construct engine: %v", err)
	}

	// Quiet suppresses progress only, never warnings.
	if _, err := engine.Seed(context.Background(), Options{Quiet: true}); err != nil {
		t.Fatalf("Expected warning to be non-fatal, got %v", err)
	}

	found := false
	for _, line := range reporter.lines {
		if strings.Contains(line, `unknown attribute "name"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected attribute warning to be reported, got %v", reporter.lines)
	}

	if len(gw.rows) != 1 {
		t.Fatalf("Expected record to continue with accepted attributes, got %d rows", len(gw.rows))
	}
	if _, ok := gw.rows[0]["name"]; ok {
		t.Error("Expected rejected attribute to be absent from the saved row")
	}
}

func TestRecordsProcessedInDeclarationOrder(t *testing.T) {
	gw := newFakeGateway()

	reporter := &recordingReporter{}
	engine, err := New(context.Background(), gw, "countries", []string{"code"},
		[]map[string]interface{}{
			{"code": "US"},
			{"code": "CA"},
			{"code": "FR"},
		}, reporter)
	if err != nil {
		t.Fatalf("Failed to construct engine: %v", err)
	}

	rows, err := engine.Seed(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	want := []string{"US", "CA", "FR"}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(rows))
	}
	for i, code := range want {
		if rows[i].Get("code") != code {
			t.Errorf("Expected record %d to be %s, got %v", i, code, rows[i].Get("code"))
		}
	}
}

package seeder

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSeedFile(t, dir, "countries.yaml", `
tables:
  - table: countries
    constraints: [code]
    insert_only: true
    records:
      - code: US
        name: United States
      - code: CA
        name: null
`)

	file, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("Failed to load seed file: %v", err)
	}

	if len(file.Tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(file.Tables))
	}

	table := file.Tables[0]
	if table.Table != "countries" {
		t.Errorf("Expected table 'countries', got '%s'", table.Table)
	}
	if len(table.Constraints) != 1 || table.Constraints[0] != "code" {
		t.Errorf("Expected constraints [code], got %v", table.Constraints)
	}
	if !table.InsertOnly {
		t.Error("Expected insert_only to be true")
	}
	if len(table.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(table.Records))
	}
	if table.Records[0]["name"] != "United States" {
		t.Errorf("Expected first record name 'United States', got %v", table.Records[0]["name"])
	}

	// Explicit YAML nulls must survive as nil values so the engine can apply
	// schema defaults for them.
	if v, ok := table.Records[1]["name"]; !ok || v != nil {
		t.Errorf("Expected explicit null to be present as nil, got %v (present=%v)", v, ok)
	}
}

func TestLoadSeedFileRejectsMissingTableName(t *testing.T) {
	dir := t.TempDir()
	path := writeSeedFile(t, dir, "broken.yaml", `
tables:
  - constraints: [code]
    records:
      - code: US
`)

	if _, err := LoadSeedFile(path); err == nil {
		t.Fatal("Expected error for entry with no table name")
	}
}

func TestLoadSeedDirOrdersByName(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "002_regions.yaml", "tables:\n  - table: regions\n    records:\n      - code: W\n")
	writeSeedFile(t, dir, "001_countries.yml", "tables:\n  - table: countries\n    records:\n      - code: US\n")
	writeSeedFile(t, dir, "notes.txt", "ignored")

	files, err := LoadSeedDir(dir)
	if err != nil {
		t.Fatalf("Failed to load seed dir: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("Expected 2 seed files, got %d", len(files))
	}
	if files[0].Tables[0].Table != "countries" {
		t.Errorf("Expected 001_countries.yml first, got %s", files[0].Tables[0].Table)
	}
	if files[1].Tables[0].Table != "regions" {
		t.Errorf("Expected 002_regions.yaml second, got %s", files[1].Tables[0].Table)
	}
}

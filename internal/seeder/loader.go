package seeder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is one parsed seed definition file.
type SeedFile struct {
	Path   string      `yaml:"-"`
	Tables []TableSeed `yaml:"tables"`
}

// TableSeed declares the desired records for one table.
type TableSeed struct {
	Table       string                   `yaml:"table"`
	Constraints []string                 `yaml:"constraints"`
	InsertOnly  bool                     `yaml:"insert_only"`
	Records     []map[string]interface{} `yaml:"records"`
}

// LoadSeedFile parses a single YAML seed definition.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	file.Path = path

	for i, table := range file.Tables {
		if table.Table == "" {
			return nil, fmt.Errorf("seed file %s: entry %d has no table name", path, i+1)
		}
	}
	return &file, nil
}

// LoadSeedDir loads every .yml/.yaml file in a directory in name order, so
// files can be prefixed 001_, 002_ to control seeding order across tables.
func LoadSeedDir(dir string) ([]*SeedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	files := make([]*SeedFile, 0, len(paths))
	for _, path := range paths {
		file, err := LoadSeedFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

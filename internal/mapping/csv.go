// Package mapping loads the attribute-to-column override table. The table is
// a semicolon-separated CSV shipped alongside the binary: first column is the
// attribute name as it appears in service responses, second is the database
// column it maps to, any further columns are informational.
package mapping

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// AttributeMap maps original attribute names to database column names.
type AttributeMap map[string]string

// Load reads the mapping csv from dir/name. The file is loaded once per run;
// callers hold the returned map for the run's lifetime.
func Load(dir, name string) (AttributeMap, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attribute map %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 // trailing note column is optional

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse attribute map %s: %w", path, err)
	}

	m := make(AttributeMap, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("attribute map %s: row %d has %d fields, want at least 2", path, i+1, len(rec))
		}
		m[rec[0]] = rec[1]
	}
	return m, nil
}

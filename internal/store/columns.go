package store

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidColumnName reports whether name is a safe SQL identifier. Column
// names reach SQL text by interpolation, so anything else is rejected
// before it gets near a statement.
func ValidColumnName(name string) bool {
	return identPattern.MatchString(name)
}

// ColumnNames returns the current column set of the OPSUB table.
func (s *Store) ColumnNames() (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", Table))
	if err != nil {
		return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("table_info failed: %w", err)}
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("table_info scan failed: %w", err)}
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &UnavailableError{Path: s.path, Err: err}
	}
	if len(cols) == 0 {
		return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("table %s does not exist", Table)}
	}
	return cols, nil
}

// EnsureServiceIDColumn adds the OS_ID column if the table does not have it
// yet. The add is guarded by a column-presence check, so repeated runs
// against the same database are safe.
func (s *Store) EnsureServiceIDColumn() (map[string]bool, error) {
	cols, err := s.ColumnNames()
	if err != nil {
		return nil, err
	}
	if cols[ServiceIDColumn] {
		return cols, nil
	}

	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", Table, ServiceIDColumn)
	if _, err := s.db.Exec(query); err != nil {
		return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("failed to add %s column: %w", ServiceIDColumn, err)}
	}
	s.log.Info("schema evolved", zap.String("table", Table), zap.String("column", ServiceIDColumn))

	cols[ServiceIDColumn] = true
	return cols, nil
}

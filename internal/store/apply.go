package store

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Update carries one success record's translated attributes to the store.
type Update struct {
	Posident        string
	ServiceRecordID string

	// Columns maps validated column names to their new values.
	Columns map[string]string
}

// ApplyBatch writes every update inside one transaction. Rows are addressed
// by posident equality; each update sets the record's attribute columns plus
// the OS_ID column. Any write fault rolls the whole batch back and surfaces
// a PersistenceError, so a batch is either fully applied or not at all.
func (s *Store) ApplyBatch(updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, u := range updates {
		// Deterministic statement order within a record
		cols := make([]string, 0, len(u.Columns))
		for col := range u.Columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			if !ValidColumnName(col) {
				return &PersistenceError{Posident: u.Posident, Err: fmt.Errorf("invalid column name %q", col)}
			}
			query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", Table, col, KeyColumn)
			if _, err := tx.Exec(query, u.Columns[col], u.Posident); err != nil {
				return &PersistenceError{Posident: u.Posident, Err: err}
			}
		}

		query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", Table, ServiceIDColumn, KeyColumn)
		if _, err := tx.Exec(query, u.ServiceRecordID, u.Posident); err != nil {
			return &PersistenceError{Posident: u.Posident, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Err: fmt.Errorf("failed to commit batch: %w", err)}
	}
	committed = true

	s.log.Debug("batch persisted", zap.Int("updates", len(updates)))
	return nil
}

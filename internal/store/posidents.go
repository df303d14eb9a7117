package store

import "fmt"

// DefaultPosidentQuery selects every posident in the table.
const DefaultPosidentQuery = "SELECT ID FROM OPSUB"

// Posidents returns the deduplicated working set of posidents. filter is an
// optional SQL select statement whose first column is the posident; when
// empty, every row of the table is selected. Order follows the query, with
// later duplicates dropped, so runs against the same data see the same
// batching.
func (s *Store) Posidents(filter string) ([]string, error) {
	query := filter
	if query == "" {
		query = DefaultPosidentQuery
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("posident query failed: %w", err)}
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("posident scan failed: %w", err)}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &UnavailableError{Path: s.path, Err: fmt.Errorf("posident iteration failed: %w", err)}
	}

	if len(ids) < 2 {
		return nil, &EmptyResultError{Query: query, Count: len(ids)}
	}
	return ids, nil
}

package store

import (
	"context"
	"fmt"
	"time"
)

// AddSearch records a search for an authenticated user.
func (s *Store) AddSearch(ctx context.Context, e *SearchEntry) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO search_history (user_id, term, locale, result_count)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING id::text, created_at`,
		e.UserID, e.Term, e.Locale, e.ResultCount,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("add search: %w", err)
	}
	return nil
}

// ListSearches returns the user's latest searches, newest first.
func (s *Store) ListSearches(ctx context.Context, userID string, limit int) ([]SearchEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id::text, term, locale, result_count, created_at
		FROM search_history
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	out := make([]SearchEntry, 0, limit)
	for rows.Next() {
		var e SearchEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Term, &e.Locale, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteSearches clears a user's history and returns the number of rows removed.
func (s *Store) DeleteSearches(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM search_history WHERE user_id = $1::uuid`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete searches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeSearchesBefore removes history older than t.
func (s *Store) PurgeSearchesBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM search_history WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("purge searches: %w", err)
	}
	return tag.RowsAffected(), nil
}

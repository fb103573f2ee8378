package store

import (
	"context"
	"fmt"
)

// SaveNotionToken inserts or replaces the user's Notion connection.
func (s *Store) SaveNotionToken(ctx context.Context, t *NotionToken) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO notion_tokens (user_id, access_token, workspace_id, workspace_name, workspace_icon, bot_id)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token   = EXCLUDED.access_token,
			workspace_id   = EXCLUDED.workspace_id,
			workspace_name = EXCLUDED.workspace_name,
			workspace_icon = EXCLUDED.workspace_icon,
			bot_id         = EXCLUDED.bot_id,
			updated_at     = now()
		RETURNING created_at, updated_at`,
		t.UserID, t.AccessToken, t.WorkspaceID, t.WorkspaceName, t.WorkspaceIcon, t.BotID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save notion token: %w", err)
	}
	return nil
}

func (s *Store) GetNotionToken(ctx context.Context, userID string) (*NotionToken, error) {
	t := &NotionToken{}
	err := s.db.QueryRow(ctx, `
		SELECT user_id::text, access_token, workspace_id, workspace_name, workspace_icon, bot_id, created_at, updated_at
		FROM notion_tokens WHERE user_id = $1::uuid`, userID,
	).Scan(&t.UserID, &t.AccessToken, &t.WorkspaceID, &t.WorkspaceName, &t.WorkspaceIcon, &t.BotID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (s *Store) DeleteNotionToken(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM notion_tokens WHERE user_id = $1::uuid`, userID)
	if err != nil {
		return fmt.Errorf("delete notion token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"time"
)

const taskColumns = `id, episode_id, language, status, progress, message, error,
	COALESCE(user_id::text, ''), user_email, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*Task, error) {
	t := &Task{}
	var progress int16
	err := row.Scan(&t.ID, &t.EpisodeID, &t.Language, &t.Status, &progress, &t.Message, &t.Error,
		&t.UserID, &t.UserEmail, &t.CreatedAt, &t.UpdatedAt)
	t.Progress = int(progress)
	return t, err
}

// CreateTask inserts t. Status defaults to pending.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	if t.Status == "" {
		t.Status = TaskPending
	}
	t.Progress = t.Status.Progress()
	err := s.db.QueryRow(ctx, `
		INSERT INTO transcription_tasks (id, episode_id, language, status, progress, message, user_id, user_email)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8)
		RETURNING created_at, updated_at`,
		t.ID, t.EpisodeID, int16(t.Language), string(t.Status), int16(t.Progress), t.Message, t.UserID, t.UserEmail,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateTask moves a task to status. Progress follows the status.
func (s *Store) UpdateTask(ctx context.Context, id string, status TaskStatus, message, errText string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE transcription_tasks
		SET status = $2, progress = $3, message = $4, error = $5, updated_at = now()
		WHERE id = $1`,
		id, string(status), int16(status.Progress()), message, errText)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM transcription_tasks WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// ActiveTaskForEpisode returns the newest unfinished task for the episode
// in lang that was updated at or after since. Older unfinished tasks lost
// their worker and do not block a new attempt.
func (s *Store) ActiveTaskForEpisode(ctx context.Context, episodeID string, lang Language, since time.Time) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM transcription_tasks
		WHERE episode_id = $1 AND language = $2 AND status NOT IN ('completed', 'failed')
			AND updated_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`, episodeID, int16(lang), since))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// FailStaleTasks marks unfinished tasks last touched before t as failed
// with errText, so the purge can later remove them.
func (s *Store) FailStaleTasks(ctx context.Context, t time.Time, errText string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transcription_tasks
		SET status = 'failed', progress = 0, error = $2, updated_at = now()
		WHERE status NOT IN ('completed', 'failed') AND updated_at < $1`, t, errText)
	if err != nil {
		return 0, fmt.Errorf("fail stale tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeTasksBefore removes finished tasks last touched before t.
func (s *Store) PurgeTasksBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM transcription_tasks
		WHERE status IN ('completed', 'failed') AND updated_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("purge tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

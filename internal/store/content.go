package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertTranscript writes the transcript for (episode, language).
func (s *Store) UpsertTranscript(ctx context.Context, t *Transcript) error {
	content := []byte(t.Content)
	if len(content) == 0 {
		content = []byte("[]")
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO transcripts (episode_id, language, status, podcast_name, episode_title, pub_date, user_id, content)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8)
		ON CONFLICT (episode_id, language) DO UPDATE SET
			status        = EXCLUDED.status,
			podcast_name  = EXCLUDED.podcast_name,
			episode_title = EXCLUDED.episode_title,
			pub_date      = EXCLUDED.pub_date,
			user_id       = COALESCE(EXCLUDED.user_id, transcripts.user_id),
			content       = EXCLUDED.content,
			updated_at    = now()
		RETURNING created_at, updated_at`,
		t.EpisodeID, int16(t.Language), int16(t.Status), t.PodcastName, t.EpisodeTitle, t.PubDate, t.UserID, content,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	return nil
}

func (s *Store) GetTranscript(ctx context.Context, episodeID string, lang Language) (*Transcript, error) {
	t := &Transcript{}
	var content []byte
	err := s.db.QueryRow(ctx, `
		SELECT episode_id, language, status, podcast_name, episode_title, pub_date,
			COALESCE(user_id::text, ''), content, created_at, updated_at
		FROM transcripts WHERE episode_id = $1 AND language = $2`, episodeID, int16(lang),
	).Scan(&t.EpisodeID, &t.Language, &t.Status, &t.PodcastName, &t.EpisodeTitle, &t.PubDate,
		&t.UserID, &content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	t.Content = content
	return t, nil
}

// UpsertSummary writes the summary for (episode, language). A row owned by
// another user is left untouched and ErrNotOwner is returned; rows without
// an owner can be claimed by anyone.
func (s *Store) UpsertSummary(ctx context.Context, sm *Summary) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO summaries (episode_id, language, status, content, podcast_name, episode_title,
			episode_duration, pub_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid)
		ON CONFLICT (episode_id, language) DO UPDATE SET
			status           = EXCLUDED.status,
			content          = EXCLUDED.content,
			podcast_name     = EXCLUDED.podcast_name,
			episode_title    = EXCLUDED.episode_title,
			episode_duration = EXCLUDED.episode_duration,
			pub_date         = EXCLUDED.pub_date,
			user_id          = COALESCE(EXCLUDED.user_id, summaries.user_id),
			updated_at       = now()
		WHERE summaries.user_id IS NULL OR summaries.user_id IS NOT DISTINCT FROM EXCLUDED.user_id
		RETURNING created_at, updated_at`,
		sm.EpisodeID, int16(sm.Language), int16(sm.Status), sm.Content, sm.PodcastName, sm.EpisodeTitle,
		sm.EpisodeDuration, sm.PubDate, sm.UserID,
	).Scan(&sm.CreatedAt, &sm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotOwner
	}
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context, episodeID string, lang Language) (*Summary, error) {
	sm := &Summary{}
	err := s.db.QueryRow(ctx, `
		SELECT episode_id, language, status, content, podcast_name, episode_title, episode_duration,
			pub_date, COALESCE(user_id::text, ''), created_at, updated_at
		FROM summaries WHERE episode_id = $1 AND language = $2`, episodeID, int16(lang),
	).Scan(&sm.EpisodeID, &sm.Language, &sm.Status, &sm.Content, &sm.PodcastName, &sm.EpisodeTitle,
		&sm.EpisodeDuration, &sm.PubDate, &sm.UserID, &sm.CreatedAt, &sm.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return sm, nil
}

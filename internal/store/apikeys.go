package store

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/id"
)

// APIKeyPrefix starts every key secret.
const APIKeyPrefix = "lat_"

// apiKeyDisplayLen is how much of the secret is kept in clear for listings.
const apiKeyDisplayLen = 12

func hashAPIKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// CreateAPIKey stores a new key and returns it with its secret. The secret
// is only ever available here; the table keeps its SHA-256.
func (s *Store) CreateAPIKey(ctx context.Context, userID, name string) (*APIKey, string, error) {
	secret := id.NewToken(APIKeyPrefix, 20)
	k := &APIKey{UserID: userID, Name: name, Prefix: secret[:apiKeyDisplayLen]}

	err := s.db.QueryRow(ctx, `
		INSERT INTO api_keys (user_id, name, prefix, key_hash)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING id::text, created_at`,
		userID, name, k.Prefix, hashAPIKey(secret),
	).Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", ErrConflict
		}
		return nil, "", fmt.Errorf("create api key: %w", err)
	}
	return k, secret, nil
}

// ListAPIKeys returns the user's keys, revoked ones included.
func (s *Store) ListAPIKeys(ctx context.Context, userID string) ([]APIKey, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id::text, name, prefix, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var out []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.Prefix, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// RevokeAPIKey marks a key revoked. Unknown, foreign and already revoked
// keys return ErrNotFound.
func (s *Store) RevokeAPIKey(ctx context.Context, userID, keyID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE api_keys SET revoked_at = now()
		WHERE id::text = $1 AND user_id = $2::uuid AND revoked_at IS NULL`, keyID, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthenticateAPIKey resolves a live key to its owner and records its use.
func (s *Store) AuthenticateAPIKey(ctx context.Context, secret string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx, `
		UPDATE api_keys SET last_used_at = now()
		WHERE key_hash = $1 AND revoked_at IS NULL
		RETURNING user_id::text`, hashAPIKey(secret),
	).Scan(&userID)
	if err != nil {
		return "", notFound(err)
	}
	return userID, nil
}

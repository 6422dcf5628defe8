package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bensuskins/planner/internal/models"
	"github.com/google/uuid"
)

type FeedTokenRepository interface {
	Create(ctx context.Context, token models.FeedToken) (models.FeedToken, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (models.FeedToken, error)
	FindAll(ctx context.Context, userID string) ([]models.FeedToken, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteFeedTokenRepository struct {
	database *sql.DB
}

func NewFeedTokenRepository(database *sql.DB) *SQLiteFeedTokenRepository {
	return &SQLiteFeedTokenRepository{database: database}
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func (repository *SQLiteFeedTokenRepository) Create(ctx context.Context, token models.FeedToken) (models.FeedToken, error) {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now().UTC()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO feed_tokens (id, user_id, name, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.Name, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return models.FeedToken{}, fmt.Errorf("creating feed token: %w", err)
	}
	return token, nil
}

func (repository *SQLiteFeedTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (models.FeedToken, error) {
	var token models.FeedToken
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, user_id, name, token_hash, expires_at, created_at
		FROM feed_tokens WHERE token_hash = ?`, tokenHash,
	).Scan(&token.ID, &token.UserID, &token.Name, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FeedToken{}, fmt.Errorf("finding feed token: %w", ErrNotFound)
	}
	if err != nil {
		return models.FeedToken{}, fmt.Errorf("finding token by hash: %w", err)
	}
	return token, nil
}

func (repository *SQLiteFeedTokenRepository) FindAll(ctx context.Context, userID string) ([]models.FeedToken, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, user_id, name, token_hash, expires_at, created_at
		FROM feed_tokens WHERE user_id = ? ORDER BY created_at DESC, name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding feed tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.FeedToken
	for rows.Next() {
		var token models.FeedToken
		if err := rows.Scan(&token.ID, &token.UserID, &token.Name, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feed token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (repository *SQLiteFeedTokenRepository) Delete(ctx context.Context, id string) error {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM feed_tokens WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting feed token: %w", err)
	}
	return requireAffected(result, fmt.Errorf("deleting feed token %s: %w", id, ErrNotFound))
}

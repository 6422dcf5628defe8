package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/repository"
)

var (
	ErrInvalidFeedToken  = errors.New("invalid feed token")
	ErrFeedTokenNotFound = errors.New("feed token not found")
)

// FeedTokenService issues the secrets calendar clients use to subscribe to a
// user's feed. Calendar apps cannot send headers, so the token travels in the
// query string and stands in for X-User-ID.
type FeedTokenService struct {
	tokenRepo repository.FeedTokenRepository
	now       func() time.Time
}

func NewFeedTokenService(tokenRepo repository.FeedTokenRepository) *FeedTokenService {
	return &FeedTokenService{tokenRepo: tokenRepo, now: time.Now}
}

func (service *FeedTokenService) WithClock(now func() time.Time) *FeedTokenService {
	service.now = now
	return service
}

// Issue stores a new token and returns it with the raw secret, which is not
// recoverable afterwards. A zero ttl never expires.
func (service *FeedTokenService) Issue(ctx context.Context, userID, name string, ttl time.Duration) (models.FeedToken, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.FeedToken{}, "", fmt.Errorf("%w: name is required", ErrInvalidFeedToken)
	}
	if ttl < 0 {
		return models.FeedToken{}, "", fmt.Errorf("%w: negative lifetime", ErrInvalidFeedToken)
	}

	raw, err := generateToken()
	if err != nil {
		return models.FeedToken{}, "", err
	}

	token := models.FeedToken{
		UserID:    userID,
		Name:      name,
		TokenHash: repository.HashToken(raw),
	}
	if ttl > 0 {
		expires := service.now().Add(ttl).UTC()
		token.ExpiresAt = &expires
	}

	created, err := service.tokenRepo.Create(ctx, token)
	if err != nil {
		return models.FeedToken{}, "", fmt.Errorf("creating feed token: %w", err)
	}
	slog.Info("issued feed token", "user_id", userID, "token_id", created.ID)
	return created, raw, nil
}

// Resolve returns the user a raw token belongs to.
func (service *FeedTokenService) Resolve(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidFeedToken
	}
	token, err := service.tokenRepo.FindByTokenHash(ctx, repository.HashToken(raw))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidFeedToken
	}
	if err != nil {
		return "", fmt.Errorf("resolving feed token: %w", err)
	}
	if token.Expired(service.now()) {
		return "", fmt.Errorf("%w: expired", ErrInvalidFeedToken)
	}
	return token.UserID, nil
}

func (service *FeedTokenService) List(ctx context.Context, userID string) ([]models.FeedToken, error) {
	tokens, err := service.tokenRepo.FindAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding feed tokens: %w", err)
	}
	return tokens, nil
}

func (service *FeedTokenService) Revoke(ctx context.Context, userID, id string) error {
	tokens, err := service.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if token.ID == id {
			if err := service.tokenRepo.Delete(ctx, id); err != nil {
				return fmt.Errorf("deleting feed token: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFeedTokenNotFound, id)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

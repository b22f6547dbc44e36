package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"minigame-arcade/models"

	"github.com/sethvargo/go-retry"
)

// CatalogClient reads game definitions. Reads are idempotent, so transport
// failures and 5xx responses are retried with exponential backoff.
type CatalogClient struct {
	base
	MaxRetries uint64
	BaseDelay  time.Duration
}

func NewCatalogClient(cfg Config) *CatalogClient {
	return &CatalogClient{
		base:       newBase(cfg),
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
	}
}

func (c *CatalogClient) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(gameID), nil, &game)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (c *CatalogClient) ListGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/games", nil, &games)
	})
	return games, err
}

func (c *CatalogClient) withRetry(ctx context.Context, f func(context.Context) error) error {
	backoff := retry.WithMaxRetries(c.MaxRetries, retry.NewExponential(c.BaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := f(ctx)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isTransient(err error) bool {
	var terr *TransportError
	if errors.As(err, &terr) {
		return true
	}
	var herr *HTTPError
	return errors.As(err, &herr) && herr.IsRetryable()
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shockz09/uni-cli-sub002/internal/db"
)

// CacheServiceImpl implements CacheService on top of the SQLite-backed
// db.CacheStore. Every method degrades to ErrCacheUnavailable when no
// store was opened, so callers can treat caching as optional.
type CacheServiceImpl struct {
	store *db.CacheStore
}

// NewCacheService wraps a cache store; a nil store is allowed and marks
// the cache unavailable.
func NewCacheService(store *db.CacheStore) *CacheServiceImpl {
	return &CacheServiceImpl{store: store}
}

func (s *CacheServiceImpl) ensureStore() error {
	if s.store == nil {
		return fmt.Errorf("%w: no cache store configured", ErrCacheUnavailable)
	}
	return nil
}

// anyBlank reports whether any value is empty after trimming whitespace.
func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func (s *CacheServiceImpl) GetSummary(ctx context.Context, accountEmail, messageID string) (string, bool, error) {
	if err := s.ensureStore(); err != nil {
		return "", false, err
	}
	if anyBlank(accountEmail, messageID) {
		return "", false, fmt.Errorf("%w: account email and message ID cannot be empty", ErrInvalidInput)
	}

	cached, found, err := s.store.LoadAISummary(ctx, accountEmail, messageID)
	if err != nil {
		return "", false, fmt.Errorf("failed to read summary cache: %w", err)
	}
	return cached, found, nil
}

func (s *CacheServiceImpl) SaveSummary(ctx context.Context, accountEmail, messageID, summary string) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if anyBlank(accountEmail, messageID, summary) {
		return fmt.Errorf("%w: account email, message ID and summary cannot be empty", ErrInvalidInput)
	}

	if err := s.store.SaveAISummary(ctx, accountEmail, messageID, summary, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

func (s *CacheServiceImpl) InvalidateSummary(ctx context.Context, accountEmail, messageID string) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	if anyBlank(accountEmail, messageID) {
		return fmt.Errorf("%w: account email and message ID cannot be empty", ErrInvalidInput)
	}

	if err := s.store.DeleteAISummary(ctx, accountEmail, messageID); err != nil {
		return fmt.Errorf("failed to evict cached summary: %w", err)
	}
	return nil
}

// PruneMessageBodies deletes cached message bodies older than keepDays
// and reports how many rows were removed.
func (s *CacheServiceImpl) PruneMessageBodies(ctx context.Context, accountEmail string, keepDays int) (int64, error) {
	if err := s.ensureStore(); err != nil {
		return 0, err
	}
	if anyBlank(accountEmail) {
		return 0, fmt.Errorf("%w: account email cannot be empty", ErrInvalidInput)
	}
	if keepDays < 0 {
		return 0, fmt.Errorf("%w: retention days cannot be negative", ErrInvalidInput)
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays).Unix()
	removed, err := s.store.PruneMessageBodies(ctx, accountEmail, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune message bodies: %w", err)
	}
	return removed, nil
}

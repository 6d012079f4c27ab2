package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CacheStore handles the local caches: resolved message bodies and AI summaries
type CacheStore struct {
	db *sql.DB
}

// NewCacheStore wraps the base store's connection. A nil store yields a
// nil cache, which refuses every operation instead of panicking.
func NewCacheStore(store *Store) *CacheStore {
	if store == nil {
		return nil
	}
	return &CacheStore{db: store.DB()}
}

func (cs *CacheStore) ready() error {
	if cs == nil || cs.db == nil {
		return fmt.Errorf("cache store not initialized")
	}
	return nil
}

func anyBlank(parts ...string) bool {
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return true
		}
	}
	return false
}

// Both caches share one shape: a value column keyed by
// (account_email, message_id) with an updated_at stamp. The table and
// column arguments below are trusted literals from this file, never
// caller input.

func (cs *CacheStore) upsert(ctx context.Context, table, column, accountEmail, messageID, value string, updatedAt int64) error {
	query := fmt.Sprintf(`INSERT INTO %[1]s(account_email, message_id, %[2]s, updated_at)
VALUES(?,?,?,?)
ON CONFLICT(account_email, message_id) DO UPDATE SET %[2]s=excluded.%[2]s, updated_at=excluded.updated_at;
`, table, column)
	_, err := cs.db.ExecContext(ctx, query, accountEmail, messageID, value, updatedAt)
	return err
}

func (cs *CacheStore) lookup(ctx context.Context, table, column, accountEmail, messageID string) (string, bool, error) {
	if err := cs.ready(); err != nil {
		return "", false, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE account_email=? AND message_id=?`, column, table)

	var value string
	switch err := cs.db.QueryRowContext(ctx, query, accountEmail, messageID).Scan(&value); err {
	case nil:
		return value, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, err
	}
}

func (cs *CacheStore) drop(ctx context.Context, table, accountEmail, messageID string) error {
	if err := cs.ready(); err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE account_email=? AND message_id=?`, table)
	_, err := cs.db.ExecContext(ctx, query, accountEmail, messageID)
	return err
}

// SaveMessageBody caches the resolved plain-text body of a message. An
// empty body is a valid resolution result and is cached as such.
func (cs *CacheStore) SaveMessageBody(ctx context.Context, accountEmail, messageID, plainText string, updatedAt int64) error {
	if err := cs.ready(); err != nil {
		return err
	}
	if anyBlank(accountEmail, messageID) {
		return fmt.Errorf("invalid body cache inputs")
	}
	return cs.upsert(ctx, "message_bodies", "plain_text", accountEmail, messageID, plainText, updatedAt)
}

// LoadMessageBody returns a cached body if present.
func (cs *CacheStore) LoadMessageBody(ctx context.Context, accountEmail, messageID string) (string, bool, error) {
	return cs.lookup(ctx, "message_bodies", "plain_text", accountEmail, messageID)
}

// DeleteMessageBody evicts a single cached body.
func (cs *CacheStore) DeleteMessageBody(ctx context.Context, accountEmail, messageID string) error {
	return cs.drop(ctx, "message_bodies", accountEmail, messageID)
}

// PruneMessageBodies removes cached bodies last updated before the given
// unix timestamp and reports how many rows went away.
func (cs *CacheStore) PruneMessageBodies(ctx context.Context, accountEmail string, olderThan int64) (int64, error) {
	if err := cs.ready(); err != nil {
		return 0, err
	}
	res, err := cs.db.ExecContext(ctx, `DELETE FROM message_bodies WHERE account_email=? AND updated_at<?`, accountEmail, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveAISummary caches a generated summary, replacing any earlier one
// for the same message.
func (cs *CacheStore) SaveAISummary(ctx context.Context, accountEmail, messageID, summary string, updatedAt int64) error {
	if err := cs.ready(); err != nil {
		return err
	}
	if anyBlank(accountEmail, messageID, summary) {
		return fmt.Errorf("invalid summary inputs")
	}
	return cs.upsert(ctx, "ai_summaries", "summary", accountEmail, messageID, summary, updatedAt)
}

// LoadAISummary returns a cached summary if present.
func (cs *CacheStore) LoadAISummary(ctx context.Context, accountEmail, messageID string) (string, bool, error) {
	return cs.lookup(ctx, "ai_summaries", "summary", accountEmail, messageID)
}

// DeleteAISummary evicts a single cached summary.
func (cs *CacheStore) DeleteAISummary(ctx context.Context, accountEmail, messageID string) error {
	return cs.drop(ctx, "ai_summaries", accountEmail, messageID)
}

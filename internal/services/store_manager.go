package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shockz09/uni-cli-sub002/internal/config"
	"github.com/shockz09/uni-cli-sub002/internal/db"
)

// StoreManager owns the per-account cache database. Summaries and message
// bodies live in the same sqlite file, so one open store serves both.
type StoreManager struct {
	config *config.Config
	logger *log.Logger

	mu           sync.RWMutex
	store        *db.Store
	accountEmail string
}

// NewStoreManager creates a manager that opens stores lazily.
func NewStoreManager(cfg *config.Config, logger *log.Logger) *StoreManager {
	return &StoreManager{
		config: cfg,
		logger: logger,
	}
}

// OpenForAccount opens the cache database for the given account. It returns
// nil without error when caching is disabled in the configuration. Calling it
// again for the same account reuses the open store.
func (m *StoreManager) OpenForAccount(ctx context.Context, accountEmail string) (*db.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil && m.accountEmail == accountEmail {
		return m.store, nil
	}

	// A store open for a different account must be closed first
	if m.store != nil {
		if m.logger != nil {
			m.logger.Printf("closing cache store for account %s", m.accountEmail)
		}
		if err := m.store.Close(); err != nil && m.logger != nil {
			m.logger.Printf("warning: failed to close cache store: %v", err)
		}
		m.store = nil
		m.accountEmail = ""
	}

	if !m.config.Cache.Enabled && !m.config.LLM.CacheEnabled {
		if m.logger != nil {
			m.logger.Printf("caching disabled, not opening store for account %s", accountEmail)
		}
		return nil, nil
	}

	dbPath := m.storePathForAccount(accountEmail)
	if dbPath == "" {
		return nil, fmt.Errorf("failed to determine cache path for account %s", accountEmail)
	}

	if m.logger != nil {
		m.logger.Printf("opening cache store at %s", dbPath)
	}

	store, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store for account %s at %s: %w", accountEmail, dbPath, err)
	}

	m.store = store
	m.accountEmail = accountEmail

	return store, nil
}

// Store returns the currently open store, or nil when none is open
func (m *StoreManager) Store() *db.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store
}

// AccountEmail returns the account whose store is currently open
func (m *StoreManager) AccountEmail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountEmail
}

// Close closes the current store connection
func (m *StoreManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		err := m.store.Close()
		m.store = nil
		m.accountEmail = ""
		return err
	}

	return nil
}

// storePathForAccount derives the sqlite file path for an account. The base
// comes from the cache directory (LLM.CachePath overrides it); a base without
// a file extension is treated as a directory and gets a per-account file named
// after the sanitized email.
func (m *StoreManager) storePathForAccount(accountEmail string) string {
	baseDir := m.config.CacheDir()
	if m.config.LLM.CachePath != "" {
		baseDir = config.ExpandPath(m.config.LLM.CachePath)
	}
	if baseDir == "" {
		return ""
	}

	// A base with a file extension is used as the database path itself.
	if ext := filepath.Ext(baseDir); ext != "" && ext != "." {
		return baseDir
	}
	return filepath.Join(baseDir, accountFileName(accountEmail)+".sqlite3")
}

// accountFileName turns an account email into a filesystem-safe file stem.
func accountFileName(email string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '@', ' ':
			return '_'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(email)))
	if stem == "" {
		return "default"
	}
	return stem
}

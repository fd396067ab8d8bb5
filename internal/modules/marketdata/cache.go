package marketdata

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is an explicit TTL cache for aligned price tables, keyed by
// (asset set, date range). Entries are msgpack-encoded rows in the
// cache database; expired rows are swept on a schedule.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewCache creates a cache with the given TTL over an open connection.
func NewCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		ttl: ttl,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// Init creates the price_table_cache table if it does not exist.
func (c *Cache) Init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_table_cache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create price_table_cache table: %w", err)
	}
	return nil
}

// Key builds a deterministic cache key from a symbol set and date range.
// Symbols are sorted so the key is order-independent.
func Key(symbols []string, startDate, endDate string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	keyData := strings.Join(sorted, ",") + "|" + startDate + "|" + endDate
	h := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(h[:16])
}

// Get loads a cached price table. The second return value is false on
// miss, expiry, or decode failure.
func (c *Cache) Get(key string) (*PriceTable, bool) {
	var blob []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM price_table_cache WHERE key = ?`, key,
	).Scan(&blob, &expiresAt)
	if err != nil {
		return nil, false
	}

	if time.Now().Unix() >= expiresAt {
		return nil, false
	}

	var table PriceTable
	if err := msgpack.Unmarshal(blob, &table); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to decode cached price table, ignoring entry")
		return nil, false
	}

	return &table, true
}

// Set stores a price table under the key with the configured TTL.
func (c *Cache) Set(key string, table *PriceTable) error {
	blob, err := msgpack.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode price table: %w", err)
	}

	expiresAt := time.Now().Add(c.ttl).Unix()
	_, err = c.db.Exec(`
		INSERT INTO price_table_cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, blob, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cached price table: %w", err)
	}
	return nil
}

// Sweep deletes expired entries and returns how many were removed.
func (c *Cache) Sweep() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM price_table_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		c.log.Debug().Int64("removed", removed).Msg("Swept expired cache entries")
	}
	return removed, nil
}

// Provider combines the store with the cache: table requests hit the
// cache first and fall back to an aligned read from the store.
type Provider struct {
	store *Store
	cache *Cache
	log   zerolog.Logger
}

// NewProvider creates a cached price table provider. cache may be nil,
// in which case every request reads from the store.
func NewProvider(store *Store, cache *Cache, log zerolog.Logger) *Provider {
	return &Provider{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "price_provider").Logger(),
	}
}

// GetPriceTable returns the aligned price table for symbols in a range,
// from cache when fresh.
func (p *Provider) GetPriceTable(symbols []string, startDate, endDate string) (*PriceTable, error) {
	key := Key(symbols, startDate, endDate)

	if p.cache != nil {
		if table, ok := p.cache.Get(key); ok {
			p.log.Debug().Str("key", key[:8]).Msg("Using cached price table")
			return table, nil
		}
	}

	table, err := p.store.GetPriceTable(symbols, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(key, table); err != nil {
			p.log.Warn().Err(err).Msg("Failed to cache price table")
		}
	}

	return table, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for local
// development and single-operator use; the Postgres store is the default.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listing_cache (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	query_type  TEXT NOT NULL,
	query_value TEXT NOT NULL,
	tenant_key  TEXT NOT NULL DEFAULT '_global',
	tenant_id   TEXT,
	raw_data    TEXT NOT NULL,
	analysis    TEXT,
	cached_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at  DATETIME NOT NULL,
	UNIQUE (source, query_type, query_value, tenant_key)
);

CREATE INDEX IF NOT EXISTS idx_listing_cache_lookup
	ON listing_cache(source, query_type, query_value, tenant_key);
CREATE INDEX IF NOT EXISTS idx_listing_cache_expires_at ON listing_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetListing(ctx context.Context, source, queryType, queryValue, tenantID string) (*model.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, query_type, query_value, tenant_id, raw_data, analysis, cached_at, expires_at
		 FROM listing_cache
		 WHERE source = ? AND query_type = ? AND query_value = ?
		   AND tenant_key IN (?, '_global')
		   AND expires_at > ?
		 ORDER BY (tenant_key = ?) DESC, cached_at DESC
		 LIMIT 1`,
		source, queryType, queryValue, tenantKey(tenantID), time.Now().UTC(), tenantKey(tenantID),
	)

	var (
		entry    model.CacheEntry
		tenant   sql.NullString
		analysis sql.NullString
		rawJSON  string
	)
	err := row.Scan(&entry.ID, &entry.Source, &entry.QueryType, &entry.QueryValue,
		&tenant, &rawJSON, &analysis, &entry.CachedAt, &entry.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get listing")
	}

	entry.TenantID = tenant.String
	entry.Analysis = analysis.String
	if err := json.Unmarshal([]byte(rawJSON), &entry.Listing); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached listing")
	}
	return &entry, nil
}

func (s *SQLiteStore) PutListing(ctx context.Context, source, queryType, queryValue string, listing *model.Listing, analysis, tenantID string, ttl time.Duration) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	rawJSON, err := json.Marshal(listing)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal listing")
	}

	var tenant sql.NullString
	if tenantID != "" {
		tenant = sql.NullString{String: tenantID, Valid: true}
	}
	var analysisVal sql.NullString
	if analysis != "" {
		analysisVal = sql.NullString{String: analysis, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO listing_cache (id, source, query_type, query_value, tenant_key, tenant_id, raw_data, analysis, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, query_type, query_value, tenant_key)
		 DO UPDATE SET raw_data = excluded.raw_data, analysis = excluded.analysis,
		               cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		id, source, queryType, queryValue, tenantKey(tenantID), tenant, string(rawJSON), analysisVal, now, expiresAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: put listing")
	}

	// The upsert keeps the original id on conflict; read it back.
	var entryID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM listing_cache
		 WHERE source = ? AND query_type = ? AND query_value = ? AND tenant_key = ?`,
		source, queryType, queryValue, tenantKey(tenantID),
	).Scan(&entryID)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: read back entry id")
	}
	return entryID, nil
}

func (s *SQLiteStore) UpdateAnalysis(ctx context.Context, source, queryType, queryValue, analysis, tenantID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listing_cache SET analysis = ?
		 WHERE source = ? AND query_type = ? AND query_value = ?
		   AND tenant_key = ? AND expires_at > ?`,
		analysis, source, queryType, queryValue, tenantKey(tenantID), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update analysis")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: no live cache entry for %s/%s/%s", source, queryType, queryValue)
	}
	return nil
}

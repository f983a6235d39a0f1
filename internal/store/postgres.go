package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listing_cache (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source      TEXT NOT NULL,
	query_type  TEXT NOT NULL,
	query_value TEXT NOT NULL,
	tenant_key  TEXT NOT NULL DEFAULT '_global',
	tenant_id   TEXT,
	raw_data    JSONB NOT NULL,
	analysis    TEXT,
	cached_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (source, query_type, query_value, tenant_key)
);

CREATE INDEX IF NOT EXISTS idx_listing_cache_lookup
	ON listing_cache(source, query_type, query_value, tenant_key, expires_at DESC);
CREATE INDEX IF NOT EXISTS idx_listing_cache_expires_at ON listing_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetListing(ctx context.Context, source, queryType, queryValue, tenantID string) (*model.CacheEntry, error) {
	var (
		entry    model.CacheEntry
		tenant   *string
		analysis *string
		rawJSON  []byte
	)

	// A tenant-specific entry wins over a global one for the same natural
	// key, regardless of which was cached more recently.
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, query_type, query_value, tenant_id, raw_data, analysis, cached_at, expires_at
		 FROM listing_cache
		 WHERE source = $1 AND query_type = $2 AND query_value = $3
		   AND tenant_key IN ($4, '_global')
		   AND expires_at > now()
		 ORDER BY (tenant_key = $4) DESC, cached_at DESC
		 LIMIT 1`,
		source, queryType, queryValue, tenantKey(tenantID),
	).Scan(&entry.ID, &entry.Source, &entry.QueryType, &entry.QueryValue,
		&tenant, &rawJSON, &analysis, &entry.CachedAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get listing")
	}

	if tenant != nil {
		entry.TenantID = *tenant
	}
	if analysis != nil {
		entry.Analysis = *analysis
	}
	if err := json.Unmarshal(rawJSON, &entry.Listing); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached listing")
	}
	return &entry, nil
}

func (s *PostgresStore) PutListing(ctx context.Context, source, queryType, queryValue string, listing *model.Listing, analysis, tenantID string, ttl time.Duration) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	rawJSON, err := json.Marshal(listing)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal listing")
	}

	var tenant *string
	if tenantID != "" {
		tenant = &tenantID
	}
	var analysisVal *string
	if analysis != "" {
		analysisVal = &analysis
	}

	var entryID string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO listing_cache (id, source, query_type, query_value, tenant_key, tenant_id, raw_data, analysis, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (source, query_type, query_value, tenant_key)
		 DO UPDATE SET raw_data = $7, analysis = $8, cached_at = $9, expires_at = $10
		 RETURNING id`,
		id, source, queryType, queryValue, tenantKey(tenantID), tenant, rawJSON, analysisVal, now, expiresAt,
	).Scan(&entryID)
	if err != nil {
		return "", eris.Wrap(err, "postgres: put listing")
	}
	return entryID, nil
}

func (s *PostgresStore) UpdateAnalysis(ctx context.Context, source, queryType, queryValue, analysis, tenantID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE listing_cache SET analysis = $1
		 WHERE source = $2 AND query_type = $3 AND query_value = $4
		   AND tenant_key = $5 AND expires_at > now()`,
		analysis, source, queryType, queryValue, tenantKey(tenantID),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update analysis")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: no live cache entry for %s/%s/%s", source, queryType, queryValue)
	}
	return nil
}

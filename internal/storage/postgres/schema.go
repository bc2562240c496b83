// Package postgres provides a PostgreSQL-backed implementation of the
// campaign catalog: entities, itemized facts, relationships, and the
// per-campaign codex document.
//
// All operations share a single [pgxpool.Pool]. [Migrate] is idempotent and
// runs on every store construction.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	entities, _ := store.Entities(ctx, campaignID)
//	_ = store.PutEntity(ctx, entity)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlEntities = `
CREATE TABLE IF NOT EXISTS entities (
    id           TEXT         PRIMARY KEY,
    campaign_id  TEXT         NOT NULL,
    type         TEXT         NOT NULL,
    name         TEXT         NOT NULL,
    status       TEXT         NOT NULL DEFAULT '',
    is_stub      BOOLEAN      NOT NULL DEFAULT FALSE,
    attributes   JSONB        NOT NULL DEFAULT '{}',
    deleted_at   TIMESTAMPTZ,
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entities_campaign
    ON entities (campaign_id);

CREATE INDEX IF NOT EXISTS idx_entities_campaign_type
    ON entities (campaign_id, type);

CREATE INDEX IF NOT EXISTS idx_entities_name
    ON entities (name);
`

const ddlFacts = `
CREATE TABLE IF NOT EXISTS facts (
    id           BIGSERIAL    PRIMARY KEY,
    entity_id    TEXT         NOT NULL REFERENCES entities (id) ON DELETE CASCADE,
    campaign_id  TEXT         NOT NULL,
    content      TEXT         NOT NULL,
    category     TEXT         NOT NULL DEFAULT '',
    visibility   TEXT         NOT NULL DEFAULT 'gm',
    is_current   BOOLEAN      NOT NULL DEFAULT TRUE,
    source_type  TEXT         NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_facts_entity
    ON facts (entity_id);

CREATE INDEX IF NOT EXISTS idx_facts_campaign
    ON facts (campaign_id);
`

const ddlRelationships = `
CREATE TABLE IF NOT EXISTS relationships (
    campaign_id  TEXT         NOT NULL,
    source_id    TEXT         NOT NULL REFERENCES entities (id) ON DELETE CASCADE,
    target_id    TEXT         NOT NULL REFERENCES entities (id) ON DELETE CASCADE,
    rel_type     TEXT         NOT NULL,
    description  TEXT         NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (source_id, target_id, rel_type)
);

CREATE INDEX IF NOT EXISTS idx_rel_campaign
    ON relationships (campaign_id);

CREATE INDEX IF NOT EXISTS idx_rel_target
    ON relationships (target_id);
`

const ddlCodexes = `
CREATE TABLE IF NOT EXISTS codexes (
    campaign_id  TEXT         PRIMARY KEY,
    doc          JSONB        NOT NULL DEFAULT '{}',
    updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Migrate creates or ensures all required tables and indexes exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlEntities,
		ddlFacts,
		ddlRelationships,
		ddlCodexes,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}

package database

import "context"

// schemaSQL is the full schema for a fresh database. All statements are
// idempotent so re-applying on a partially initialized database is safe.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS podcasts (
	id               bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	podcast_index_id text NOT NULL UNIQUE,
	title            text NOT NULL,
	author           text NOT NULL DEFAULT '',
	description      text NOT NULL DEFAULT '',
	image_url        text NOT NULL DEFAULT '',
	feed_url         text NOT NULL DEFAULT '',
	created_at       timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS episodes (
	id           bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	podcast_id   bigint NOT NULL REFERENCES podcasts(id),
	episode_guid text NOT NULL UNIQUE,
	title        text NOT NULL,
	description  text NOT NULL DEFAULT '',
	audio_url    text NOT NULL,
	image_url    text NOT NULL DEFAULT '',
	published_at timestamptz,
	duration     int NOT NULL DEFAULT 0,
	created_at   timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_episodes_podcast ON episodes(podcast_id, published_at DESC);

CREATE TABLE IF NOT EXISTS transcriptions (
	id           bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	episode_id   bigint NOT NULL REFERENCES episodes(id),
	status       text NOT NULL DEFAULT 'processing'
	             CHECK (status IN ('processing', 'completed', 'failed')),
	storage_path text,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now()
);
-- At most one non-failed transcription per episode. Concurrent transcribe
-- requests race on this index instead of a preceding read.
CREATE UNIQUE INDEX IF NOT EXISTS idx_transcriptions_active
	ON transcriptions(episode_id) WHERE status <> 'failed';

CREATE TABLE IF NOT EXISTS summaries (
	id               bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	transcription_id bigint NOT NULL UNIQUE REFERENCES transcriptions(id),
	content          text NOT NULL,
	created_at       timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_episodes (
	id         bigint GENERATED ALWAYS AS IDENTITY,
	user_id    uuid NOT NULL,
	episode_id bigint NOT NULL REFERENCES episodes(id),
	saved_at   timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, episode_id)
);
`

// InitSchema applies the schema on a fresh database. It checks whether the
// "podcasts" table exists as a proxy for whether the schema has been loaded.
// If present, it's a no-op.
func (db *DB) InitSchema(ctx context.Context) error {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = 'podcasts')`,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		db.log.Debug().Msg("schema already initialized, skipping")
		return nil
	}

	db.log.Info().Msg("fresh database detected — applying schema")
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return err
	}
	db.log.Info().Msg("schema applied successfully")
	return nil
}

package storage

// schema is applied on every open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS cards (
	id            TEXT PRIMARY KEY,
	front         TEXT NOT NULL,
	back          TEXT NOT NULL,
	tags          TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL,
	ease_factor   REAL NOT NULL,
	interval_days INTEGER NOT NULL,
	repetitions   INTEGER NOT NULL,
	due           TIMESTAMP NOT NULL,
	last_review   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reviews (
	id        TEXT PRIMARY KEY,
	card_id   TEXT NOT NULL,
	quality   INTEGER NOT NULL,
	timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_card_id ON reviews(card_id);
`

package repository

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interviews (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	role        TEXT NOT NULL,
	level       TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	techstack   TEXT NOT NULL DEFAULT '[]',
	questions   TEXT NOT NULL DEFAULT '[]',
	finalized   INTEGER NOT NULL DEFAULT 0,
	cover_image TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interviews_user_created ON interviews (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_interviews_finalized_created ON interviews (finalized, created_at DESC);

CREATE TABLE IF NOT EXISTS feedback (
	id                    TEXT PRIMARY KEY,
	interview_id          TEXT NOT NULL,
	user_id               TEXT NOT NULL,
	total_score           INTEGER NOT NULL,
	category_scores       TEXT NOT NULL DEFAULT '[]',
	strengths             TEXT NOT NULL DEFAULT '[]',
	areas_for_improvement TEXT NOT NULL DEFAULT '[]',
	final_assessment      TEXT NOT NULL DEFAULT '',
	created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_user_interview ON feedback (user_id, interview_id, created_at DESC);
`

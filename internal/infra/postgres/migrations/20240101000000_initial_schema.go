package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quizzes (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    duration_minutes INT NOT NULL,
    total_marks      INT NOT NULL DEFAULT 0,
    is_active        BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS questions (
    id             TEXT PRIMARY KEY,
    quiz_id        TEXT NOT NULL REFERENCES quizzes(id),
    question_text  TEXT NOT NULL,
    options        JSONB NOT NULL DEFAULT '[]',
    correct_answer TEXT NOT NULL,
    marks          INT NOT NULL DEFAULT 1,
    explanation    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS questions_quiz_order_idx ON questions (quiz_id, id);

CREATE TABLE IF NOT EXISTS submissions (
    id           TEXT PRIMARY KEY,
    quiz_id      TEXT NOT NULL REFERENCES quizzes(id),
    user_id      TEXT NOT NULL REFERENCES users(id),
    score        INT NOT NULL,
    pass_status  TEXT NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_user_idx ON submissions (user_id, submitted_at DESC);

CREATE TABLE IF NOT EXISTS submission_answers (
    submission_id  TEXT NOT NULL REFERENCES submissions(id),
    question_id    TEXT NOT NULL,
    question_text  TEXT NOT NULL,
    options        JSONB NOT NULL DEFAULT '[]',
    user_answer    TEXT,
    correct_answer TEXT NOT NULL,
    is_correct     BOOLEAN NOT NULL,
    explanation    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (submission_id, question_id)
);

CREATE TABLE IF NOT EXISTS quiz_locks (
    user_id   TEXT NOT NULL REFERENCES users(id),
    quiz_id   TEXT NOT NULL REFERENCES quizzes(id),
    locked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, quiz_id)
);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS quiz_locks;
DROP TABLE IF EXISTS submission_answers;
DROP TABLE IF EXISTS submissions;
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS quizzes;
DROP TABLE IF EXISTS users;
`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, dropSchemaSQL)
			return err
		},
	)
}

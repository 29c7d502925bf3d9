// Package app — migrations.go содержит SQL-миграции, встроенные в бинарник
// для упрощения деплоя в Docker.
package app

var migration001Events = `
CREATE TABLE IF NOT EXISTS bath_participants (
    id BIGSERIAL PRIMARY KEY,
    date_str VARCHAR(10) NOT NULL,
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    cash BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (date_str, user_id)
);

CREATE INDEX IF NOT EXISTS idx_bath_participants_date ON bath_participants(date_str);

CREATE TABLE IF NOT EXISTS bath_history (
    id BIGSERIAL PRIMARY KEY,
    date_str VARCHAR(10) NOT NULL,
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    visited BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bath_history_user ON bath_history(user_id);
CREATE INDEX IF NOT EXISTS idx_bath_history_date ON bath_history(date_str);

CREATE TABLE IF NOT EXISTS pinned_messages (
    chat_id BIGINT PRIMARY KEY,
    date_str VARCHAR(10) NOT NULL,
    message_id INTEGER NOT NULL
);
`

var migration002Payments = `
CREATE TABLE IF NOT EXISTS pending_payments (
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    date_str VARCHAR(10) NOT NULL,
    payment_type VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_notified TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, date_str)
);

CREATE TABLE IF NOT EXISTS bath_invites (
    user_id BIGINT NOT NULL,
    date_str VARCHAR(10) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, date_str)
);
`

var migration003Profiles = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    full_name VARCHAR(255) NOT NULL DEFAULT '',
    birth_date VARCHAR(16) NOT NULL DEFAULT '',
    occupation TEXT NOT NULL DEFAULT '',
    instagram VARCHAR(255) NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '',
    total_visits INTEGER NOT NULL DEFAULT 0,
    first_visit_date VARCHAR(10) DEFAULT '',
    last_visit_date VARCHAR(10) DEFAULT '',
    last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration004Members = `
CREATE TABLE IF NOT EXISTS active_users (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    last_active TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscribers (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    paid_until TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscribers_paid_until ON subscribers(paid_until);
`

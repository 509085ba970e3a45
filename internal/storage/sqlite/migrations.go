package sqlite

// schema contains the database schema DDL.
const schema = `
-- Server preferences, as last fetched or saved
CREATE TABLE IF NOT EXISTS preferences (
    user_id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Last published status
CREATE TABLE IF NOT EXISTS status_cache (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL,
    stored_at DATETIME NOT NULL
);

-- Recent glucose readings, mg/dL
CREATE TABLE IF NOT EXISTS readings (
    timestamp DATETIME PRIMARY KEY,
    bgl REAL NOT NULL,
    trend TEXT NOT NULL DEFAULT ''
);

-- Configuration
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Last good chart
CREATE TABLE IF NOT EXISTS chart_cache (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    chart_data TEXT NOT NULL,
    generated_at DATETIME NOT NULL
);
`

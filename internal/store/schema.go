package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS builds (
    build_id             TEXT PRIMARY KEY,
    data_dir             TEXT NOT NULL,
    dist_dir             TEXT NOT NULL,
    started_at           TEXT NOT NULL,
    finished_at          TEXT,
    pages                INTEGER NOT NULL DEFAULT 0,
    skipped              INTEGER NOT NULL DEFAULT 0,
    changed              INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outputs (
    dist_dir             TEXT NOT NULL,
    path                 TEXT NOT NULL,
    sha256               TEXT NOT NULL,
    size_bytes           INTEGER NOT NULL,
    build_id             TEXT NOT NULL REFERENCES builds(build_id) ON DELETE CASCADE,
    PRIMARY KEY (dist_dir, path)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
CREATE INDEX IF NOT EXISTS idx_outputs_build ON outputs(build_id);
`

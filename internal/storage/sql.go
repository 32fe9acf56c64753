package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      mode,
                      source,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    mode,
    source,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    mode,
    source,
    config
FROM sessions
ORDER BY start_time, id`

	insertPeakSQL = `
INSERT INTO peaks (session_id,
                   timestamp,
                   frequency,
                   power_db)
VALUES `

	selectPeaksSQL = `
SELECT
    id,
    session_id,
    timestamp,
    frequency,
    power_db
FROM peaks
WHERE
    session_id = ?
ORDER BY timestamp, power_db DESC`
)

//go:embed schema.sql
var schemaSQL string

package journal

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    time    TIMESTAMP NOT NULL,
    level   TEXT      NOT NULL,
    message TEXT      NOT NULL,
    attrs   TEXT
);
CREATE INDEX IF NOT EXISTS idx_records_time ON records (time);`

	insertRecordSQL = `
INSERT INTO records (time,
                     level,
                     message,
                     attrs)
VALUES (?, ?, ?, ?)`

	selectRecentRecordsSQL = `
SELECT id,
       time,
       level,
       message,
       attrs
FROM records
ORDER BY id DESC
LIMIT ?`
)

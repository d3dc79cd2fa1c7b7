package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/froosterton/reddih/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  acronym TEXT NOT NULL DEFAULT '',
  referenceValue INTEGER NOT NULL DEFAULT 0,
  overrideValue INTEGER NOT NULL DEFAULT -1,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);

CREATE TABLE IF NOT EXISTS posts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  subreddit TEXT NOT NULL,
  postId TEXT NOT NULL,
  title TEXT,
  author TEXT,
  flair TEXT,
  permalink TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(subreddit, postId)
);

CREATE TABLE IF NOT EXISTS detections (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  postDbId INTEGER NOT NULL,
  source TEXT NOT NULL,
  rawName TEXT NOT NULL,
  rawValue INTEGER NOT NULL DEFAULT 0,
  itemId INTEGER,
  itemName TEXT,
  itemAcronym TEXT,
  itemValue INTEGER,
  detectedAs TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(postDbId) REFERENCES posts(id)
);

CREATE TABLE IF NOT EXISTS decisions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  postDbId INTEGER NOT NULL UNIQUE,
  outcome TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  matchedJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(postDbId) REFERENCES posts(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  postDbId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(postDbId) REFERENCES posts(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertItems(entries []internal.CatalogEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO items (id, name, acronym, referenceValue, overrideValue, lastSeenAt)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  acronym=excluded.acronym,
  referenceValue=excluded.referenceValue,
  overrideValue=excluded.overrideValue,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.Name, e.Acronym, e.ReferenceValue, e.OverrideValue); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListItems() ([]internal.CatalogEntry, error) {
	rows, err := d.conn.Query(`SELECT id, name, acronym, referenceValue, overrideValue FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogEntry
	for rows.Next() {
		var e internal.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Acronym, &e.ReferenceValue, &e.OverrideValue); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (d *DB) UpsertPost(post internal.FetchedPost, hash, rawRef, status string) (internal.PostRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO posts (subreddit, postId, title, author, flair, permalink, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(subreddit, postId) DO UPDATE SET
  title=excluded.title,
  flair=excluded.flair,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, post.Subreddit, post.PostID, post.Title, post.Author, post.Flair, post.Permalink, post.ReceivedAt, hash, status, rawRef)
	if err != nil {
		return internal.PostRow{}, err
	}

	row, err := d.GetPostBySubredditPostID(post.Subreddit, post.PostID)
	if err != nil {
		return internal.PostRow{}, err
	}
	if row == nil {
		return internal.PostRow{}, errors.New("failed to upsert post")
	}
	return *row, nil
}

func (d *DB) GetPostBySubredditPostID(subreddit, postID string) (*internal.PostRow, error) {
	var row internal.PostRow
	err := d.conn.QueryRow(`
SELECT id, subreddit, postId, title, author, flair, permalink, receivedAt, hash, status, rawRef
FROM posts WHERE subreddit = ? AND postId = ?
`, subreddit, postID).Scan(
		&row.ID, &row.Subreddit, &row.PostID, &row.Title, &row.Author, &row.Flair, &row.Permalink, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetPostByID(id int) (*internal.PostRow, error) {
	var row internal.PostRow
	err := d.conn.QueryRow(`
SELECT id, subreddit, postId, title, author, flair, permalink, receivedAt, hash, status, rawRef
FROM posts WHERE id = ?
`, id).Scan(
		&row.ID, &row.Subreddit, &row.PostID, &row.Title, &row.Author, &row.Flair, &row.Permalink, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListPostsByStatus(status string, limit int) ([]internal.PostRow, error) {
	rows, err := d.conn.Query(`
SELECT id, subreddit, postId, title, author, flair, permalink, receivedAt, hash, status, rawRef
FROM posts WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PostRow
	for rows.Next() {
		var row internal.PostRow
		if err := rows.Scan(&row.ID, &row.Subreddit, &row.PostID, &row.Title, &row.Author, &row.Flair, &row.Permalink, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdatePostStatus(postDbID int, status string) error {
	_, err := d.conn.Exec(`UPDATE posts SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, postDbID)
	return err
}

func (d *DB) ClearPostProcessing(postDbID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM detections WHERE postDbId = ?`, postDbID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM decisions WHERE postDbId = ?`, postDbID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertDetection(postDbID int, source internal.MentionSource, mention internal.DetectedMention, match *internal.MatchResult) error {
	var itemID, itemValue *int64
	var itemName, itemAcronym, detectedAs *string
	if match != nil {
		itemID = &match.ID
		itemValue = &match.Value
		itemName = &match.Name
		itemAcronym = &match.Acronym
		detectedAs = &match.DetectedAs
	}

	_, err := d.conn.Exec(`
INSERT INTO detections (postDbId, source, rawName, rawValue, itemId, itemName, itemAcronym, itemValue, detectedAs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, postDbID, string(source), mention.RawName, mention.RawValue, itemID, itemName, itemAcronym, itemValue, detectedAs)
	return err
}

func (d *DB) InsertDecision(postDbID int, outcome string, decision internal.ScreeningDecision) error {
	matched := decision.Matched
	if matched == nil {
		matched = []internal.MatchResult{}
	}
	matchedJSON, _ := json.Marshal(matched)
	_, err := d.conn.Exec(`
INSERT INTO decisions (postDbId, outcome, reason, matchedJson)
VALUES (?, ?, ?, ?)
ON CONFLICT(postDbId) DO UPDATE SET
  outcome=excluded.outcome,
  reason=excluded.reason,
  matchedJson=excluded.matchedJson
`, postDbID, outcome, decision.Reason, string(matchedJSON))
	return err
}

func (d *DB) InsertRun(traceID string, postDbID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, postDbId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, postDbID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) GetExportRows(postDbID int) ([]internal.DecisionExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  p.id, p.subreddit, p.postId, p.title, p.permalink,
  dc.outcome, dc.reason,
  dt.source, dt.itemId, dt.itemName, dt.itemAcronym, dt.itemValue, dt.detectedAs
FROM posts p
JOIN decisions dc ON dc.postDbId = p.id
LEFT JOIN detections dt ON dt.postDbId = p.id AND dt.itemId IS NOT NULL
WHERE p.id = ?
ORDER BY dt.itemValue DESC
`, postDbID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExportRows(rows)
}

func (d *DB) ListExportRows(limit int) ([]internal.DecisionExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  p.id, p.subreddit, p.postId, p.title, p.permalink,
  dc.outcome, dc.reason,
  dt.source, dt.itemId, dt.itemName, dt.itemAcronym, dt.itemValue, dt.detectedAs
FROM posts p
JOIN decisions dc ON dc.postDbId = p.id
LEFT JOIN detections dt ON dt.postDbId = p.id AND dt.itemId IS NOT NULL
ORDER BY p.id DESC, dt.itemValue DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExportRows(rows)
}

func scanExportRows(rows *sql.Rows) ([]internal.DecisionExportRow, error) {
	var out []internal.DecisionExportRow
	for rows.Next() {
		var row internal.DecisionExportRow
		var source sql.NullString
		if err := rows.Scan(
			&row.PostDBID, &row.Subreddit, &row.PostID, &row.Title, &row.Permalink,
			&row.Outcome, &row.Reason,
			&source, &row.ItemID, &row.ItemName, &row.ItemAcronym, &row.ItemValue, &row.DetectedAs,
		); err != nil {
			return nil, err
		}
		row.Source = source.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) MustPostBySubredditPostID(subreddit, postID string) (internal.PostRow, error) {
	row, err := d.GetPostBySubredditPostID(subreddit, postID)
	if err != nil {
		return internal.PostRow{}, err
	}
	if row == nil {
		return internal.PostRow{}, fmt.Errorf("post not found: subreddit=%s postId=%s", subreddit, postID)
	}
	return *row, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"debatepad/internal/model"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: nowUTC}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS topics (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_topics_created ON topics(created_at DESC);

	CREATE TABLE IF NOT EXISTS arguments (
		id               TEXT PRIMARY KEY,
		topic_id         TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		side             TEXT NOT NULL CHECK (side IN ('for', 'against')),
		position         INTEGER NOT NULL,
		point            TEXT NOT NULL,
		supporting_facts TEXT NOT NULL DEFAULT '[]',
		created_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_arguments_topic ON arguments(topic_id, side, position);
	`)
	return err
}

func (s *SQLiteStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at, updated_at FROM topics ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	topics := []model.Topic{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[t.ID] = len(topics)
		topics = append(topics, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	args, err := s.db.QueryContext(ctx, `SELECT topic_id, side, id, point, supporting_facts, created_at FROM arguments ORDER BY topic_id, side, position`)
	if err != nil {
		return nil, err
	}
	defer args.Close()
	for args.Next() {
		topicID, side, a, err := scanArgument(args)
		if err != nil {
			return nil, err
		}
		i, ok := index[topicID]
		if !ok {
			continue
		}
		appendArgument(&topics[i], side, a)
	}
	if err := args.Err(); err != nil {
		return nil, err
	}
	for i := range topics {
		normalize(&topics[i])
	}
	return topics, nil
}

func (s *SQLiteStore) GetTopic(ctx context.Context, id string) (model.Topic, error) {
	return getTopic(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getTopic(ctx context.Context, q querier, id string) (model.Topic, error) {
	row := q.QueryRowContext(ctx, `SELECT id, title, created_at, updated_at FROM topics WHERE id = ?`, id)
	t, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Topic{}, NotFoundError{Kind: "topic", ID: id}
	}
	if err != nil {
		return model.Topic{}, err
	}

	rows, err := q.QueryContext(ctx, `SELECT topic_id, side, id, point, supporting_facts, created_at FROM arguments WHERE topic_id = ? ORDER BY side, position`, id)
	if err != nil {
		return model.Topic{}, err
	}
	defer rows.Close()
	for rows.Next() {
		_, side, a, err := scanArgument(rows)
		if err != nil {
			return model.Topic{}, err
		}
		appendArgument(&t, side, a)
	}
	if err := rows.Err(); err != nil {
		return model.Topic{}, err
	}
	normalize(&t)
	return t, nil
}

func (s *SQLiteStore) CreateTopic(ctx context.Context, title string) (model.Topic, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return model.Topic{}, err
	}
	now := s.now()
	t := model.Topic{ID: newID(), Title: title, CreatedAt: now, UpdatedAt: now}
	_, err = s.db.ExecContext(ctx, `INSERT INTO topics(id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Title, fmtTime(now), fmtTime(now))
	if err != nil {
		return model.Topic{}, err
	}
	normalize(&t)
	return t, nil
}

func (s *SQLiteStore) DeleteTopic(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "topic", ID: id}
	}
	return nil
}

func (s *SQLiteStore) AddArgument(ctx context.Context, topicID string, side model.Side, point string, facts []string) (model.Topic, error) {
	point, facts, err := cleanArgument(side, point, facts)
	if err != nil {
		return model.Topic{}, err
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return model.Topic{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Topic{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	res, err := tx.ExecContext(ctx, `UPDATE topics SET updated_at = ? WHERE id = ?`, fmtTime(now), topicID)
	if err != nil {
		return model.Topic{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Topic{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	var pos int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM arguments WHERE topic_id = ? AND side = ?`, topicID, string(side)).Scan(&pos); err != nil {
		return model.Topic{}, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO arguments(id, topic_id, side, position, point, supporting_facts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		newID(), topicID, string(side), pos, point, string(factsJSON), fmtTime(now))
	if err != nil {
		return model.Topic{}, err
	}

	t, err := getTopic(ctx, tx, topicID)
	if err != nil {
		return model.Topic{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Topic{}, err
	}
	return t, nil
}

func (s *SQLiteStore) DeleteArgument(ctx context.Context, topicID, argumentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM topics WHERE id = ?`, topicID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return NotFoundError{Kind: "topic", ID: topicID}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM arguments WHERE topic_id = ? AND id = ?`, topicID, argumentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "argument", ID: argumentID}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE topics SET updated_at = ? WHERE id = ?`, fmtTime(s.now()), topicID); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTopic(r scanner) (model.Topic, error) {
	var t model.Topic
	var created, updated string
	if err := r.Scan(&t.ID, &t.Title, &created, &updated); err != nil {
		return model.Topic{}, err
	}
	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return model.Topic{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Topic{}, err
	}
	return t, nil
}

func scanArgument(r scanner) (topicID string, side model.Side, a model.Argument, err error) {
	var sideStr, facts, created string
	if err = r.Scan(&topicID, &sideStr, &a.ID, &a.Point, &facts, &created); err != nil {
		return "", "", model.Argument{}, err
	}
	if err = json.Unmarshal([]byte(facts), &a.SupportingFacts); err != nil {
		return "", "", model.Argument{}, fmt.Errorf("argument %s: decode facts: %w", a.ID, err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return "", "", model.Argument{}, err
	}
	return topicID, model.Side(sideStr), a, nil
}

func appendArgument(t *model.Topic, side model.Side, a model.Argument) {
	if side == model.SideAgainst {
		t.ArgumentsAgainst = append(t.ArgumentsAgainst, a)
		return
	}
	t.ArgumentsFor = append(t.ArgumentsFor, a)
}

// Fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

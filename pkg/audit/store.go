package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists events in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the audit database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		user TEXT NOT NULL,
		site TEXT,
		host TEXT NOT NULL,
		port TEXT,
		operation TEXT NOT NULL,
		commands JSON,
		success INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_events_host ON events(host);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts the event and fills in its ID.
func (s *Store) Record(ctx context.Context, e *Event) error {
	var cmds []byte
	if len(e.Commands) > 0 {
		var err error
		cmds, err = json.Marshal(e.Commands)
		if err != nil {
			return fmt.Errorf("marshal commands: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (timestamp, user, site, host, port, operation, commands, success, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UTC().Format(time.RFC3339Nano), e.User, nullable(e.Site), e.Host, nullable(e.Port),
		e.Operation, cmds, e.Success, nullable(e.Error), e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// List returns events matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Event, error) {
	query := `
		SELECT id, timestamp, user, site, host, port, operation, commands, success, error, duration_ms
		FROM events`
	var where []string
	var args []interface{}
	if f.Host != "" {
		where = append(where, "host = ?")
		args = append(args, f.Host)
	}
	if f.User != "" {
		where = append(where, "user = ?")
		args = append(args, f.User)
	}
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, f.Operation)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			e          Event
			ts         string
			site, port sql.NullString
			cmds       []byte
			errMsg     sql.NullString
			durMs      int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.User, &site, &e.Host, &port,
			&e.Operation, &cmds, &e.Success, &errMsg, &durMs); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = t
		}
		e.Site = site.String
		e.Port = port.String
		e.Error = errMsg.String
		e.Duration = time.Duration(durMs) * time.Millisecond
		if len(cmds) > 0 {
			if err := json.Unmarshal(cmds, &e.Commands); err != nil {
				return nil, fmt.Errorf("unmarshal commands: %w", err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

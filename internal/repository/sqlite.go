// Package store persists chat sessions and their ordered message history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crispai/sitechat/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the clock used to stamp sessions and messages.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			last_activity_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Databases created before the explicit counter get it backfilled.
	added, err := s.ensureColumn("sessions", "message_count", "ALTER TABLE sessions ADD COLUMN message_count INTEGER NOT NULL DEFAULT 0")
	if err != nil {
		return err
	}
	if added {
		if _, err := s.db.Exec(`UPDATE sessions SET message_count = (SELECT COUNT(*) FROM messages WHERE messages.session_id = sessions.session_id)`); err != nil {
			return fmt.Errorf("failed to backfill message_count: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return false, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ResolveOrCreate returns the session with the given ID, creating it when it
// does not exist. An empty ID always creates a session with a fresh ID.
// The boolean result is true when the session has no messages yet.
func (s *SQLiteStore) ResolveOrCreate(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	if sessionID != "" {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, false, err
		}
		if session != nil {
			return session, session.MessageCount == 0, nil
		}
	}

	now := s.now().UTC()
	if sessionID == "" {
		sessionID = domain.NewSessionID(now)
	}

	// INSERT OR IGNORE keeps concurrent first turns for one ID from creating duplicates.
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, created_at, last_activity_at, message_count) VALUES (?, ?, ?, 0)`,
		sessionID, now, now); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, fmt.Errorf("session %s missing after insert", sessionID)
	}
	return session, session.MessageCount == 0, nil
}

// GetSession retrieves a session by ID. It returns nil when none exists.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, last_activity_at, message_count FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.CreatedAt, &session.LastActivityAt, &session.MessageCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// AppendMessage stores a message after the last one in the session. The
// timestamp is assigned here and is strictly later than its predecessor's.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	if !role.Valid() {
		return nil, &domain.ValidationError{Field: "role", Message: fmt.Sprintf("invalid role %q", role)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Writing first takes the database write lock before the last message is read,
	// so concurrent appends to one session cannot pick the same seq.
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET message_count = message_count + 1 WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, &domain.NotFoundError{Resource: "session", ID: sessionID}
	}

	var lastSeq int64
	var lastAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT seq, created_at FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT 1`,
		sessionID).Scan(&lastSeq, &lastAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last message: %w", err)
	}

	ts := s.now().UTC()
	if !lastAt.IsZero() && !ts.After(lastAt) {
		ts = lastAt.Add(time.Microsecond)
	}

	msg := &domain.Message{
		MessageID: domain.NewMessageID(),
		SessionID: sessionID,
		Seq:       lastSeq + 1,
		Role:      role,
		Content:   content,
		CreatedAt: ts,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.SessionID, msg.Seq, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = ? WHERE session_id = ?`, ts, sessionID); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return msg, nil
}

// History returns the most recent limit messages of a session, oldest first.
// A non-positive limit returns the whole history.
func (s *SQLiteStore) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, seq, role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Seq, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

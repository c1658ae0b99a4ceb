package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"

	_ "modernc.org/sqlite"
)

const createRepliesTable = `
	CREATE TABLE IF NOT EXISTS user_replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		message TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	)
`

// replyRepo implements the reply store on sqlite
// timestamp is stored as unix microseconds, UTC
type replyRepo struct {
	db *sql.DB
}

// NewReplyRepo opens (and creates if needed) the reply database
func NewReplyRepo(dbPath string) (repo.ReplyRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &replyRepo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *replyRepo) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRepliesTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_user_replies_timestamp ON user_replies(timestamp)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_user_replies_user_id ON user_replies(user_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Create inserts one reply in its own transaction and sets its ID
func (r *replyRepo) Create(ctx context.Context, reply *domain.Reply) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO user_replies (user_name, user_id, message, timestamp)
		VALUES (?, ?, ?, ?)
	`, reply.UserName, reply.UserID, reply.Message, reply.Timestamp.UTC().UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to insert reply: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read reply id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reply: %w", err)
	}
	reply.ID = id
	return nil
}

// ListSince returns replies at or after since in insertion order; zero since returns all
func (r *replyRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.Reply, error) {
	query := `SELECT id, user_name, user_id, message, timestamp FROM user_replies`
	var args []any
	if !since.IsZero() {
		query += ` WHERE timestamp >= ?`
		args = append(args, since.UTC().UnixMicro())
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	var replies []*domain.Reply
	for rows.Next() {
		var reply domain.Reply
		var ts int64
		if err := rows.Scan(&reply.ID, &reply.UserName, &reply.UserID, &reply.Message, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		reply.Timestamp = time.UnixMicro(ts).UTC()
		replies = append(replies, &reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate replies: %w", err)
	}
	return replies, nil
}

// Reset drops and recreates the replies table
func (r *replyRepo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DROP TABLE IF EXISTS user_replies`); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	return r.migrate(ctx)
}

// Close closes the database
func (r *replyRepo) Close() error {
	return r.db.Close()
}

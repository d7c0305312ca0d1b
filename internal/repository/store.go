package store

import (
	"context"

	"github.com/crispai/sitechat/internal/domain"
)

// Store defines the interface for session persistence.
type Store interface {
	// Session operations
	ResolveOrCreate(ctx context.Context, sessionID string) (*domain.Session, bool, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// Message operations
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

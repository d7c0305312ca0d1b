package service

import (
	"context"
	"fmt"

	"github.com/crispai/sitechat/internal/domain"
)

// NewSessionID allocates a fresh session identifier without storing anything.
func (s *Service) NewSessionID() string {
	return domain.NewSessionID(s.now())
}

// GetHistory returns the last limit messages of a session, oldest first.
func (s *Service) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, &domain.NotFoundError{Resource: "session", ID: sessionID}
	}

	messages, err := s.store.History(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// Ready checks that the session store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

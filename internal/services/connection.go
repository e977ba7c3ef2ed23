package services

import (
	"context"
	"errors"

	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

// ConnectionRepository defines persistence operations for connections.
type ConnectionRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.ConnectionWithUser, error)
	GetByPair(ctx context.Context, userID, connectedUserID int) (types.Connection, error)
	Create(ctx context.Context, conn types.Connection) (types.Connection, error)
}

// ConnectionService encapsulates connection use-cases.
type ConnectionService struct {
	repo ConnectionRepository
}

func NewConnectionService(repo ConnectionRepository) *ConnectionService {
	return &ConnectionService{repo: repo}
}

func (s *ConnectionService) ListByUser(ctx context.Context, userID int) ([]types.ConnectionWithUser, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create inserts a connection after confirming the pair does not
// already exist.
func (s *ConnectionService) Create(ctx context.Context, conn types.Connection) (types.Connection, error) {
	if _, err := s.repo.GetByPair(ctx, conn.UserID, conn.ConnectedUserID); err == nil {
		return types.Connection{}, ErrDuplicateConnection
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Connection{}, err
	}
	return s.repo.Create(ctx, conn)
}

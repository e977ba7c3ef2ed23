package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

type fakeConnectionRepo struct {
	conns []types.Connection
}

func (f *fakeConnectionRepo) ListByUser(_ context.Context, userID int) ([]types.ConnectionWithUser, error) {
	out := []types.ConnectionWithUser{}
	for _, conn := range f.conns {
		if conn.UserID == userID {
			out = append(out, types.ConnectionWithUser{Connection: conn})
		}
	}
	return out, nil
}

func (f *fakeConnectionRepo) GetByPair(_ context.Context, userID, connectedUserID int) (types.Connection, error) {
	for _, conn := range f.conns {
		if conn.UserID == userID && conn.ConnectedUserID == connectedUserID {
			return conn, nil
		}
	}
	return types.Connection{}, store.ErrNotFound
}

func (f *fakeConnectionRepo) Create(_ context.Context, conn types.Connection) (types.Connection, error) {
	conn.ID = len(f.conns) + 1
	f.conns = append(f.conns, conn)
	return conn, nil
}

func TestConnectionServiceCreateDuplicate(t *testing.T) {
	service := NewConnectionService(&fakeConnectionRepo{})

	_, err := service.Create(context.Background(), types.Connection{UserID: 1, ConnectedUserID: 2})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), types.Connection{UserID: 1, ConnectedUserID: 2})
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	// The reverse direction is a distinct pair.
	_, err = service.Create(context.Background(), types.Connection{UserID: 2, ConnectedUserID: 1})
	assert.NoError(t, err)
}

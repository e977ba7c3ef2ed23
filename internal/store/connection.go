package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/synchrony-app/apiserver/types"
)

// ConnectionRepository handles persistence for user connections.
type ConnectionRepository struct {
	db *sqlx.DB
}

func NewConnectionRepository(db *sqlx.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// ListByUser returns a user's connections joined with each connected
// user's public profile.
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID int) ([]types.ConnectionWithUser, error) {
	const query = `
		SELECT c.id, c.user_id, c.connected_user_id, COALESCE(c.shared_patterns, ''), c.created_at, c.updated_at,
			u.id, u.name, u.email
		FROM connections c
		JOIN users u ON u.id = c.connected_user_id
		WHERE c.user_id = $1
		ORDER BY c.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	connections := []types.ConnectionWithUser{}
	for rows.Next() {
		var conn types.ConnectionWithUser
		if err := rows.Scan(
			&conn.ID,
			&conn.UserID,
			&conn.ConnectedUserID,
			&conn.SharedPatterns,
			&conn.CreatedAt,
			&conn.UpdatedAt,
			&conn.ConnectedUser.ID,
			&conn.ConnectedUser.Name,
			&conn.ConnectedUser.Email,
		); err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return connections, nil
}

func (r *ConnectionRepository) GetByPair(ctx context.Context, userID, connectedUserID int) (types.Connection, error) {
	const query = `
		SELECT id, user_id, connected_user_id, COALESCE(shared_patterns, '') AS shared_patterns, created_at, updated_at
		FROM connections
		WHERE user_id = $1 AND connected_user_id = $2`
	var conn types.Connection
	if err := r.db.GetContext(ctx, &conn, query, userID, connectedUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Connection{}, ErrNotFound
		}
		return types.Connection{}, err
	}
	return conn, nil
}

func (r *ConnectionRepository) Create(ctx context.Context, conn types.Connection) (types.Connection, error) {
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	const query = `
		INSERT INTO connections (user_id, connected_user_id, shared_patterns, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		conn.UserID,
		conn.ConnectedUserID,
		conn.SharedPatterns,
		conn.CreatedAt,
		conn.UpdatedAt,
	).Scan(&conn.ID); err != nil {
		return types.Connection{}, err
	}

	return conn, nil
}

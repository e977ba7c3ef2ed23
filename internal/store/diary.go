package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/synchrony-app/apiserver/types"
)

// DiaryRepository handles persistence for diary entries.
type DiaryRepository struct {
	db *sqlx.DB
}

func NewDiaryRepository(db *sqlx.DB) *DiaryRepository {
	return &DiaryRepository{db: db}
}

func (r *DiaryRepository) ListByUser(ctx context.Context, userID int) ([]types.DiaryEntry, error) {
	const query = `
		SELECT id, date, title, content, user_id, created_at, updated_at
		FROM diary_entries
		WHERE user_id = $1
		ORDER BY date DESC`
	entries := []types.DiaryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *DiaryRepository) Get(ctx context.Context, entryID, userID int) (types.DiaryEntry, error) {
	const query = `
		SELECT id, date, title, content, user_id, created_at, updated_at
		FROM diary_entries
		WHERE id = $1 AND user_id = $2`
	var entry types.DiaryEntry
	if err := r.db.GetContext(ctx, &entry, query, entryID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DiaryEntry{}, ErrNotFound
		}
		return types.DiaryEntry{}, err
	}
	return entry, nil
}

func (r *DiaryRepository) Create(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `
		INSERT INTO diary_entries (date, title, content, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		entry.Date,
		entry.Title,
		entry.Content,
		entry.UserID,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID); err != nil {
		return types.DiaryEntry{}, err
	}

	return entry, nil
}

func (r *DiaryRepository) Update(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	entry.UpdatedAt = time.Now()

	const query = `
		UPDATE diary_entries
		SET date = $1,
			title = $2,
			content = $3,
			updated_at = $4
		WHERE id = $5 AND user_id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		entry.Date,
		entry.Title,
		entry.Content,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return types.DiaryEntry{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.DiaryEntry{}, err
	}
	if affected == 0 {
		return types.DiaryEntry{}, ErrNotFound
	}

	return entry, nil
}

func (r *DiaryRepository) Delete(ctx context.Context, entryID, userID int) error {
	const query = `DELETE FROM diary_entries WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, entryID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches the query as a case-insensitive substring of the title
// or content.
func (r *DiaryRepository) Search(ctx context.Context, userID int, term string) ([]types.DiaryEntry, error) {
	const query = `
		SELECT id, date, title, content, user_id, created_at, updated_at
		FROM diary_entries
		WHERE user_id = $1 AND (title ILIKE $2 OR content ILIKE $2)
		ORDER BY date DESC`
	entries := []types.DiaryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID, "%"+term+"%"); err != nil {
		return nil, err
	}
	return entries, nil
}

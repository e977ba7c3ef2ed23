package services

import (
	"context"

	"github.com/synchrony-app/apiserver/types"
)

// DiaryRepository defines persistence operations for diary entries.
type DiaryRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.DiaryEntry, error)
	Get(ctx context.Context, entryID, userID int) (types.DiaryEntry, error)
	Create(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error)
	Update(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error)
	Delete(ctx context.Context, entryID, userID int) error
	Search(ctx context.Context, userID int, term string) ([]types.DiaryEntry, error)
}

// DiaryService encapsulates diary use-cases.
type DiaryService struct {
	repo DiaryRepository
}

func NewDiaryService(repo DiaryRepository) *DiaryService {
	return &DiaryService{repo: repo}
}

func (s *DiaryService) ListByUser(ctx context.Context, userID int) ([]types.DiaryEntry, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *DiaryService) Get(ctx context.Context, entryID, userID int) (types.DiaryEntry, error) {
	return s.repo.Get(ctx, entryID, userID)
}

func (s *DiaryService) Create(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	return s.repo.Create(ctx, entry)
}

// Update applies a partial update: empty fields keep their current
// value.
func (s *DiaryService) Update(ctx context.Context, entryID, userID int, date, title, content string) (types.DiaryEntry, error) {
	entry, err := s.repo.Get(ctx, entryID, userID)
	if err != nil {
		return types.DiaryEntry{}, err
	}

	if date != "" {
		entry.Date = date
	}
	if title != "" {
		entry.Title = title
	}
	if content != "" {
		entry.Content = content
	}

	return s.repo.Update(ctx, entry)
}

func (s *DiaryService) Delete(ctx context.Context, entryID, userID int) error {
	return s.repo.Delete(ctx, entryID, userID)
}

func (s *DiaryService) Search(ctx context.Context, userID int, term string) ([]types.DiaryEntry, error) {
	return s.repo.Search(ctx, userID, term)
}

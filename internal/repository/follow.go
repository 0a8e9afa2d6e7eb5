package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

type (
	FollowRepository interface {
		Add(ctx context.Context, userID, authorID uuid.UUID) error
		Remove(ctx context.Context, userID, authorID uuid.UUID) error
		Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error)
		SetFor(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error)
		ListAuthors(ctx context.Context, userID uuid.UUID, page Page) ([]models.User, int64, error)
	}

	followRepository struct {
		db *gorm.DB
	}
)

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Add(ctx context.Context, userID, authorID uuid.UUID) error {
	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	return translateError(r.db.WithContext(ctx).Create(follow).Error)
}

func (r *followRepository) Remove(ctx context.Context, userID, authorID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// SetFor reports which of authorIDs the user follows
func (r *followRepository) SetFor(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ListAuthors returns the authors the user follows, in subscription order
func (r *followRepository) ListAuthors(ctx context.Context, userID uuid.UUID, page Page) ([]models.User, int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err = page.apply(r.db.WithContext(ctx)).
		Select("users.*").
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id ASC").
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, count, nil
}

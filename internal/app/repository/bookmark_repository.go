package repository

import (
	"context"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookmarkRepository interface {
	Add(ctx context.Context, userID uint, uen string) error
	Remove(ctx context.Context, userID uint, uen string) error
	ListUENs(ctx context.Context, userID uint) ([]string, error)
}

type bookmarkRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookmarkRepository(db *gorm.DB, log *logger.Logger) BookmarkRepository {
	return &bookmarkRepository{db: db, log: log.Component("bookmark_repository")}
}

// Add is idempotent: bookmarking twice keeps one row.
func (r *bookmarkRepository) Add(ctx context.Context, userID uint, uen string) error {
	bookmark := model.Bookmark{UserID: userID, UEN: uen}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bookmark).Error
	if err != nil {
		r.log.Error("Failed to add bookmark", err, logger.Fields{
			"user_id": userID,
			"uen":     uen,
		})
	}
	return err
}

func (r *bookmarkRepository) Remove(ctx context.Context, userID uint, uen string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND uen = ?", userID, uen).Delete(&model.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUENs returns bookmarked UENs, newest bookmark first.
func (r *bookmarkRepository) ListUENs(ctx context.Context, userID uint) ([]string, error) {
	var uens []string
	err := r.db.WithContext(ctx).Model(&model.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("uen", &uens).Error
	return uens, err
}

package repository

import (
	"context"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepository(db *gorm.DB, log *logger.Logger) *ReviewRepository {
	return &ReviewRepository{db: db, log: log.Component("review_repository")}
}

// CreateReview inserts a review.
func (r *ReviewRepository) CreateReview(ctx context.Context, review *model.Review) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		r.log.Error("Failed to create review", err, logger.Fields{
			"uen":        review.UEN,
			"user_email": review.UserEmail,
		})
		return err
	}
	return nil
}

// GetReviewByID loads one review.
func (r *ReviewRepository) GetReviewByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewsByUEN lists a business's reviews, newest first.
func (r *ReviewRepository) GetReviewsByUEN(ctx context.Context, uen string, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Review{}).Where("uen = ?", uen)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		r.log.Error("Failed to list reviews", err, logger.Fields{"uen": uen})
		return nil, 0, err
	}
	return reviews, total, nil
}

// GetReviewsByUserEmail lists reviews written by one user.
func (r *ReviewRepository) GetReviewsByUserEmail(ctx context.Context, email string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).Where("user_email = ?", email).Order("created_at DESC").Order("id DESC").Find(&reviews).Error
	return reviews, err
}

// UpdateReview saves rating, body and image.
func (r *ReviewRepository) UpdateReview(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("rating", "body", "image_url", "updated_at").
		Updates(review).Error
}

// DeleteReview removes a review.
func (r *ReviewRepository) DeleteReview(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustLikeCount increments or decrements the like counter.
func (r *ReviewRepository) AdjustLikeCount(ctx context.Context, id uint, clicked bool) (int, error) {
	count, err := adjustLikeCount(ctx, r.db, &model.Review{}, id, clicked)
	if err != nil {
		r.log.Warn("Failed to adjust review likes", logger.Fields{
			"review_id": id,
			"error":     err.Error(),
		})
		return 0, err
	}
	return count, nil
}

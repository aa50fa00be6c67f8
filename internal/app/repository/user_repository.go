package repository

import (
	"context"
	"errors"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByReferralCode(ctx context.Context, code string) (*model.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	SetReferredBy(ctx context.Context, userID, referrerID uint) error
	SetHasBusiness(ctx context.Context, userID uint, hasBusiness bool) error
}

type userRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepository(db *gorm.DB, log *logger.Logger) UserRepository {
	return &userRepository{db: db, log: log.Component("user_repository")}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx, log: r.log}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.log.Debug("Creating user in database", logger.Fields{
		"email": user.Email,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.Error("Failed to create user in database", err, logger.Fields{
			"email": user.Email,
		})
		return err
	}

	r.log.Debug("User created in database", logger.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to find user by ID in database", err, logger.Fields{
				"user_id": id,
			})
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to find user by email in database", err, logger.Fields{
				"email": email,
			})
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("referral_code = ?", code).Count(&count).Error
	return count > 0, err
}

// SetReferredBy records the referrer once. A user that already has one is
// left untouched and the call reports ErrNoRowsAffected.
func (r *userRepository) SetReferredBy(ctx context.Context, userID, referrerID uint) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND referred_by_user_id IS NULL", userID).
		Update("referred_by_user_id", referrerID)
	if result.Error != nil {
		r.log.Error("Failed to set referrer", result.Error, logger.Fields{
			"user_id":     userID,
			"referrer_id": referrerID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

func (r *userRepository) SetHasBusiness(ctx context.Context, userID uint, hasBusiness bool) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("has_business", hasBusiness)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNoRowsAffected
	}
	return nil
}

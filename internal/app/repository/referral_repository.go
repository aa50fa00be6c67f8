package repository

import (
	"context"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository interface {
	WithTx(tx *gorm.DB) ReferralRepository

	Create(ctx context.Context, referral *model.Referral) error
	ListByReferrer(ctx context.Context, referrerID uint) ([]model.Referral, error)
	FindByReferred(ctx context.Context, referredID uint) (*model.Referral, error)
}

type referralRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReferralRepository(db *gorm.DB, log *logger.Logger) ReferralRepository {
	return &referralRepository{db: db, log: log.Component("referral_repository")}
}

func (r *referralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	return &referralRepository{db: tx, log: r.log}
}

func (r *referralRepository) Create(ctx context.Context, referral *model.Referral) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(referral).Error; err != nil {
		r.log.Error("Failed to create referral", err, logger.Fields{
			"referrer_id": referral.ReferrerID,
			"referred_id": referral.ReferredID,
		})
		return err
	}
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uint) ([]model.Referral, error) {
	var referrals []model.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("created_at DESC").Find(&referrals).Error
	return referrals, err
}

func (r *referralRepository) FindByReferred(ctx context.Context, referredID uint) (*model.Referral, error) {
	var referral model.Referral
	if err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&referral).Error; err != nil {
		return nil, err
	}
	return &referral, nil
}

type VoucherRepository interface {
	WithTx(tx *gorm.DB) VoucherRepository

	CreateBatch(ctx context.Context, vouchers []model.Voucher) error
	FindByID(ctx context.Context, id uint) (*model.Voucher, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Voucher, error)
	ListByRef(ctx context.Context, refID uint) ([]model.Voucher, error)
	MarkUsed(ctx context.Context, id, userID uint, at time.Time) (int64, error)
	ExpireIssued(ctx context.Context, now time.Time) (int64, error)
}

type voucherRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoucherRepository(db *gorm.DB, log *logger.Logger) VoucherRepository {
	return &voucherRepository{db: db, log: log.Component("voucher_repository")}
}

func (r *voucherRepository) WithTx(tx *gorm.DB) VoucherRepository {
	return &voucherRepository{db: tx, log: r.log}
}

func (r *voucherRepository) CreateBatch(ctx context.Context, vouchers []model.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&vouchers).Error; err != nil {
		r.log.Error("Failed to create vouchers", err, logger.Fields{
			"count":  len(vouchers),
			"ref_id": vouchers[0].RefID,
		})
		return err
	}
	return nil
}

func (r *voucherRepository) FindByID(ctx context.Context, id uint) (*model.Voucher, error) {
	var voucher model.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *voucherRepository) ListByUser(ctx context.Context, userID uint) ([]model.Voucher, error) {
	var vouchers []model.Voucher
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Order("id DESC").Find(&vouchers).Error
	return vouchers, err
}

func (r *voucherRepository) ListByRef(ctx context.Context, refID uint) ([]model.Voucher, error) {
	var vouchers []model.Voucher
	err := r.db.WithContext(ctx).Where("ref_id = ?", refID).Order("id ASC").Find(&vouchers).Error
	return vouchers, err
}

// MarkUsed moves an unexpired issued voucher owned by userID to used.
// It returns the number of rows changed (0 or 1).
func (r *voucherRepository) MarkUsed(ctx context.Context, id, userID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("id = ? AND user_id = ? AND status = ? AND expires_at > ?", id, userID, model.VoucherIssued, at).
		Updates(map[string]interface{}{
			"status":  model.VoucherUsed,
			"used_at": at,
		})
	return result.RowsAffected, result.Error
}

// ExpireIssued marks every issued voucher whose expiry has passed.
func (r *voucherRepository) ExpireIssued(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("status = ? AND expires_at <= ?", model.VoucherIssued, now).
		Update("status", model.VoucherExpired)
	if result.Error != nil {
		r.log.Error("Failed to expire vouchers", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

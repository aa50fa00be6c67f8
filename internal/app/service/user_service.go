package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/internal/metrics"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/ikkim/localbiz-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidReferralCode = apperrors.New(apperrors.KindNotFound, apperrors.ReferralCodeInvalid, "invalid referral code")
	ErrSelfReferral        = apperrors.New(apperrors.KindConflict, apperrors.ReferralSelf, "self-referral not allowed")
	ErrAlreadyReferred     = apperrors.New(apperrors.KindConflict, apperrors.ReferralAlreadyReferred, "user already referred")
	ErrReferralNotFound    = apperrors.New(apperrors.KindNotFound, apperrors.ReferralNotFound, "user was not referred")
	ErrUserNotFound        = apperrors.New(apperrors.KindNotFound, apperrors.ResourceNotFound, "user not found")
	ErrVoucherNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.VoucherNotFound, "voucher not found")
	ErrVoucherNotIssued    = apperrors.New(apperrors.KindConflict, apperrors.VoucherNotRedeemable, "voucher is not redeemable")
)

// DefaultVoucherAmount is the value of each referral voucher.
const DefaultVoucherAmount = 5

// ReferralResult is what one successful referral wrote.
type ReferralResult struct {
	Referral model.Referral  `json:"referral"`
	Vouchers []model.Voucher `json:"vouchers"`
}

type UserService struct {
	db            *gorm.DB
	users         repository.UserRepository
	referrals     repository.ReferralRepository
	vouchers      repository.VoucherRepository
	voucherAmount int
	log           *logger.Logger
	now           func() time.Time
}

func NewUserService(
	db *gorm.DB,
	users repository.UserRepository,
	referrals repository.ReferralRepository,
	vouchers repository.VoucherRepository,
	voucherAmount int,
	log *logger.Logger,
) *UserService {
	if voucherAmount <= 0 {
		voucherAmount = DefaultVoucherAmount
	}
	return &UserService{
		db:            db,
		users:         users,
		referrals:     referrals,
		vouchers:      vouchers,
		voucherAmount: voucherAmount,
		log:           log.Component("user_service"),
		now:           time.Now,
	}
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Store(err)
	}
	return user, nil
}

// NormalizeReferralCode trims and uppercases a user-typed referral code.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HandleReferral redeems referralCode on behalf of referredID. It writes a
// claimed referral, one voucher each for the referred user and the
// referrer, and the referred user's referrer link, all or nothing.
func (s *UserService) HandleReferral(ctx context.Context, referralCode string, referredID uint) (*ReferralResult, error) {
	referralCode = NormalizeReferralCode(referralCode)
	if referralCode == "" {
		metrics.ObserveReferral("invalid_code")
		return nil, ErrInvalidReferralCode
	}

	referrer, err := s.users.FindByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveReferral("invalid_code")
			return nil, ErrInvalidReferralCode
		}
		return nil, apperrors.Store(err)
	}

	if referrer.ID == referredID {
		metrics.ObserveReferral("self_referral")
		return nil, ErrSelfReferral
	}

	referred, err := s.users.FindByID(ctx, referredID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Store(err)
	}
	if referred.ReferredByUserID != nil {
		metrics.ObserveReferral("already_referred")
		return nil, ErrAlreadyReferred
	}

	issuedAt := s.now()
	expiresAt := util.AddCalendarMonths(issuedAt, 1)
	result := &ReferralResult{}

	err = inTransaction(ctx, s.db, s.log, "handle_referral", func(tx *gorm.DB) error {
		referral := model.Referral{
			ReferrerID:   referrer.ID,
			ReferredID:   referredID,
			ReferralCode: referralCode,
			Status:       model.ReferralClaimed,
			CreatedAt:    issuedAt,
		}
		if err := s.referrals.WithTx(tx).Create(ctx, &referral); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return ErrAlreadyReferred
			}
			return apperrors.Store(err)
		}

		vouchers := []model.Voucher{
			s.newVoucher(referral.ID, referredID, issuedAt, expiresAt),
			s.newVoucher(referral.ID, referrer.ID, issuedAt, expiresAt),
		}
		if err := s.vouchers.WithTx(tx).CreateBatch(ctx, vouchers); err != nil {
			return apperrors.Store(err)
		}

		// Guarded by referred_by_user_id IS NULL; a concurrent redemption
		// that got here first leaves zero rows to update.
		if err := s.users.WithTx(tx).SetReferredBy(ctx, referredID, referrer.ID); err != nil {
			if errors.Is(err, apperrors.ErrNoRowsAffected) {
				return ErrAlreadyReferred
			}
			return apperrors.Store(err)
		}

		result.Referral = referral
		result.Vouchers = vouchers
		return nil
	})
	if err != nil {
		metrics.ObserveReferral("error")
		s.log.Warn("Referral failed", logger.Fields{
			"referrer_id": referrer.ID,
			"referred_id": referredID,
			"error":       err.Error(),
		})
		return nil, err
	}

	metrics.ObserveReferral("claimed")
	metrics.AddVouchersIssued(len(result.Vouchers))
	s.log.Info("Referral claimed", logger.Fields{
		"referral_id": result.Referral.ID,
		"referrer_id": referrer.ID,
		"referred_id": referredID,
		"expires_at":  expiresAt,
	})
	return result, nil
}

func (s *UserService) newVoucher(refID, userID uint, issuedAt, expiresAt time.Time) model.Voucher {
	return model.Voucher{
		RefID:     refID,
		UserID:    userID,
		Amount:    s.voucherAmount,
		Status:    model.VoucherIssued,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
}

// GetReferral returns the referral that brought userID in, with the vouchers
// it issued to both sides.
func (s *UserService) GetReferral(ctx context.Context, userID uint) (*ReferralResult, error) {
	referral, err := s.referrals.FindByReferred(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, apperrors.Store(err)
	}

	vouchers, err := s.vouchers.ListByRef(ctx, referral.ID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return &ReferralResult{Referral: *referral, Vouchers: vouchers}, nil
}

// ListReferrals returns the referrals a user has made.
func (s *UserService) ListReferrals(ctx context.Context, referrerID uint) ([]model.Referral, error) {
	referrals, err := s.referrals.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return referrals, nil
}

func (s *UserService) ListVouchers(ctx context.Context, userID uint) ([]model.Voucher, error) {
	vouchers, err := s.vouchers.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return vouchers, nil
}

// UseVoucher redeems an issued, unexpired voucher belonging to userID.
func (s *UserService) UseVoucher(ctx context.Context, userID, voucherID uint) (*model.Voucher, error) {
	voucher, err := s.vouchers.FindByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, apperrors.Store(err)
	}
	if voucher.UserID != userID {
		return nil, ErrVoucherNotFound
	}

	now := s.now()
	if voucher.Status != model.VoucherIssued || !voucher.ExpiresAt.After(now) {
		return nil, ErrVoucherNotIssued
	}

	changed, err := s.vouchers.MarkUsed(ctx, voucherID, userID, now)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if changed == 0 {
		// lost a race with another redemption or the expiry sweep
		return nil, ErrVoucherNotIssued
	}

	voucher.Status = model.VoucherUsed
	voucher.UsedAt = &now
	s.log.Info("Voucher used", logger.Fields{
		"voucher_id": voucherID,
		"user_id":    userID,
	})
	return voucher, nil
}

// ExpireVouchers moves every issued voucher past its expiry to expired.
func (s *UserService) ExpireVouchers(ctx context.Context) (int64, error) {
	n, err := s.vouchers.ExpireIssued(ctx, s.now())
	if err != nil {
		return 0, apperrors.Store(err)
	}
	metrics.AddVouchersExpired(n)
	return n, nil
}

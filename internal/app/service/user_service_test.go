package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, env *testEnv, table interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(table).Count(&n).Error)
	return n
}

func TestUserService_HandleReferral_Success(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	issuedAt := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	env.userSvc.now = fixedClock(issuedAt)

	referrer := env.createUser(t, "ABC123")
	referred := env.createUser(t, "")

	result, err := env.userSvc.HandleReferral(ctx, "ABC123", referred.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, referrer.ID, result.Referral.ReferrerID)
	assert.Equal(t, referred.ID, result.Referral.ReferredID)
	assert.Equal(t, model.ReferralClaimed, result.Referral.Status)
	assert.Equal(t, "ABC123", result.Referral.ReferralCode)

	require.Len(t, result.Vouchers, 2)
	owners := map[uint]bool{}
	for _, v := range result.Vouchers {
		owners[v.UserID] = true
		assert.Equal(t, 5, v.Amount)
		assert.Equal(t, model.VoucherIssued, v.Status)
		assert.Equal(t, result.Referral.ID, v.RefID)
		assert.True(t, v.ExpiresAt.Equal(time.Date(2025, time.April, 10, 9, 30, 0, 0, time.UTC)))
	}
	assert.True(t, owners[referrer.ID])
	assert.True(t, owners[referred.ID])

	stored, err := env.vouchers.ListByRef(ctx, result.Referral.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	updated, err := env.users.FindByID(ctx, referred.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ReferredByUserID)
	assert.Equal(t, referrer.ID, *updated.ReferredByUserID)
}

func TestUserService_HandleReferral_ExpiryClampsToMonthEnd(t *testing.T) {
	env := setupTestEnv(t)
	env.userSvc.now = fixedClock(time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC))

	env.createUser(t, "JANEND")
	referred := env.createUser(t, "")

	result, err := env.userSvc.HandleReferral(context.Background(), "JANEND", referred.ID)
	require.NoError(t, err)
	for _, v := range result.Vouchers {
		assert.True(t, v.ExpiresAt.Equal(time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC)))
	}
}

func TestUserService_HandleReferral_Preconditions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	referrer := env.createUser(t, "SELF01")

	tests := []struct {
		name       string
		code       string
		referredID uint
		wantErr    error
		wantKind   apperrors.Kind
	}{
		{
			name:       "Unknown code",
			code:       "NOPE99",
			referredID: referrer.ID,
			wantErr:    ErrInvalidReferralCode,
			wantKind:   apperrors.KindNotFound,
		},
		{
			name:       "Blank code",
			code:       "   ",
			referredID: referrer.ID,
			wantErr:    ErrInvalidReferralCode,
			wantKind:   apperrors.KindNotFound,
		},
		{
			name:       "Self referral",
			code:       "SELF01",
			referredID: referrer.ID,
			wantErr:    ErrSelfReferral,
			wantKind:   apperrors.KindConflict,
		},
		{
			name:       "Unknown referred user",
			code:       "SELF01",
			referredID: 9999,
			wantErr:    ErrUserNotFound,
			wantKind:   apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.userSvc.HandleReferral(ctx, tt.code, tt.referredID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Nil(t, result)
		})
	}

	assert.Zero(t, countRows(t, env, &model.Referral{}))
	assert.Zero(t, countRows(t, env, &model.Voucher{}))
}

func TestUserService_HandleReferral_AlreadyReferred(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first := env.createUser(t, "FIRST1")
	env.createUser(t, "SECOND")
	referred := env.createUser(t, "")

	_, err := env.userSvc.HandleReferral(ctx, "FIRST1", referred.ID)
	require.NoError(t, err)

	_, err = env.userSvc.HandleReferral(ctx, "SECOND", referred.ID)
	assert.ErrorIs(t, err, ErrAlreadyReferred)

	assert.Equal(t, int64(1), countRows(t, env, &model.Referral{}))
	assert.Equal(t, int64(2), countRows(t, env, &model.Voucher{}))

	updated, err := env.users.FindByID(ctx, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *updated.ReferredByUserID)
}

func TestUserService_HandleReferral_NormalizesCode(t *testing.T) {
	env := setupTestEnv(t)
	referrer := env.createUser(t, "MIXED7")
	referred := env.createUser(t, "")

	result, err := env.userSvc.HandleReferral(context.Background(), "  mixed7 ", referred.ID)
	require.NoError(t, err)
	assert.Equal(t, referrer.ID, result.Referral.ReferrerID)
	assert.Equal(t, "MIXED7", result.Referral.ReferralCode)
}

// staleUsers serves user rows as they were before any referral was applied,
// so the pre-transaction check passes for an already referred user.
type staleUsers struct {
	repository.UserRepository
}

func (s staleUsers) FindByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.ReferredByUserID = nil
	return user, nil
}

func TestUserService_HandleReferral_LostRaceIsConflict(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first := env.createUser(t, "RACE01")
	env.createUser(t, "RACE02")
	referred := env.createUser(t, "")

	_, err := env.userSvc.HandleReferral(ctx, "RACE01", referred.ID)
	require.NoError(t, err)

	racing := NewUserService(env.db, staleUsers{env.users}, env.referrals, env.vouchers, DefaultVoucherAmount, logger.Nop())
	_, err = racing.HandleReferral(ctx, "RACE02", referred.ID)
	assert.ErrorIs(t, err, ErrAlreadyReferred)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// the losing claim leaves nothing behind
	assert.Equal(t, int64(1), countRows(t, env, &model.Referral{}))
	assert.Equal(t, int64(2), countRows(t, env, &model.Voucher{}))
	updated, err := env.users.FindByID(ctx, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *updated.ReferredByUserID)
}

func TestUserService_GetReferral(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	referrer := env.createUser(t, "DETAIL")
	referred := env.createUser(t, "")

	_, err := env.userSvc.GetReferral(ctx, referred.ID)
	assert.ErrorIs(t, err, ErrReferralNotFound)

	claimed, err := env.userSvc.HandleReferral(ctx, "DETAIL", referred.ID)
	require.NoError(t, err)

	got, err := env.userSvc.GetReferral(ctx, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, claimed.Referral.ID, got.Referral.ID)
	assert.Equal(t, referrer.ID, got.Referral.ReferrerID)
	assert.Len(t, got.Vouchers, 2)

	// the referrer made the referral but was not brought in by one
	_, err = env.userSvc.GetReferral(ctx, referrer.ID)
	assert.ErrorIs(t, err, ErrReferralNotFound)
}

func TestUserService_HandleReferral_RollsBackOnFailure(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.createUser(t, "ROLLBK")
	referred := env.createUser(t, "")

	// Drop the voucher table so the second write in the transaction fails.
	require.NoError(t, env.db.Migrator().DropTable(&model.Voucher{}))

	_, err := env.userSvc.HandleReferral(ctx, "ROLLBK", referred.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindStore, apperrors.KindOf(err))

	assert.Zero(t, countRows(t, env, &model.Referral{}))
	updated, err := env.users.FindByID(ctx, referred.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.ReferredByUserID)
}

func TestUserService_UseVoucher(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	now := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	env.userSvc.now = fixedClock(now)

	env.createUser(t, "USEVCH")
	referred := env.createUser(t, "")
	result, err := env.userSvc.HandleReferral(ctx, "USEVCH", referred.ID)
	require.NoError(t, err)

	var mine model.Voucher
	for _, v := range result.Vouchers {
		if v.UserID == referred.ID {
			mine = v
		}
	}
	require.NotZero(t, mine.ID)

	_, err = env.userSvc.UseVoucher(ctx, 9999, mine.ID)
	assert.ErrorIs(t, err, ErrVoucherNotFound)

	used, err := env.userSvc.UseVoucher(ctx, referred.ID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VoucherUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	_, err = env.userSvc.UseVoucher(ctx, referred.ID, mine.ID)
	assert.ErrorIs(t, err, ErrVoucherNotIssued)

	_, err = env.userSvc.UseVoucher(ctx, referred.ID, 4242)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestUserService_ExpireVouchers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	issued := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	env.userSvc.now = fixedClock(issued)

	env.createUser(t, "EXPIRE")
	referred := env.createUser(t, "")
	_, err := env.userSvc.HandleReferral(ctx, "EXPIRE", referred.ID)
	require.NoError(t, err)

	n, err := env.userSvc.ExpireVouchers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.userSvc.now = fixedClock(issued.AddDate(0, 2, 0))
	n, err = env.userSvc.ExpireVouchers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	vouchers, err := env.userSvc.ListVouchers(ctx, referred.ID)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, model.VoucherExpired, vouchers[0].Status)

	_, err = env.userSvc.UseVoucher(ctx, referred.ID, vouchers[0].ID)
	assert.ErrorIs(t, err, ErrVoucherNotIssued)
}

func TestUserService_ListReferrals(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	referrer := env.createUser(t, "LISTME")
	for i := 0; i < 3; i++ {
		u := env.createUser(t, "")
		_, err := env.userSvc.HandleReferral(ctx, "LISTME", u.ID)
		require.NoError(t, err)
	}

	referrals, err := env.userSvc.ListReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Len(t, referrals, 3)

	vouchers, err := env.userSvc.ListVouchers(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Len(t, vouchers, 3)
}

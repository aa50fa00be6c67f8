package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralRepository_UniquePair(t *testing.T) {
	testDB := setupTestDB(t)
	log := logger.Nop()
	users := NewUserRepository(testDB, log)
	repo := NewReferralRepository(testDB, log)
	ctx := context.Background()

	referrer := createUser(t, users, "referrer@example.com", "REFER001")
	referred := createUser(t, users, "referred@example.com", "REFER002")

	first := &model.Referral{ReferrerID: referrer.ID, ReferredID: referred.ID, ReferralCode: "REFER001", Status: model.ReferralClaimed}
	require.NoError(t, repo.Create(ctx, first))

	dup := &model.Referral{ReferrerID: referrer.ID, ReferredID: referred.ID, ReferralCode: "REFER001", Status: model.ReferralClaimed}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsUniqueViolation(err))

	listed, err := repo.ListByReferrer(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	found, err := repo.FindByReferred(ctx, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

type voucherFixture struct {
	repo     VoucherRepository
	owner    *model.User
	other    *model.User
	referral *model.Referral
}

func setupVoucherTest(t *testing.T) *voucherFixture {
	t.Helper()
	testDB := setupTestDB(t)
	log := logger.Nop()
	users := NewUserRepository(testDB, log)

	owner := createUser(t, users, "owner@example.com", "VOUCH001")
	other := createUser(t, users, "other@example.com", "VOUCH002")
	referral := &model.Referral{ReferrerID: other.ID, ReferredID: owner.ID, ReferralCode: "VOUCH002", Status: model.ReferralClaimed}
	require.NoError(t, NewReferralRepository(testDB, log).Create(context.Background(), referral))

	return &voucherFixture{repo: NewVoucherRepository(testDB, log), owner: owner, other: other, referral: referral}
}

func (f *voucherFixture) issue(t *testing.T, userID uint, issuedAt, expiresAt time.Time) model.Voucher {
	t.Helper()
	vouchers := []model.Voucher{{
		RefID:     f.referral.ID,
		UserID:    userID,
		Amount:    5,
		Status:    model.VoucherIssued,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}}
	require.NoError(t, f.repo.CreateBatch(context.Background(), vouchers))
	return vouchers[0]
}

func TestVoucherRepository_MarkUsed(t *testing.T) {
	f := setupVoucherTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	live := f.issue(t, f.owner.ID, now.Add(-time.Hour), now.Add(24*time.Hour))
	stale := f.issue(t, f.owner.ID, now.Add(-48*time.Hour), now.Add(-time.Hour))

	tests := []struct {
		name    string
		id      uint
		userID  uint
		changed int64
	}{
		{name: "Other user's voucher", id: live.ID, userID: f.other.ID, changed: 0},
		{name: "Expired voucher", id: stale.ID, userID: f.owner.ID, changed: 0},
		{name: "Live voucher", id: live.ID, userID: f.owner.ID, changed: 1},
		{name: "Already used", id: live.ID, userID: f.owner.ID, changed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := f.repo.MarkUsed(ctx, tt.id, tt.userID, now)
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
		})
	}

	used, err := f.repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VoucherUsed, used.Status)
	require.NotNil(t, used.UsedAt)
}

func TestVoucherRepository_ExpireIssued(t *testing.T) {
	f := setupVoucherTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	f.issue(t, f.owner.ID, now.AddDate(0, -1, 0), now)                 // expires exactly now
	f.issue(t, f.owner.ID, now.AddDate(0, -1, 0), now.Add(time.Second)) // still live
	f.issue(t, f.other.ID, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))

	expired, err := f.repo.ExpireIssued(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), expired)

	expired, err = f.repo.ExpireIssued(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), expired, "sweep is idempotent")

	vouchers, err := f.repo.ListByUser(ctx, f.owner.ID)
	require.NoError(t, err)
	statuses := map[model.VoucherStatus]int{}
	for _, v := range vouchers {
		statuses[v.Status]++
	}
	assert.Equal(t, map[model.VoucherStatus]int{model.VoucherExpired: 1, model.VoucherIssued: 1}, statuses)

	byRef, err := f.repo.ListByRef(ctx, f.referral.ID)
	require.NoError(t, err)
	assert.Len(t, byRef, 3)
}

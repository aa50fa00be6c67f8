package db

import (
	"testing"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func foreignKeys(t *testing.T, conn *gorm.DB, table string) []foreignKey {
	t.Helper()
	var keys []foreignKey
	require.NoError(t, conn.Raw("PRAGMA foreign_key_list(" + table + ")").Scan(&keys).Error)
	return keys
}

func TestMigrate_ForeignKeysLiveOnChildTables(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(conn)

	// businesses only references its owner
	for _, fk := range foreignKeys(t, conn, "businesses") {
		assert.Equal(t, "users", fk.Table, "businesses must not reference %s", fk.Table)
	}

	tests := []struct {
		table      string
		column     string
		references string
		onDelete   string
	}{
		{table: "business_payment_options", column: "uen", references: "businesses", onDelete: "CASCADE"},
		{table: "business_opening_hours", column: "uen", references: "businesses", onDelete: "CASCADE"},
		{table: "business_reviews", column: "uen", references: "businesses", onDelete: "CASCADE"},
		{table: "business_reviews", column: "user_email", references: "users", onDelete: "CASCADE"},
		{table: "bookmarks", column: "uen", references: "businesses", onDelete: "CASCADE"},
		{table: "bookmarks", column: "user_id", references: "users", onDelete: "CASCADE"},
		{table: "forum_posts", column: "uen", references: "businesses", onDelete: "SET NULL"},
		{table: "forum_replies", column: "post_id", references: "forum_posts", onDelete: "CASCADE"},
		{table: "vouchers", column: "ref_id", references: "referrals", onDelete: "CASCADE"},
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			var found *foreignKey
			for _, fk := range foreignKeys(t, conn, tt.table) {
				if fk.From == tt.column && fk.Table == tt.references {
					fk := fk
					found = &fk
				}
			}
			require.NotNil(t, found, "missing foreign key %s.%s -> %s", tt.table, tt.column, tt.references)
			assert.Equal(t, tt.onDelete, found.OnDelete)
		})
	}
}

func TestMigrate_BusinessDeleteReachesChildren(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(conn)

	owner := &model.User{Email: "owner@localbiz.sg", PasswordHash: "x", Name: "Owner", ReferralCode: "OWNER001"}
	require.NoError(t, conn.Create(owner).Error)

	business := &model.Business{UEN: "53312345A", Name: "Kopi Corner", OwnerID: owner.ID, PriceTier: model.PriceTierLow}
	require.NoError(t, conn.Omit("Owner").Create(business).Error)

	uen := business.UEN
	require.NoError(t, conn.Create(&model.BusinessPaymentOption{UEN: uen, PaymentOption: model.PaymentCash}).Error)
	require.NoError(t, conn.Create(&model.BusinessOpeningHours{UEN: uen, DayOfWeek: model.Monday, OpenTime: "08:00", CloseTime: "18:00"}).Error)
	require.NoError(t, conn.Omit("User").Create(&model.Review{UEN: uen, UserEmail: owner.Email, Rating: 5}).Error)
	require.NoError(t, conn.Omit("User").Create(&model.Bookmark{UserID: owner.ID, UEN: uen}).Error)

	post := &model.ForumPost{UserID: owner.ID, UEN: &uen, Title: "Opening day", Body: "Come by"}
	require.NoError(t, conn.Omit("User", "Replies").Create(post).Error)
	require.NoError(t, conn.Omit("User").Create(&model.ForumReply{PostID: post.ID, UserID: owner.ID, Body: "See you"}).Error)

	require.NoError(t, conn.Where("uen = ?", uen).Delete(&model.Business{}).Error)

	for _, m := range []interface{}{&model.BusinessPaymentOption{}, &model.BusinessOpeningHours{}, &model.Review{}, &model.Bookmark{}} {
		var count int64
		require.NoError(t, conn.Model(m).Where("uen = ?", uen).Count(&count).Error)
		assert.Zero(t, count)
	}

	var kept model.ForumPost
	require.NoError(t, conn.First(&kept, post.ID).Error)
	assert.Nil(t, kept.UEN, "post survives with its business tag cleared")

	require.NoError(t, conn.Delete(&model.ForumPost{}, post.ID).Error)
	var replies int64
	require.NoError(t, conn.Model(&model.ForumReply{}).Where("post_id = ?", post.ID).Count(&replies).Error)
	assert.Zero(t, replies)
}

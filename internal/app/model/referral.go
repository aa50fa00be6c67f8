package model

import (
	"time"
)

// ReferralStatus moves claimed -> qualified -> rewarded | rejected.
// Only claimed is written today.
type ReferralStatus string

const (
	ReferralClaimed   ReferralStatus = "claimed"
	ReferralQualified ReferralStatus = "qualified"
	ReferralRewarded  ReferralStatus = "rewarded"
	ReferralRejected  ReferralStatus = "rejected"
)

type Referral struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ReferrerID   uint           `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referrer_id"`
	ReferredID   uint           `gorm:"not null;uniqueIndex:idx_referral_pair;index" json:"referred_id"`
	ReferralCode string         `gorm:"type:varchar(16);not null" json:"referral_code"`
	Status       ReferralStatus `gorm:"type:varchar(20);not null;default:'claimed'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`

	Referrer User `gorm:"foreignKey:ReferrerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Referred User `gorm:"foreignKey:ReferredID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Referral) TableName() string {
	return "referrals"
}

type VoucherStatus string

const (
	VoucherIssued  VoucherStatus = "issued"
	VoucherUsed    VoucherStatus = "used"
	VoucherExpired VoucherStatus = "expired"
	VoucherRevoked VoucherStatus = "revoked"
)

type Voucher struct {
	ID        uint          `gorm:"primarykey" json:"id"`
	RefID     uint          `gorm:"not null;index" json:"ref_id"` // issuing referral
	UserID    uint          `gorm:"not null;index" json:"user_id"`
	Amount    int           `gorm:"not null" json:"amount"`
	Status    VoucherStatus `gorm:"type:varchar(20);not null;default:'issued';index" json:"status"`
	IssuedAt  time.Time     `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time     `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time    `json:"used_at,omitempty"`

	Referral Referral `gorm:"foreignKey:RefID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User     User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

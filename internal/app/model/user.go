package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	Name             string    `gorm:"not null" json:"name"`
	Role             UserRole  `gorm:"type:varchar(20);default:'user'" json:"role"`
	ReferralCode     string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"referral_code"` // code other users redeem
	ReferredByUserID *uint     `gorm:"index" json:"referred_by_user_id,omitempty"`                 // set once, by a referral
	HasBusiness      bool      `gorm:"default:false" json:"has_business"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

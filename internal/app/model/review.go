package model

import (
	"time"
)

type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UEN       string    `gorm:"column:uen;type:varchar(20);not null;index" json:"uen"`
	UserEmail string    `gorm:"not null;index" json:"user_email"`
	Rating    int       `gorm:"not null" json:"rating"` // 1-5
	Body      string    `gorm:"type:text" json:"body"`
	ImageURL  string    `json:"image_url,omitempty"`
	LikeCount int       `gorm:"default:0;not null" json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserEmail;references:Email;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Review) TableName() string {
	return "business_reviews"
}

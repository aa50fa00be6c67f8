package model

import "time"

type Bookmark struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	UEN       string    `gorm:"column:uen;primaryKey;type:varchar(20)" json:"uen"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

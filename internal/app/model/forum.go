package model

import (
	"time"
)

// ForumPost is a community discussion thread, optionally tagged to a business.
type ForumPost struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	UEN        *string   `gorm:"column:uen;type:varchar(20);index" json:"uen,omitempty"`
	Title      string    `gorm:"type:varchar(200);not null" json:"title"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	ImageURL   string    `json:"image_url,omitempty"`
	LikeCount  int       `gorm:"default:0;not null" json:"like_count"`
	ReplyCount int       `gorm:"default:0;not null" json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User    User         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Replies []ForumReply `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"replies,omitempty"`
}

func (ForumPost) TableName() string {
	return "forum_posts"
}

type ForumReply struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	LikeCount int       `gorm:"default:0;not null" json:"like_count"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (ForumReply) TableName() string {
	return "forum_replies"
}

package model

import (
	"time"
)

type PriceTier string

const (
	PriceTierLow    PriceTier = "low"
	PriceTierMedium PriceTier = "medium"
	PriceTierHigh   PriceTier = "high"
)

func (p PriceTier) Valid() bool {
	switch p {
	case PriceTierLow, PriceTierMedium, PriceTierHigh:
		return true
	}
	return false
}

type PaymentOption string

const (
	PaymentCash           PaymentOption = "cash"
	PaymentCard           PaymentOption = "card"
	PaymentPayNow         PaymentOption = "paynow"
	PaymentDigitalWallets PaymentOption = "digital_wallets"
)

func (p PaymentOption) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentPayNow, PaymentDigitalWallets:
		return true
	}
	return false
}

type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

func (d DayOfWeek) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Business is keyed by its Unique Entity Number.
type Business struct {
	UEN            string    `gorm:"column:uen;primaryKey;type:varchar(20)" json:"uen"`
	Name           string    `gorm:"column:business_name;not null;index" json:"business_name"`
	Category       string    `gorm:"column:business_category;index" json:"business_category"`
	Description    string    `gorm:"type:text" json:"description"`
	Address        string    `json:"address"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Website        string    `json:"website,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	PriceTier      PriceTier `gorm:"type:varchar(10);not null;default:'medium'" json:"price_tier"`
	Open247        bool      `gorm:"column:open247;default:false" json:"open247"`
	OffersDelivery bool      `gorm:"default:false" json:"offers_delivery"`
	OffersPickup   bool      `gorm:"default:false" json:"offers_pickup"`
	OwnerID        uint      `gorm:"not null;index" json:"owner_id"`
	CreatedAt      time.Time `gorm:"column:date_of_creation;index" json:"date_of_creation"`
	UpdatedAt      time.Time `json:"updated_at"`

	Owner User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	// Child tables keyed by uen. Declared here so the foreign keys land on
	// the child side; never preloaded.
	PaymentOptionRows []BusinessPaymentOption `gorm:"foreignKey:UEN;references:UEN;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	OpeningHourRows   []BusinessOpeningHours  `gorm:"foreignKey:UEN;references:UEN;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Reviews           []Review                `gorm:"foreignKey:UEN;references:UEN;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Bookmarks         []Bookmark              `gorm:"foreignKey:UEN;references:UEN;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ForumPosts        []ForumPost             `gorm:"foreignKey:UEN;references:UEN;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

func (Business) TableName() string {
	return "businesses"
}

type BusinessPaymentOption struct {
	UEN           string        `gorm:"column:uen;primaryKey;type:varchar(20)" json:"uen"`
	PaymentOption PaymentOption `gorm:"primaryKey;type:varchar(20)" json:"payment_option"`
}

func (BusinessPaymentOption) TableName() string {
	return "business_payment_options"
}

// BusinessOpeningHours rows exist only for businesses that are not open 24/7.
// A day without a row is a closed day.
type BusinessOpeningHours struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UEN       string    `gorm:"column:uen;type:varchar(20);not null;uniqueIndex:idx_hours_uen_day" json:"uen"`
	DayOfWeek DayOfWeek `gorm:"type:varchar(10);not null;uniqueIndex:idx_hours_uen_day" json:"day_of_week"`
	OpenTime  string    `gorm:"type:varchar(5);not null" json:"open_time"`  // HH:MM
	CloseTime string    `gorm:"type:varchar(5);not null" json:"close_time"` // HH:MM
}

func (BusinessOpeningHours) TableName() string {
	return "business_opening_hours"
}

type HoursView struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// BusinessView is a business with its payment options, opening hours and
// average rating attached.
type BusinessView struct {
	Business
	PaymentOptions []string             `json:"payment_options"`
	OpeningHours   map[string]HoursView `json:"opening_hours"`
	AvgRating      int                  `json:"avg_rating"`
}

// BusinessRef is the minimal pair used to cross-link a business.
type BusinessRef struct {
	UEN  string `gorm:"column:uen" json:"uen"`
	Name string `gorm:"column:business_name" json:"business_name"`
}

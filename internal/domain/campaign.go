package domain

import "time"

// Campaign is a time-boxed storefront promotion managed from the admin
// back-office.
type Campaign struct {
	BaseModel
	Name            string    `gorm:"size:255;not null" json:"name" binding:"required,min=2,max=255"`
	Slug            string    `gorm:"size:100;uniqueIndex;not null" json:"slug" binding:"required,min=2,max=100"`
	DiscountPercent int       `gorm:"not null" json:"discount_percent" binding:"required,gt=0,lte=90"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	EndsAt          time.Time `json:"ends_at" binding:"required"`
	Active          bool      `gorm:"not null;default:false" json:"active"`
}

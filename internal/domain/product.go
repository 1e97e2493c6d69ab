package domain

// Product is a storefront catalog item.
type Product struct {
	BaseModel
	Name        string `gorm:"size:255;not null" json:"name" binding:"required,min=2,max=255"`
	Description string `gorm:"size:2000" json:"description" binding:"max=2000"`
	PriceCents  int64  `gorm:"not null" json:"price_cents" binding:"required,gt=0"`
	Stock       int    `gorm:"not null;default:0" json:"stock" binding:"gte=0"`
	CategoryID  uint   `gorm:"index" json:"category_id"`
	ImageURL    string `gorm:"size:500" json:"image_url" binding:"omitempty,url"`
	Active      bool   `gorm:"not null;default:true" json:"active"`
}

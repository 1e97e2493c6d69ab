package domain

// Category groups products; a nil ParentID marks a top-level category.
type Category struct {
	BaseModel
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name" binding:"required,min=2,max=100"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug" binding:"required,min=2,max=100"`
	ParentID *uint  `gorm:"index" json:"parent_id"`
}

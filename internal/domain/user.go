package domain

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a storefront account.
type User struct {
	BaseModel
	Name  string `gorm:"size:100;not null" json:"name" binding:"required,min=2,max=100"`
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email" binding:"required,email"`
	Role  string `gorm:"size:20;not null;default:customer" json:"role" binding:"omitempty,oneof=customer admin"`
}

package domain

// Order statuses, in their usual lifecycle order.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a customer order as the storefront and admin back-office see it.
// Line-item detail stays on the server; the sync layer tracks the rollup.
type Order struct {
	BaseModel
	UserID     uint   `gorm:"index;not null" json:"user_id" binding:"required"`
	Status     string `gorm:"size:20;not null;default:pending" json:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled"`
	ItemCount  int    `gorm:"not null;default:0" json:"item_count" binding:"gte=0"`
	TotalCents int64  `gorm:"not null" json:"total_cents" binding:"required,gt=0"`
}

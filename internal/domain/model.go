package domain

import "time"

// BaseModel is the common base struct for all domain entities.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the entity's primary key.
func (m BaseModel) EntityID() uint {
	return m.ID
}

// Entity is the constraint satisfied by every server-owned record type.
// Entities are treated as immutable snapshots: stores replace whole values
// rather than mutating fields in place.
type Entity interface {
	EntityID() uint
}

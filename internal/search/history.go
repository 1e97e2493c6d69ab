package search

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

// QueryRecord is one remembered search term with usage stats.
type QueryRecord struct {
	domain.BaseModel
	Term       string    `gorm:"uniqueIndex;size:255;not null" json:"term"`
	Hits       int       `gorm:"not null;default:0" json:"hits"`
	LastUsedAt time.Time `gorm:"index" json:"last_used_at"`
}

func (QueryRecord) TableName() string {
	return "search_queries"
}

// History persists search terms so recent and popular queries survive
// restarts. All methods are safe for concurrent use; uniqueness conflicts
// between concurrent Records for the same new term resolve inside the
// transaction.
type History struct {
	db *gorm.DB
}

// NewHistory creates a History over db. The search_queries table must be
// migrated by the caller.
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Record bumps the hit count and recency of term, creating it on first use.
func (h *History) Record(ctx context.Context, term string) error {
	return pkg.WithTx(h.db.WithContext(ctx), func(tx *gorm.DB) error {
		var rec QueryRecord
		err := tx.Where("term = ?", term).First(&rec).Error
		switch {
		case err == nil:
			return tx.Model(&rec).Updates(map[string]any{
				"hits":         gorm.Expr("hits + 1"),
				"last_used_at": time.Now(),
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = QueryRecord{Term: term, Hits: 1, LastUsedAt: time.Now()}
			return tx.Create(&rec).Error
		default:
			return err
		}
	})
}

// Recent returns up to limit terms ordered by most recent use.
func (h *History) Recent(ctx context.Context, limit int) ([]string, error) {
	return h.terms(ctx, "last_used_at DESC", limit)
}

// Popular returns up to limit terms ordered by hit count.
func (h *History) Popular(ctx context.Context, limit int) ([]string, error) {
	return h.terms(ctx, "hits DESC", limit)
}

func (h *History) terms(ctx context.Context, order string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultRecentCap
	}
	var terms []string
	err := h.db.WithContext(ctx).
		Model(&QueryRecord{}).
		Order(order).
		Limit(limit).
		Pluck("term", &terms).Error
	if err != nil {
		return nil, err
	}
	return terms, nil
}

// Clear removes all remembered terms.
func (h *History) Clear(ctx context.Context) error {
	return h.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&QueryRecord{}).Error
}

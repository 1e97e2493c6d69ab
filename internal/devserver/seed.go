package devserver

import (
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

// Seed fills an empty database with sample catalog data so the sync layer
// has something to page through out of the box. A database that already has
// products is left alone.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return pkg.WithTx(db, func(tx *gorm.DB) error {
		categories := []domain.Category{
			{Name: "Electronics", Slug: "electronics"},
			{Name: "Books", Slug: "books"},
			{Name: "Clothing", Slug: "clothing"},
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}

		products := []domain.Product{
			{Name: "Wireless Headphones", Description: "Over-ear, noise cancelling", PriceCents: 19900, Stock: 42, CategoryID: categories[0].ID, Active: true},
			{Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches", PriceCents: 12900, Stock: 17, CategoryID: categories[0].ID, Active: true},
			{Name: "USB-C Hub", Description: "7-in-1 with HDMI", PriceCents: 4900, Stock: 120, CategoryID: categories[0].ID, Active: true},
			{Name: "The Go Programming Language", Description: "Donovan and Kernighan", PriceCents: 3900, Stock: 8, CategoryID: categories[1].ID, Active: true},
			{Name: "Designing Data-Intensive Applications", Description: "Kleppmann", PriceCents: 4500, Stock: 5, CategoryID: categories[1].ID, Active: true},
			{Name: "Cotton T-Shirt", Description: "Plain, unisex", PriceCents: 1500, Stock: 200, CategoryID: categories[2].ID, Active: true},
			{Name: "Hooded Sweatshirt", Description: "Fleece lined", PriceCents: 4200, Stock: 60, CategoryID: categories[2].ID, Active: true},
			{Name: "Discontinued Gadget", Description: "No longer sold", PriceCents: 900, Stock: 0, CategoryID: categories[0].ID, Active: false},
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}

		users := []domain.User{
			{Name: "Ada Lovelace", Email: "ada@example.com", Role: domain.RoleAdmin},
			{Name: "Grace Hopper", Email: "grace@example.com", Role: domain.RoleCustomer},
		}
		if err := tx.Create(&users).Error; err != nil {
			return err
		}

		orders := []domain.Order{
			{UserID: users[1].ID, Status: domain.OrderStatusPaid, ItemCount: 2, TotalCents: 24800},
			{UserID: users[1].ID, Status: domain.OrderStatusPending, ItemCount: 1, TotalCents: 3900},
		}
		if err := tx.Create(&orders).Error; err != nil {
			return err
		}

		now := time.Now()
		campaigns := []domain.Campaign{
			{Name: "Summer Sale", Slug: "summer-sale", DiscountPercent: 20, StartsAt: now.AddDate(0, 0, -7), EndsAt: now.AddDate(0, 0, 7), Active: true},
		}
		return tx.Create(&campaigns).Error
	})
}

package search

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func historyDB(t *testing.T) *History {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&QueryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewHistory(db)
}

func TestHistoryRecordAndRecent(t *testing.T) {
	h := historyDB(t)
	ctx := context.Background()

	for _, term := range []string{"shoes", "socks", "shirts"} {
		if err := h.Record(ctx, term); err != nil {
			t.Fatalf("Record(%q): %v", term, err)
		}
	}

	recent, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len(recent) = %d; want 3", len(recent))
	}
}

func TestHistoryRecordUpsertsHits(t *testing.T) {
	h := historyDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := h.Record(ctx, "shoes"); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Record(ctx, "socks"); err != nil {
		t.Fatal(err)
	}

	var rec QueryRecord
	if err := h.db.Where("term = ?", "shoes").First(&rec).Error; err != nil {
		t.Fatal(err)
	}
	if rec.Hits != 3 {
		t.Errorf("Hits = %d; want 3", rec.Hits)
	}

	popular, err := h.Popular(ctx, 10)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(popular) == 0 || popular[0] != "shoes" {
		t.Errorf("Popular = %v; want shoes first", popular)
	}
}

func TestHistoryRecentRespectsLimit(t *testing.T) {
	h := historyDB(t)
	ctx := context.Background()

	for _, term := range []string{"a", "b", "c", "d", "e"} {
		if err := h.Record(ctx, term); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Errorf("len(recent) = %d; want 2", len(recent))
	}
}

func TestHistoryClear(t *testing.T) {
	h := historyDB(t)
	ctx := context.Background()

	if err := h.Record(ctx, "shoes"); err != nil {
		t.Fatal(err)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	recent, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("recent after clear = %v; want empty", recent)
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

func TestUpsertCentralMaterialPreservesExistingStock(t *testing.T) {
	s := New()
	ctx := context.Background()

	purchased := time.Now().UTC()
	if _, err := s.UpsertCentralMaterial(ctx, domain.CentralMaterial{
		ID:               "pkt-oil",
		Name:             "Refined Cooking Oil",
		Unit:             "ltr",
		Category:         domain.MaterialPacket,
		CurrentStock:     decimal.NewFromInt(40),
		LastPurchaseCost: decimal.NewFromInt(3000),
		LastPurchaseDate: &purchased,
	}); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	saved, err := s.UpsertCentralMaterial(ctx, domain.CentralMaterial{
		ID:       "pkt-oil",
		Name:     "Refined Sunflower Oil",
		Unit:     "ltr",
		Category: domain.MaterialPacket,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if saved.Name != "Refined Sunflower Oil" {
		t.Fatalf("name = %q, want the updated name", saved.Name)
	}
	if !saved.CurrentStock.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("stock = %s, want 40 preserved", saved.CurrentStock)
	}
	if !saved.LastPurchaseCost.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("last purchase cost = %s, want 3000 preserved", saved.LastPurchaseCost)
	}
	if saved.LastPurchaseDate == nil {
		t.Fatalf("last purchase date must be preserved")
	}

	stored, err := s.GetCentralMaterial(ctx, "pkt-oil")
	if err != nil {
		t.Fatalf("GetCentralMaterial: %v", err)
	}
	if !stored.CurrentStock.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("stored stock = %s, want 40", stored.CurrentStock)
	}
}

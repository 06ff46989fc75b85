package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/store"
)

func TestAllocateStockMovesHubStockToBranch(t *testing.T) {
	databaseURL := os.Getenv("MOMOSTATION_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set MOMOSTATION_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	materialID := fmt.Sprintf("mat-alloc-it-%d", stamp)
	branch := fmt.Sprintf("branch-alloc-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM allocations WHERE material_id = $1`, materialID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branch_materials WHERE material_id = $1`, materialID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM central_materials WHERE id = $1`, materialID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO central_materials (id, name, unit, category, current_stock, is_finished, last_purchase_cost, created_at, updated_at)
		VALUES ($1, 'Allocation IT Momo', 'pcs', 'MOMO', 50, false, 0, now(), now())
	`, materialID); err != nil {
		t.Fatalf("seed central material: %v", err)
	}

	allocation, err := s.AllocateStock(ctx, materialID, branch, decimal.NewFromInt(30), time.Now().UTC())
	if err != nil {
		t.Fatalf("allocate stock: %v", err)
	}
	if allocation.MaterialName != "Allocation IT Momo" || allocation.Unit != "pcs" {
		t.Fatalf("allocation metadata wrong: %+v", allocation)
	}

	var centralStock decimal.Decimal
	if err := s.db.QueryRowContext(ctx, `
		SELECT current_stock FROM central_materials WHERE id = $1
	`, materialID).Scan(&centralStock); err != nil {
		t.Fatalf("query central stock: %v", err)
	}
	if !centralStock.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("central stock = %s, want 20", centralStock)
	}

	var branchStock decimal.Decimal
	var requestPending bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT current_stock, request_pending
		FROM branch_materials
		WHERE material_id = $1 AND branch_name = $2
	`, materialID, branch).Scan(&branchStock, &requestPending); err != nil {
		t.Fatalf("query branch stock: %v", err)
	}
	if !branchStock.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("branch stock = %s, want 30", branchStock)
	}
	if requestPending {
		t.Fatalf("allocation must clear request_pending")
	}

	// Over-allocating must fail without touching either side.
	if _, err := s.AllocateStock(ctx, materialID, branch, decimal.NewFromInt(100), time.Now().UTC()); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT current_stock FROM central_materials WHERE id = $1
	`, materialID).Scan(&centralStock); err != nil {
		t.Fatalf("query central stock: %v", err)
	}
	if !centralStock.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("failed allocation changed central stock: %s", centralStock)
	}

	var allocationCount int
	if err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM allocations WHERE material_id = $1
	`, materialID).Scan(&allocationCount); err != nil {
		t.Fatalf("count allocations: %v", err)
	}
	if allocationCount != 1 {
		t.Fatalf("expected 1 allocation entry, got %d", allocationCount)
	}
}

func TestDeductBranchStockFractionalQuantity(t *testing.T) {
	databaseURL := os.Getenv("MOMOSTATION_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set MOMOSTATION_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	materialID := fmt.Sprintf("mat-fries-it-%d", stamp)
	branch := fmt.Sprintf("branch-fries-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branch_materials WHERE material_id = $1`, materialID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM central_materials WHERE id = $1`, materialID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO central_materials (id, name, unit, category, current_stock, is_finished, last_purchase_cost, created_at, updated_at)
		VALUES ($1, 'Frozen Fries', 'pkt', 'PACKET', 10, false, 0, now(), now())
	`, materialID); err != nil {
		t.Fatalf("seed central material: %v", err)
	}

	// First deduction lazily seeds the branch row at minus the quantity;
	// the parameter must bind as numeric, not integer.
	if err := s.DeductBranchStock(ctx, branch, materialID, decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("fractional deduction on fresh branch row: %v", err)
	}

	var branchStock decimal.Decimal
	if err := s.db.QueryRowContext(ctx, `
		SELECT current_stock FROM branch_materials
		WHERE material_id = $1 AND branch_name = $2
	`, materialID, branch).Scan(&branchStock); err != nil {
		t.Fatalf("query branch stock: %v", err)
	}
	if !branchStock.Equal(decimal.RequireFromString("-1.5")) {
		t.Fatalf("branch stock = %s, want -1.5", branchStock)
	}

	// Second deduction hits the conflict branch and stays additive.
	if err := s.DeductBranchStock(ctx, branch, materialID, decimal.RequireFromString("0.25")); err != nil {
		t.Fatalf("fractional deduction on existing branch row: %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT current_stock FROM branch_materials
		WHERE material_id = $1 AND branch_name = $2
	`, materialID, branch).Scan(&branchStock); err != nil {
		t.Fatalf("query branch stock: %v", err)
	}
	if !branchStock.Equal(decimal.RequireFromString("-1.75")) {
		t.Fatalf("branch stock = %s, want -1.75", branchStock)
	}

	if err := s.DeductBranchStock(ctx, branch, "no-such-material", decimal.RequireFromString("0.5")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown material, got %v", err)
	}
}

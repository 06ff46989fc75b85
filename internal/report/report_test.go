package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSalesSummaryEmptySet(t *testing.T) {
	summary := SalesSummary(nil)
	if !summary.TotalRevenue.IsZero() || !summary.GrossProfit.IsZero() {
		t.Fatalf("empty set must produce zero revenue/profit: %+v", summary)
	}
	if summary.TotalOrders != 0 {
		t.Fatalf("expected 0 orders, got %d", summary.TotalOrders)
	}
}

func TestSalesSummaryIdentities(t *testing.T) {
	orders := []domain.CompletedOrder{
		{
			Total:         dec("120"),
			PaymentMethod: domain.PayCash,
			Items: []domain.OrderItem{
				{Name: "Chicken Momo (Medium)", Price: dec("60"), Cost: dec("24"), Quantity: 2},
			},
		},
		{
			Total:         dec("55"),
			PaymentMethod: domain.PayUPI,
			Items: []domain.OrderItem{
				{Name: "Veg Momo (Medium) - Fried", Price: dec("55"), Cost: dec("24"), Quantity: 1},
			},
		},
	}

	summary := SalesSummary(orders)
	if !summary.TotalRevenue.Equal(dec("175")) {
		t.Fatalf("revenue = %s, want 175", summary.TotalRevenue)
	}
	if !summary.TotalCogs.Equal(dec("72")) {
		t.Fatalf("cogs = %s, want 72", summary.TotalCogs)
	}
	if !summary.GrossProfit.Equal(summary.TotalRevenue.Sub(summary.TotalCogs)) {
		t.Fatalf("gross profit identity broken: %+v", summary)
	}
	if !summary.PaymentBreakdown.Cash.Equal(dec("120")) || !summary.PaymentBreakdown.UPI.Equal(dec("55")) {
		t.Fatalf("payment breakdown wrong: %+v", summary.PaymentBreakdown)
	}
}

func TestDaysInRange(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []struct {
		from, to time.Time
		want     int
	}{
		{day(1), day(1), 1},
		{day(1), day(3), 3},
		{day(3), day(1), 1},
		{day(1), day(1).Add(6 * time.Hour), 2},
	}
	for _, tc := range cases {
		if got := DaysInRange(tc.from, tc.to); got != tc.want {
			t.Fatalf("DaysInRange(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIndirectCogsExcludesMomoCategory(t *testing.T) {
	materials := []domain.CentralMaterial{
		{ID: "momo-chicken", Category: domain.MaterialMomo},
		{ID: "pkt-oil", Category: domain.MaterialPacket},
		{ID: "ing-flour", Category: domain.MaterialIngredient},
	}
	procurements := []domain.ProcurementEntry{
		{ItemID: "momo-chicken", TotalCost: dec("5000")},
		{ItemID: "pkt-oil", TotalCost: dec("600")},
		{ItemID: "ing-flour", TotalCost: dec("200")},
		{ItemID: "unknown-material", TotalCost: dec("999")},
	}

	got := IndirectCogs(procurements, materials)
	if !got.Equal(dec("800")) {
		t.Fatalf("indirect cogs = %s, want 800", got)
	}
}

func TestProfitAndLossThreeDayWindow(t *testing.T) {
	// Revenue 9000, order COGS 3000, indirect COGS 800, 3 days at
	// 1200 salary + 800 rent: net = 6000 - 800 - 6000 = -800.
	orders := []domain.CompletedOrder{
		{
			Total: dec("9000"),
			Items: []domain.OrderItem{
				{Name: "Chicken Momo (Medium)", Price: dec("90"), Cost: dec("30"), Quantity: 100},
			},
		},
	}
	materials := []domain.CentralMaterial{{ID: "pkt-oil", Category: domain.MaterialPacket}}
	procurements := []domain.ProcurementEntry{{ItemID: "pkt-oil", TotalCost: dec("800")}}

	pnl := ProfitAndLoss(PnLInput{
		Orders:          orders,
		Procurements:    procurements,
		Materials:       materials,
		From:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		DailySalaryRate: dec("1200"),
		DailyRentRate:   dec("800"),
	})

	if pnl.Days != 3 {
		t.Fatalf("days = %d, want 3", pnl.Days)
	}
	if !pnl.FixedCosts.Equal(dec("6000")) {
		t.Fatalf("fixed costs = %s, want 6000", pnl.FixedCosts)
	}
	if !pnl.GrossProfit.Equal(dec("6000")) {
		t.Fatalf("gross profit = %s, want 6000", pnl.GrossProfit)
	}
	if !pnl.NetProfit.Equal(dec("-800")) {
		t.Fatalf("net profit = %s, want -800", pnl.NetProfit)
	}
}

func TestProfitAndLossEmptyOrders(t *testing.T) {
	pnl := ProfitAndLoss(PnLInput{
		From:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		DailySalaryRate: dec("1200"),
		DailyRentRate:   dec("800"),
	})
	if !pnl.NetProfit.Equal(dec("-2000")) {
		t.Fatalf("empty window net profit = %s, want -2000", pnl.NetProfit)
	}
}

func TestStoreComparisonGroupsByBranch(t *testing.T) {
	orders := []domain.CompletedOrder{
		{BranchName: "koramangala", Total: dec("100"), Items: []domain.OrderItem{{Cost: dec("40"), Quantity: 1}}},
		{BranchName: "koramangala", Total: dec("50"), Items: []domain.OrderItem{{Cost: dec("10"), Quantity: 1}}},
		{BranchName: "indiranagar", Total: dec("80"), Items: []domain.OrderItem{{Cost: dec("30"), Quantity: 1}}},
	}

	rows := StoreComparison(orders)
	if len(rows) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(rows))
	}
	if rows[0].BranchName != "indiranagar" || rows[1].BranchName != "koramangala" {
		t.Fatalf("unexpected ordering: %+v", rows)
	}
	if rows[1].Orders != 2 || !rows[1].Revenue.Equal(dec("150")) || !rows[1].Profit.Equal(dec("100")) {
		t.Fatalf("koramangala row wrong: %+v", rows[1])
	}
}

func TestItemSalesGroupsByVariantName(t *testing.T) {
	orders := []domain.CompletedOrder{
		{Items: []domain.OrderItem{
			{Name: "Chicken Momo (Small) - Steamed", Price: dec("40"), Cost: dec("16"), Quantity: 2},
			{Name: "Chicken Momo (Large) - Steamed", Price: dec("80"), Cost: dec("32"), Quantity: 1},
		}},
		{Items: []domain.OrderItem{
			{Name: "Chicken Momo (Small) - Steamed", Price: dec("40"), Cost: dec("16"), Quantity: 1},
		}},
	}

	rows := ItemSales(orders)
	if len(rows) != 2 {
		t.Fatalf("variants must stay distinct rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Name == "Chicken Momo (Small) - Steamed" {
			if row.Quantity != 3 || !row.Revenue.Equal(dec("120")) || !row.Profit.Equal(dec("72")) {
				t.Fatalf("small variant row wrong: %+v", row)
			}
		}
	}
}

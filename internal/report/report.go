// Package report derives financial views from order, procurement and
// inventory snapshots. Everything here is pure aggregation: no store
// access, no mutation.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// OrderCogs sums cost x quantity over every line of the order.
func OrderCogs(order domain.CompletedOrder) decimal.Decimal {
	cogs := decimal.Zero
	for _, item := range order.Items {
		cogs = cogs.Add(item.Cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return cogs
}

func SalesSummary(orders []domain.CompletedOrder) domain.SalesSummary {
	summary := domain.SalesSummary{
		TotalRevenue: decimal.Zero,
		TotalCogs:    decimal.Zero,
		PaymentBreakdown: domain.PaymentBreakdown{
			Cash: decimal.Zero,
			UPI:  decimal.Zero,
			Card: decimal.Zero,
		},
	}

	for _, order := range orders {
		summary.TotalRevenue = summary.TotalRevenue.Add(order.Total)
		summary.TotalCogs = summary.TotalCogs.Add(OrderCogs(order))
		switch order.PaymentMethod {
		case domain.PayCash:
			summary.PaymentBreakdown.Cash = summary.PaymentBreakdown.Cash.Add(order.Total)
		case domain.PayUPI:
			summary.PaymentBreakdown.UPI = summary.PaymentBreakdown.UPI.Add(order.Total)
		case domain.PayCard:
			summary.PaymentBreakdown.Card = summary.PaymentBreakdown.Card.Add(order.Total)
		}
	}

	summary.TotalOrders = len(orders)
	summary.GrossProfit = summary.TotalRevenue.Sub(summary.TotalCogs)
	summary.ProfitMargin = decimal.Zero
	summary.AverageOrderValue = decimal.Zero
	if summary.TotalRevenue.IsPositive() {
		summary.ProfitMargin = summary.GrossProfit.Div(summary.TotalRevenue).Mul(hundred)
	}
	if len(orders) > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders))))
	}
	return summary
}

// DaysInRange counts the days covered by an inclusive date range:
// ceil((to-from)/24h)+1, never less than 1.
func DaysInRange(from time.Time, to time.Time) int {
	if !to.After(from) {
		return 1
	}
	elapsed := to.Sub(from)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	days++
	if days < 1 {
		days = 1
	}
	return days
}

// IndirectCogs sums procurement spend on PACKET and INGREDIENT
// materials. MOMO purchases are excluded: their cost already reaches
// the P&L through order-level COGS and would otherwise double count.
func IndirectCogs(procurements []domain.ProcurementEntry, materials []domain.CentralMaterial) decimal.Decimal {
	categoryByID := make(map[string]domain.MaterialCategory, len(materials))
	for _, m := range materials {
		categoryByID[m.ID] = m.Category
	}

	total := decimal.Zero
	for _, p := range procurements {
		switch categoryByID[p.ItemID] {
		case domain.MaterialPacket, domain.MaterialIngredient:
			total = total.Add(p.TotalCost)
		}
	}
	return total
}

type PnLInput struct {
	Orders          []domain.CompletedOrder
	Procurements    []domain.ProcurementEntry
	Materials       []domain.CentralMaterial
	From            time.Time
	To              time.Time
	DailySalaryRate decimal.Decimal
	DailyRentRate   decimal.Decimal
}

// ProfitAndLoss computes netProfit = grossProfit - indirectCogs -
// fixedCosts. The identities hold exactly for any input, including an
// empty order set (netProfit = -fixedCosts).
func ProfitAndLoss(input PnLInput) domain.ProfitAndLoss {
	summary := SalesSummary(input.Orders)
	indirect := IndirectCogs(input.Procurements, input.Materials)

	days := DaysInRange(input.From, input.To)
	daysDec := decimal.NewFromInt(int64(days))
	salary := daysDec.Mul(input.DailySalaryRate)
	rent := daysDec.Mul(input.DailyRentRate)
	fixed := salary.Add(rent)

	return domain.ProfitAndLoss{
		GrossProfit:  summary.GrossProfit,
		IndirectCogs: indirect,
		Salary:       salary,
		Rent:         rent,
		FixedCosts:   fixed,
		NetProfit:    summary.GrossProfit.Sub(indirect).Sub(fixed),
		Days:         days,
	}
}

// StoreComparison groups orders by branch, summing revenue, order count
// and order-level profit per branch independently.
func StoreComparison(orders []domain.CompletedOrder) []domain.StoreComparisonRow {
	byBranch := make(map[string]*domain.StoreComparisonRow)
	for _, order := range orders {
		row, ok := byBranch[order.BranchName]
		if !ok {
			row = &domain.StoreComparisonRow{
				BranchName: order.BranchName,
				Revenue:    decimal.Zero,
				Profit:     decimal.Zero,
			}
			byBranch[order.BranchName] = row
		}
		row.Revenue = row.Revenue.Add(order.Total)
		row.Orders++
		row.Profit = row.Profit.Add(order.Total.Sub(OrderCogs(order)))
	}

	rows := make([]domain.StoreComparisonRow, 0, len(byBranch))
	for _, row := range byBranch {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].BranchName < rows[j].BranchName
	})
	return rows
}

// ItemSales groups order lines by display name. Names encode the
// resolved size/preparation, so each variant aggregates separately.
func ItemSales(orders []domain.CompletedOrder) []domain.ItemSalesRow {
	byName := make(map[string]*domain.ItemSalesRow)
	for _, order := range orders {
		for _, item := range order.Items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			row, ok := byName[item.Name]
			if !ok {
				row = &domain.ItemSalesRow{
					Name:    item.Name,
					Revenue: decimal.Zero,
					Cogs:    decimal.Zero,
				}
				byName[item.Name] = row
			}
			row.Quantity += item.Quantity
			row.Revenue = row.Revenue.Add(item.Price.Mul(qty))
			row.Cogs = row.Cogs.Add(item.Cost.Mul(qty))
		}
	}

	rows := make([]domain.ItemSalesRow, 0, len(byName))
	for _, row := range byName {
		row.Profit = row.Revenue.Sub(row.Cogs)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Profit.Equal(rows[j].Profit) {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Profit.GreaterThan(rows[j].Profit)
	})
	return rows
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

type Category string

const (
	CategoryMomo  Category = "momo"
	CategorySide  Category = "side"
	CategoryDrink Category = "drink"
	CategoryCombo Category = "combo"
)

type MaterialCategory string

const (
	MaterialMomo       MaterialCategory = "MOMO"
	MaterialPacket     MaterialCategory = "PACKET"
	MaterialIngredient MaterialCategory = "INGREDIENT"
)

type OrderType string

const (
	OrderDineIn   OrderType = "DINE_IN"
	OrderTakeaway OrderType = "TAKEAWAY"
	OrderDelivery OrderType = "DELIVERY"
)

type OrderStatus string

const (
	StatusOrdered   OrderStatus = "ORDERED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusServed    OrderStatus = "SERVED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// AdvanceStatus moves an order one step along the kitchen flow.
// SERVED is terminal; COMPLETED and CANCELLED are only ever assigned
// directly, never reached by advancing.
func AdvanceStatus(status OrderStatus) OrderStatus {
	switch status {
	case StatusOrdered:
		return StatusPreparing
	case StatusPreparing:
		return StatusReady
	case StatusReady:
		return StatusServed
	default:
		return status
	}
}

type PaymentMethod string

const (
	PayCash PaymentMethod = "Cash"
	PayUPI  PaymentMethod = "UPI"
	PayCard PaymentMethod = "Card"
)

const (
	RoleAdmin        = "ADMIN"
	RoleStoreManager = "STORE_MANAGER"
)

// RecipeRequirement maps one raw material to the quantity consumed per
// unit sold (before size scaling).
type RecipeRequirement struct {
	MaterialID string          `json:"materialId"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// MenuItem carries the per-(preparation, size) price and cost matrices
// plus the bill of materials. SizeRecipes, when present for a size, is
// authoritative for that size and the global Recipe is ignored.
type MenuItem struct {
	ID           string                              `json:"id"`
	Name         string                              `json:"name"`
	Category     Category                            `json:"category"`
	Preparations map[string]map[Size]decimal.Decimal `json:"preparations"`
	Costs        map[string]map[Size]decimal.Decimal `json:"costs"`
	Recipe       []RecipeRequirement                 `json:"recipe,omitempty"`
	SizeRecipes  map[Size][]RecipeRequirement        `json:"sizeRecipes,omitempty"`
}

// CentralMaterial is one hub-wide stock row. CurrentStock is a signed
// balance: oversell drives it negative instead of failing.
type CentralMaterial struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Unit             string           `json:"unit"`
	Category         MaterialCategory `json:"category"`
	CurrentStock     decimal.Decimal  `json:"current_stock"`
	IsFinished       bool             `json:"is_finished"`
	LastPurchaseCost decimal.Decimal  `json:"last_purchase_cost"`
	LastPurchaseDate *time.Time       `json:"last_purchase_date,omitempty"`
}

// BranchMaterial is one per-station stock row, keyed by (material id,
// branch name). Rows are created lazily on first consumption or first
// allocation into the branch.
type BranchMaterial struct {
	ID             string           `json:"id"`
	BranchName     string           `json:"branch_name"`
	Name           string           `json:"name"`
	Unit           string           `json:"unit"`
	Category       MaterialCategory `json:"category"`
	CurrentStock   decimal.Decimal  `json:"current_stock"`
	IsFinished     bool             `json:"is_finished"`
	RequestPending bool             `json:"request_pending"`
}

// ProcurementEntry is an append-only hub purchase record.
type ProcurementEntry struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Vendor    string          `json:"vendor"`
	Date      time.Time       `json:"date"`
}

// StockAllocation is an append-only hub-to-branch transfer record. Each
// row is paired with exactly one central decrement and one branch
// increment, applied in the same transaction.
type StockAllocation struct {
	ID           string          `json:"id"`
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	StationName  string          `json:"station_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	Date         time.Time       `json:"date"`
}

// OrderItem is one line of a completed order. Size is set at order
// creation time; display names may still encode the resolved variant
// (e.g. "Chicken Momo (Large)") for receipts and legacy rows.
type OrderItem struct {
	ID           string          `json:"id"`
	MenuItemID   string          `json:"menuItemId"`
	Name         string          `json:"name"`
	Size         Size            `json:"size,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Quantity     int             `json:"quantity"`
	ParentItemID string          `json:"parentItemId,omitempty"`
}

type DeletionInfo struct {
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

type CompletedOrder struct {
	ID            string          `json:"id"`
	BillNumber    int64           `json:"billNumber"`
	Type          OrderType       `json:"type"`
	Status        OrderStatus     `json:"status"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Date          time.Time       `json:"date"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	BranchName    string          `json:"branchName"`
	DeletionInfo  *DeletionInfo   `json:"deletionInfo,omitempty"`
}

type Station struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

type StationCreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type Actor struct {
	Username    string
	Role        string
	StationName string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	StationName string `json:"station_name,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

// UserAccount is the internal persistence model for auth credentials.
type UserAccount struct {
	Username    string
	Password    string
	Role        string
	StationName string
	Active      bool
	CreatedAt   time.Time
}

type UserCreateRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	StationName string `json:"station_name"`
}

type AppUser struct {
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	StationName string    `json:"station_name,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderItemInput struct {
	MenuItemID   string          `json:"menuItemId"`
	Name         string          `json:"name"`
	Size         Size            `json:"size"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Quantity     int             `json:"quantity"`
	ParentItemID string          `json:"parentItemId,omitempty"`
}

type OrderCreateRequest struct {
	BranchName    string           `json:"branchName"`
	Type          OrderType        `json:"type"`
	Status        OrderStatus      `json:"status,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	Items         []OrderItemInput `json:"items"`
	Total         decimal.Decimal  `json:"total"`
}

type OrderSaveResponse struct {
	OrderID    string `json:"order_id"`
	BillNumber int64  `json:"bill_number"`
}

type VoidOrderRequest struct {
	BillNumber int64  `json:"bill_number"`
	Reason     string `json:"reason"`
}

type MaterialCreateRequest struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Unit         string           `json:"unit"`
	Category     MaterialCategory `json:"category"`
	InitialStock decimal.Decimal  `json:"initial_stock"`
	CostPerUnit  decimal.Decimal  `json:"cost_per_unit"`
}

type PurchaseRequest struct {
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Vendor     string          `json:"vendor"`
}

type AllocationRequest struct {
	MaterialID  string          `json:"material_id"`
	StationName string          `json:"station_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// PaymentBreakdown sums order totals per payment method.
type PaymentBreakdown struct {
	Cash decimal.Decimal `json:"cash"`
	UPI  decimal.Decimal `json:"upi"`
	Card decimal.Decimal `json:"card"`
}

type SalesSummary struct {
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	TotalCogs         decimal.Decimal  `json:"total_cogs"`
	GrossProfit       decimal.Decimal  `json:"gross_profit"`
	ProfitMargin      decimal.Decimal  `json:"profit_margin_percent"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	TotalOrders       int              `json:"total_orders"`
	PaymentBreakdown  PaymentBreakdown `json:"payment_breakdown"`
}

type ProfitAndLoss struct {
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	IndirectCogs decimal.Decimal `json:"indirect_cogs"`
	Salary       decimal.Decimal `json:"salary"`
	Rent         decimal.Decimal `json:"rent"`
	FixedCosts   decimal.Decimal `json:"fixed_costs"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	Days         int             `json:"days"`
}

type StoreComparisonRow struct {
	BranchName string          `json:"branch_name"`
	Revenue    decimal.Decimal `json:"revenue"`
	Orders     int             `json:"orders"`
	Profit     decimal.Decimal `json:"profit"`
}

// ItemSalesRow aggregates order lines by display name: variant names
// differ per size/preparation and are reported as distinct rows.
type ItemSalesRow struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cogs     decimal.Decimal `json:"cogs"`
	Profit   decimal.Decimal `json:"profit"`
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient central stock")
	ErrInvalidOrder      = errors.New("invalid order")
)

// OrderFilter bounds order queries to a date range and optionally a
// branch. Deleted selects voided orders instead of active ones.
type OrderFilter struct {
	From       time.Time
	To         time.Time
	BranchName string
	Deleted    bool
}

type Repository interface {
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	UpsertMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, order domain.CompletedOrder) (*domain.CompletedOrder, error)
	GetOrderByBillNumber(ctx context.Context, billNumber int64) (*domain.CompletedOrder, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.CompletedOrder, error)
	VoidOrder(ctx context.Context, billNumber int64, reason string, at time.Time) (*domain.CompletedOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	PeekNextBillNumber(ctx context.Context) (int64, error)

	ListCentralMaterials(ctx context.Context) ([]domain.CentralMaterial, error)
	GetCentralMaterial(ctx context.Context, id string) (*domain.CentralMaterial, error)
	UpsertCentralMaterial(ctx context.Context, material domain.CentralMaterial) (*domain.CentralMaterial, error)
	RecordPurchase(ctx context.Context, entry domain.ProcurementEntry) (*domain.ProcurementEntry, error)
	AllocateStock(ctx context.Context, materialID string, stationName string, qty decimal.Decimal, at time.Time) (*domain.StockAllocation, error)
	DeductBranchStock(ctx context.Context, branchName string, materialID string, qty decimal.Decimal) error
	ListBranchMaterials(ctx context.Context, branchName string) ([]domain.BranchMaterial, error)
	SetCentralFinished(ctx context.Context, materialID string, finished bool) error
	SetBranchFinished(ctx context.Context, materialID string, branchName string, finished bool) error
	SetRestockRequested(ctx context.Context, materialID string, branchName string) error
	ListProcurements(ctx context.Context, from time.Time, to time.Time) ([]domain.ProcurementEntry, error)
	ListAllocations(ctx context.Context, from time.Time, to time.Time) ([]domain.StockAllocation, error)

	ListStations(ctx context.Context) ([]domain.Station, error)
	CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

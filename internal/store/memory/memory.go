package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"momostation/backend/internal/catalog"
	"momostation/backend/internal/domain"
	"momostation/backend/internal/store"
	"momostation/backend/internal/xid"
)

type branchKey struct {
	materialID string
	branchName string
}

type Store struct {
	mu              sync.RWMutex
	menuItems       map[string]domain.MenuItem
	central         map[string]domain.CentralMaterial
	branch          map[branchKey]domain.BranchMaterial
	ordersByID      map[string]*domain.CompletedOrder
	ordersByBill    map[int64]*domain.CompletedOrder
	procurements    []domain.ProcurementEntry
	allocations     []domain.StockAllocation
	stationsByID    map[string]domain.Station
	usersByUsername map[string]domain.UserAccount
	billCounter     int64
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_MANAGER_PASSWORD;
// hardcoded dev defaults are used with a warning when unset. Production
// deployments use PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_MANAGER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_MANAGER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
		station  string
	}{
		{"admin", adminPwd, domain.RoleAdmin, ""},
		{"manager", managerPwd, domain.RoleStoreManager, "koramangala"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:    u.username,
			Password:    string(hash),
			Role:        u.role,
			StationName: u.station,
			Active:      true,
			CreatedAt:   now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func one() decimal.Decimal { return decimal.NewFromInt(1) }

func seedMenu() map[string]domain.MenuItem {
	prices := func(small, medium, large int64) map[domain.Size]decimal.Decimal {
		return map[domain.Size]decimal.Decimal{
			domain.SizeSmall:  decimal.NewFromInt(small),
			domain.SizeMedium: decimal.NewFromInt(medium),
			domain.SizeLarge:  decimal.NewFromInt(large),
		}
	}

	items := []domain.MenuItem{
		{
			ID:       "chicken-momo",
			Name:     "Chicken Momo",
			Category: domain.CategoryMomo,
			Preparations: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(40, 60, 80),
				"fried":   prices(50, 70, 90),
			},
			Costs: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(16, 24, 32),
				"fried":   prices(20, 30, 40),
			},
			Recipe: []domain.RecipeRequirement{{MaterialID: "momo-chicken", Quantity: one()}},
		},
		{
			ID:       "veg-momo",
			Name:     "Veg Momo",
			Category: domain.CategoryMomo,
			Preparations: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(30, 45, 55),
				"fried":   prices(40, 55, 65),
			},
			Costs: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(12, 18, 24),
				"fried":   prices(16, 24, 32),
			},
			Recipe: []domain.RecipeRequirement{{MaterialID: "momo-veg", Quantity: one()}},
		},
		{
			ID:       "paneer-momo",
			Name:     "Paneer Momo",
			Category: domain.CategoryMomo,
			Preparations: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(40, 60, 80),
				"fried":   prices(50, 70, 90),
			},
			Costs: map[string]map[domain.Size]decimal.Decimal{
				"steamed": prices(16, 24, 32),
				"fried":   prices(20, 30, 40),
			},
			Recipe: []domain.RecipeRequirement{{MaterialID: "momo-paneer", Quantity: one()}},
		},
		{
			ID:       "platter",
			Name:     "Must Try Platter",
			Category: domain.CategoryCombo,
			Preparations: map[string]map[domain.Size]decimal.Decimal{
				"normal": prices(70, 85, 100),
			},
			Costs: map[string]map[domain.Size]decimal.Decimal{
				"normal": prices(28, 34, 40),
			},
			Recipe: []domain.RecipeRequirement{{MaterialID: "momo-veg", Quantity: one()}},
			SizeRecipes: map[domain.Size][]domain.RecipeRequirement{
				domain.SizeLarge: {
					{MaterialID: "momo-veg", Quantity: decimal.NewFromInt(8)},
					{MaterialID: "pkt-fries", Quantity: decimal.RequireFromString("0.5")},
				},
			},
		},
	}

	menu := make(map[string]domain.MenuItem, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}
	return menu
}

func NewSeeded() *Store {
	central := make(map[string]domain.CentralMaterial, len(catalog.StandardMaterials))
	for _, m := range catalog.StandardMaterials {
		m.CurrentStock = decimal.NewFromInt(500)
		m.LastPurchaseCost = decimal.Zero
		central[m.ID] = m
	}

	stations := map[string]domain.Station{
		"st-koramangala": {ID: "st-koramangala", Name: "koramangala", Location: "Koramangala 5th Block"},
		"st-indiranagar": {ID: "st-indiranagar", Name: "indiranagar", Location: "Indiranagar 100ft Road"},
	}

	return &Store{
		menuItems:       seedMenu(),
		central:         central,
		branch:          make(map[branchKey]domain.BranchMaterial),
		ordersByID:      make(map[string]*domain.CompletedOrder),
		ordersByBill:    make(map[int64]*domain.CompletedOrder),
		procurements:    make([]domain.ProcurementEntry, 0, 64),
		allocations:     make([]domain.StockAllocation, 0, 64),
		stationsByID:    stations,
		usersByUsername: seedUsers(),
	}
}

// New returns an empty store (no seed data), used by tests that need
// full control over fixtures.
func New() *Store {
	return &Store{
		menuItems:       make(map[string]domain.MenuItem),
		central:         make(map[string]domain.CentralMaterial),
		branch:          make(map[branchKey]domain.BranchMaterial),
		ordersByID:      make(map[string]*domain.CompletedOrder),
		ordersByBill:    make(map[int64]*domain.CompletedOrder),
		stationsByID:    make(map[string]domain.Station),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

func (s *Store) ListMenuItems(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.MenuItem, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.MenuItem) int {
		return strings.Compare(a.Name, b.Name)
	})
	return items, nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.menuItems[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) UpsertMenuItem(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.ID == "" || item.Name == "" {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.menuItems[item.ID] = item
	saved := item
	return &saved, nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menuItems[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.menuItems, id)
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.CompletedOrder) (*domain.CompletedOrder, error) {
	if order.BranchName == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = xid.New("order")
	}
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}
	if order.Status == "" {
		order.Status = domain.StatusOrdered
	}

	// Bill numbers are owned by the store and assigned under the lock;
	// callers never pre-compute them.
	s.billCounter++
	order.BillNumber = s.billCounter

	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = xid.New("item")
		}
	}

	saved := order
	s.ordersByID[saved.ID] = &saved
	s.ordersByBill[saved.BillNumber] = &saved
	return cloneOrder(&saved), nil
}

func (s *Store) GetOrderByBillNumber(_ context.Context, billNumber int64) (*domain.CompletedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.ordersByBill[billNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) ListOrders(_ context.Context, filter store.OrderFilter) ([]domain.CompletedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.CompletedOrder, 0, 32)
	for _, order := range s.ordersByID {
		if filter.Deleted != (order.DeletionInfo != nil) {
			continue
		}
		if !filter.From.IsZero() && order.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && order.Date.After(filter.To) {
			continue
		}
		if filter.BranchName != "" && order.BranchName != filter.BranchName {
			continue
		}
		orders = append(orders, *cloneOrder(order))
	}

	slices.SortFunc(orders, func(a, b domain.CompletedOrder) int {
		switch {
		case a.BillNumber > b.BillNumber:
			return -1
		case a.BillNumber < b.BillNumber:
			return 1
		default:
			return 0
		}
	})
	return orders, nil
}

func (s *Store) VoidOrder(_ context.Context, billNumber int64, reason string, at time.Time) (*domain.CompletedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByBill[billNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	// Void is final: the deletion record is written exactly once.
	if order.DeletionInfo != nil {
		return nil, store.ErrInvalidOrder
	}
	order.DeletionInfo = &domain.DeletionInfo{Reason: reason, Date: at}
	return cloneOrder(order), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return store.ErrNotFound
	}
	order.Status = status
	return nil
}

func (s *Store) PeekNextBillNumber(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.billCounter + 1, nil
}

func (s *Store) ListCentralMaterials(_ context.Context) ([]domain.CentralMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	materials := make([]domain.CentralMaterial, 0, len(s.central))
	for _, m := range s.central {
		materials = append(materials, m)
	}
	slices.SortFunc(materials, func(a, b domain.CentralMaterial) int {
		return strings.Compare(a.Name, b.Name)
	})
	return materials, nil
}

func (s *Store) GetCentralMaterial(_ context.Context, id string) (*domain.CentralMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	material, ok := s.central[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := material
	return &found, nil
}

func (s *Store) UpsertCentralMaterial(_ context.Context, material domain.CentralMaterial) (*domain.CentralMaterial, error) {
	if material.ID == "" || material.Name == "" || material.Unit == "" {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Existing rows keep their stock and purchase history; only the
	// descriptive fields follow the upsert.
	if existing, ok := s.central[material.ID]; ok {
		existing.Name = material.Name
		existing.Unit = material.Unit
		existing.Category = material.Category
		s.central[material.ID] = existing
		saved := existing
		return &saved, nil
	}

	s.central[material.ID] = material
	saved := material
	return &saved, nil
}

func (s *Store) RecordPurchase(_ context.Context, entry domain.ProcurementEntry) (*domain.ProcurementEntry, error) {
	if entry.ItemID == "" || !entry.Quantity.IsPositive() {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.central[entry.ItemID]
	if !ok {
		return nil, store.ErrNotFound
	}

	material.CurrentStock = material.CurrentStock.Add(entry.Quantity)
	material.LastPurchaseCost = entry.TotalCost
	now := entry.Date
	if now.IsZero() {
		now = time.Now().UTC()
		entry.Date = now
	}
	material.LastPurchaseDate = &now
	material.IsFinished = false
	s.central[entry.ItemID] = material

	if entry.ID == "" {
		entry.ID = xid.New("proc")
	}
	entry.ItemName = material.Name
	entry.Unit = material.Unit
	s.procurements = append(s.procurements, entry)

	saved := entry
	return &saved, nil
}

func (s *Store) AllocateStock(_ context.Context, materialID string, stationName string, qty decimal.Decimal, at time.Time) (*domain.StockAllocation, error) {
	if materialID == "" || stationName == "" || !qty.IsPositive() {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	central, ok := s.central[materialID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if central.CurrentStock.LessThan(qty) {
		return nil, store.ErrInsufficientStock
	}

	central.CurrentStock = central.CurrentStock.Sub(qty)
	s.central[materialID] = central

	key := branchKey{materialID: materialID, branchName: stationName}
	row, exists := s.branch[key]
	if !exists {
		row = domain.BranchMaterial{
			ID:           materialID,
			BranchName:   stationName,
			Name:         central.Name,
			Unit:         central.Unit,
			Category:     central.Category,
			CurrentStock: decimal.Zero,
		}
	}
	row.CurrentStock = row.CurrentStock.Add(qty)
	row.IsFinished = false
	row.RequestPending = false
	s.branch[key] = row

	allocation := domain.StockAllocation{
		ID:           xid.New("alloc"),
		MaterialID:   materialID,
		MaterialName: central.Name,
		StationName:  stationName,
		Quantity:     qty,
		Unit:         central.Unit,
		Date:         at,
	}
	if allocation.Date.IsZero() {
		allocation.Date = time.Now().UTC()
	}
	s.allocations = append(s.allocations, allocation)

	saved := allocation
	return &saved, nil
}

func (s *Store) DeductBranchStock(_ context.Context, branchName string, materialID string, qty decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := branchKey{materialID: materialID, branchName: branchName}
	if row, ok := s.branch[key]; ok {
		// No floor: oversell drives the balance negative.
		row.CurrentStock = row.CurrentStock.Sub(qty)
		s.branch[key] = row
		return nil
	}

	central, ok := s.central[materialID]
	if !ok {
		return store.ErrNotFound
	}
	s.branch[key] = domain.BranchMaterial{
		ID:           materialID,
		BranchName:   branchName,
		Name:         central.Name,
		Unit:         central.Unit,
		Category:     central.Category,
		CurrentStock: qty.Neg(),
	}
	return nil
}

func (s *Store) ListBranchMaterials(_ context.Context, branchName string) ([]domain.BranchMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	materials := make([]domain.BranchMaterial, 0, 16)
	for key, row := range s.branch {
		if key.branchName != branchName {
			continue
		}
		materials = append(materials, row)
	}
	slices.SortFunc(materials, func(a, b domain.BranchMaterial) int {
		return strings.Compare(a.Name, b.Name)
	})
	return materials, nil
}

func (s *Store) SetCentralFinished(_ context.Context, materialID string, finished bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.central[materialID]
	if !ok {
		return store.ErrNotFound
	}
	material.IsFinished = finished
	material.CurrentStock = finishedStock(finished)
	s.central[materialID] = material
	return nil
}

func (s *Store) SetBranchFinished(_ context.Context, materialID string, branchName string, finished bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := branchKey{materialID: materialID, branchName: branchName}
	row, ok := s.branch[key]
	if !ok {
		return store.ErrNotFound
	}
	row.IsFinished = finished
	row.CurrentStock = finishedStock(finished)
	s.branch[key] = row
	return nil
}

// finishedStock is the coarse manual override: staff flag "ran out" or
// "got more" without precise counts.
func finishedStock(finished bool) decimal.Decimal {
	if finished {
		return decimal.Zero
	}
	return decimal.NewFromInt(1)
}

func (s *Store) SetRestockRequested(_ context.Context, materialID string, branchName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := branchKey{materialID: materialID, branchName: branchName}
	row, ok := s.branch[key]
	if !ok {
		return store.ErrNotFound
	}
	row.RequestPending = true
	s.branch[key] = row
	return nil
}

func (s *Store) ListProcurements(_ context.Context, from time.Time, to time.Time) ([]domain.ProcurementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ProcurementEntry, 0, len(s.procurements))
	for _, entry := range s.procurements {
		if inRange(entry.Date, from, to) {
			entries = append(entries, entry)
		}
	}
	slices.Reverse(entries)
	return entries, nil
}

func (s *Store) ListAllocations(_ context.Context, from time.Time, to time.Time) ([]domain.StockAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.StockAllocation, 0, len(s.allocations))
	for _, entry := range s.allocations {
		if inRange(entry.Date, from, to) {
			entries = append(entries, entry)
		}
	}
	slices.Reverse(entries)
	return entries, nil
}

func inRange(at time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && at.After(to) {
		return false
	}
	return true
}

func (s *Store) ListStations(_ context.Context) ([]domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations := make([]domain.Station, 0, len(s.stationsByID))
	for _, station := range s.stationsByID {
		stations = append(stations, station)
	}
	slices.SortFunc(stations, func(a, b domain.Station) int {
		return strings.Compare(a.Name, b.Name)
	})
	return stations, nil
}

func (s *Store) CreateStation(_ context.Context, station domain.Station) (*domain.Station, error) {
	if station.Name == "" {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if station.ID == "" {
		station.ID = xid.New("st")
	}
	for _, existing := range s.stationsByID {
		if existing.Name == station.Name {
			return nil, store.ErrInvalidOrder
		}
	}
	s.stationsByID[station.ID] = station
	saved := station
	return &saved, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return store.ErrInvalidOrder
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidOrder
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneOrder(order *domain.CompletedOrder) *domain.CompletedOrder {
	copied := *order
	copied.Items = make([]domain.OrderItem, len(order.Items))
	copy(copied.Items, order.Items)
	if order.DeletionInfo != nil {
		info := *order.DeletionInfo
		copied.DeletionInfo = &info
	}
	return &copied
}

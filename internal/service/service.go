package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"momostation/backend/internal/cache"
	"momostation/backend/internal/catalog"
	"momostation/backend/internal/domain"
	"momostation/backend/internal/report"
	"momostation/backend/internal/store"
	"momostation/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const menuCacheKey = "menu:all"

type Service struct {
	repo          store.Repository
	menuCache     cache.MenuCache
	log           zerolog.Logger
	defaultBranch string
	menuTTL       time.Duration
	salaryRate    decimal.Decimal
	rentRate      decimal.Decimal
}

type Options struct {
	DefaultBranch   string
	MenuCacheTTL    time.Duration
	DailySalaryRate decimal.Decimal
	DailyRentRate   decimal.Decimal
}

func New(repo store.Repository, menuCache cache.MenuCache, logger zerolog.Logger, opts Options) *Service {
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "koramangala"
	}
	if opts.MenuCacheTTL < time.Second {
		opts.MenuCacheTTL = 60 * time.Second
	}
	if opts.DailySalaryRate.IsZero() {
		opts.DailySalaryRate = decimal.NewFromInt(1200)
	}
	if opts.DailyRentRate.IsZero() {
		opts.DailyRentRate = decimal.NewFromInt(800)
	}
	if menuCache == nil {
		menuCache = cache.NoopMenuCache{}
	}

	return &Service{
		repo:          repo,
		menuCache:     menuCache,
		log:           logger,
		defaultBranch: opts.DefaultBranch,
		menuTTL:       opts.MenuCacheTTL,
		salaryRate:    opts.DailySalaryRate,
		rentRate:      opts.DailyRentRate,
	}
}

// resolveBranch pins non-admin actors to their own station. Admins may
// act on any branch; an empty branch falls back to the default.
func (s *Service) resolveBranch(ctx context.Context, requested string) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if ok && !actor.IsAdmin() {
		if actor.StationName == "" {
			return "", fmt.Errorf("store manager has no station assigned")
		}
		if requested != "" && requested != actor.StationName {
			return "", fmt.Errorf("branch access denied")
		}
		return actor.StationName, nil
	}
	if requested == "" {
		return s.defaultBranch, nil
	}
	return requested, nil
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return domain.Actor{}, fmt.Errorf("admin role required")
	}
	return actor, nil
}

// --- menu ---

func (s *Service) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	if items, hit, err := s.menuCache.Get(ctx, menuCacheKey); err == nil && hit {
		return items, nil
	} else if err != nil {
		s.log.Warn().Err(err).Msg("menu cache read failed")
	}

	items, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.menuCache.Set(ctx, menuCacheKey, items, s.menuTTL); err != nil {
		s.log.Warn().Err(err).Msg("menu cache write failed")
	}
	return items, nil
}

func (s *Service) GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.MenuItem{}, err
	}
	return *item, nil
}

func (s *Service) SaveMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.MenuItem{}, err
	}

	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == "" {
		item.ID = xid.New("menu")
	}
	if item.Name == "" || len(item.Preparations) == 0 {
		return domain.MenuItem{}, store.ErrInvalidOrder
	}
	switch item.Category {
	case domain.CategoryMomo, domain.CategorySide, domain.CategoryDrink, domain.CategoryCombo:
	default:
		return domain.MenuItem{}, store.ErrInvalidOrder
	}
	for _, req := range item.Recipe {
		if req.MaterialID == "" || !req.Quantity.IsPositive() {
			return domain.MenuItem{}, store.ErrInvalidOrder
		}
	}
	for _, recipe := range item.SizeRecipes {
		for _, req := range recipe {
			if req.MaterialID == "" || !req.Quantity.IsPositive() {
				return domain.MenuItem{}, store.ErrInvalidOrder
			}
		}
	}

	saved, err := s.repo.UpsertMenuItem(ctx, item)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.invalidateMenuCache(ctx)
	s.log.Info().Str("actor", actor.Username).Str("menu_item", saved.ID).Msg("menu item saved")
	return *saved, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidOrder
	}
	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.invalidateMenuCache(ctx)
	s.log.Info().Str("actor", actor.Username).Str("menu_item", id).Msg("menu item deleted")
	return nil
}

func (s *Service) invalidateMenuCache(ctx context.Context) {
	if err := s.menuCache.Invalidate(ctx, menuCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("menu cache invalidation failed")
	}
}

// --- orders ---

func (s *Service) SaveOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.OrderSaveResponse, error) {
	branch, err := s.resolveBranch(ctx, strings.TrimSpace(req.BranchName))
	if err != nil {
		return domain.OrderSaveResponse{}, err
	}

	switch req.Type {
	case domain.OrderDineIn, domain.OrderTakeaway, domain.OrderDelivery:
	default:
		return domain.OrderSaveResponse{}, store.ErrInvalidOrder
	}
	if len(req.Items) == 0 || req.Total.IsNegative() {
		return domain.OrderSaveResponse{}, store.ErrInvalidOrder
	}
	status := req.Status
	if status == "" {
		status = domain.StatusOrdered
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, input := range req.Items {
		if input.Name == "" || input.Quantity < 1 {
			return domain.OrderSaveResponse{}, store.ErrInvalidOrder
		}
		if input.Price.IsNegative() || input.Cost.IsNegative() {
			return domain.OrderSaveResponse{}, store.ErrInvalidOrder
		}
		items = append(items, domain.OrderItem{
			ID:           xid.New("item"),
			MenuItemID:   input.MenuItemID,
			Name:         input.Name,
			Size:         input.Size,
			Price:        input.Price,
			Cost:         input.Cost,
			Quantity:     input.Quantity,
			ParentItemID: input.ParentItemID,
		})
	}

	order := domain.CompletedOrder{
		ID:            xid.New("order"),
		Type:          req.Type,
		Status:        status,
		Items:         items,
		Total:         req.Total,
		Date:          time.Now().UTC(),
		PaymentMethod: req.PaymentMethod,
		BranchName:    branch,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderSaveResponse{}, err
	}

	// The sale is committed; deductions must not die with the request.
	s.applyConsumption(context.WithoutCancel(ctx), created)

	s.log.Info().
		Int64("bill_number", created.BillNumber).
		Str("branch", branch).
		Int("items", len(created.Items)).
		Msg("order saved")

	return domain.OrderSaveResponse{OrderID: created.ID, BillNumber: created.BillNumber}, nil
}

// applyConsumption deducts branch stock for every line of a persisted
// order. Failures are logged and skipped: the order is already the
// financial record and inventory drift is corrected by manual counts,
// so a broken recipe must never block the sale.
func (s *Service) applyConsumption(ctx context.Context, order *domain.CompletedOrder) {
	for _, item := range order.Items {
		if item.MenuItemID == "" {
			continue
		}
		menuItem, err := s.repo.GetMenuItem(ctx, item.MenuItemID)
		if err != nil {
			s.log.Warn().
				Int64("bill_number", order.BillNumber).
				Str("menu_item", item.MenuItemID).
				Err(err).
				Msg("consumption_skipped: menu item lookup failed")
			continue
		}

		size := catalog.ItemSize(item)
		recipe, usingGlobal := catalog.ResolveRecipe(*menuItem, size)
		if len(recipe) == 0 {
			continue
		}
		multiplier := catalog.SizeMultiplier(menuItem.Category, size, usingGlobal)

		for _, req := range recipe {
			qty := catalog.Consumption(req.Quantity, multiplier, item.Quantity)
			if err := s.repo.DeductBranchStock(ctx, order.BranchName, req.MaterialID, qty); err != nil {
				s.log.Warn().
					Int64("bill_number", order.BillNumber).
					Str("branch", order.BranchName).
					Str("material", req.MaterialID).
					Str("qty", qty.String()).
					Err(err).
					Msg("consumption_skipped: branch deduction failed")
			}
		}
	}
}

func (s *Service) GetOrderByBillNumber(ctx context.Context, billNumber int64) (domain.CompletedOrder, error) {
	if billNumber < 1 {
		return domain.CompletedOrder{}, store.ErrInvalidOrder
	}
	order, err := s.repo.GetOrderByBillNumber(ctx, billNumber)
	if err != nil {
		return domain.CompletedOrder{}, err
	}

	if actor, ok := ActorFromContext(ctx); ok && !actor.IsAdmin() && order.BranchName != actor.StationName {
		return domain.CompletedOrder{}, store.ErrNotFound
	}
	return *order, nil
}

func (s *Service) ListOrders(ctx context.Context, from time.Time, to time.Time, branch string) ([]domain.CompletedOrder, error) {
	resolved, err := s.listBranchScope(ctx, branch)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, store.OrderFilter{From: from, To: to, BranchName: resolved})
}

func (s *Service) ListDeletedOrders(ctx context.Context, from time.Time, to time.Time, branch string) ([]domain.CompletedOrder, error) {
	resolved, err := s.listBranchScope(ctx, branch)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, store.OrderFilter{From: from, To: to, BranchName: resolved, Deleted: true})
}

// listBranchScope is resolveBranch for read paths: an admin with no
// explicit branch sees every branch instead of the default one.
func (s *Service) listBranchScope(ctx context.Context, requested string) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if ok && !actor.IsAdmin() {
		if actor.StationName == "" {
			return "", fmt.Errorf("store manager has no station assigned")
		}
		if requested != "" && requested != actor.StationName {
			return "", fmt.Errorf("branch access denied")
		}
		return actor.StationName, nil
	}
	return requested, nil
}

func (s *Service) VoidOrder(ctx context.Context, req domain.VoidOrderRequest) (domain.CompletedOrder, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.CompletedOrder{}, err
	}
	if req.BillNumber < 1 {
		return domain.CompletedOrder{}, store.ErrInvalidOrder
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "unspecified"
	}

	voided, err := s.repo.VoidOrder(ctx, req.BillNumber, reason, time.Now().UTC())
	if err != nil {
		return domain.CompletedOrder{}, err
	}

	s.log.Info().
		Str("actor", actor.Username).
		Int64("bill_number", req.BillNumber).
		Str("reason", reason).
		Msg("order voided")
	return *voided, nil
}

func (s *Service) AdvanceOrder(ctx context.Context, billNumber int64) (domain.CompletedOrder, error) {
	order, err := s.GetOrderByBillNumber(ctx, billNumber)
	if err != nil {
		return domain.CompletedOrder{}, err
	}
	if order.DeletionInfo != nil {
		return domain.CompletedOrder{}, store.ErrInvalidOrder
	}

	next := domain.AdvanceStatus(order.Status)
	if next == order.Status {
		return order, nil
	}
	if err := s.repo.UpdateOrderStatus(ctx, order.ID, next); err != nil {
		return domain.CompletedOrder{}, err
	}
	order.Status = next
	return order, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, billNumber int64, status domain.OrderStatus) (domain.CompletedOrder, error) {
	switch status {
	case domain.StatusOrdered, domain.StatusPreparing, domain.StatusReady,
		domain.StatusServed, domain.StatusCompleted, domain.StatusCancelled:
	default:
		return domain.CompletedOrder{}, store.ErrInvalidOrder
	}

	order, err := s.GetOrderByBillNumber(ctx, billNumber)
	if err != nil {
		return domain.CompletedOrder{}, err
	}
	if order.DeletionInfo != nil {
		return domain.CompletedOrder{}, store.ErrInvalidOrder
	}
	if err := s.repo.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		return domain.CompletedOrder{}, err
	}
	order.Status = status
	return order, nil
}

// PeekNextBillNumber is advisory display data for the order screen. The
// authoritative number is assigned by the store when the order commits.
func (s *Service) PeekNextBillNumber(ctx context.Context) (int64, error) {
	return s.repo.PeekNextBillNumber(ctx)
}

// --- inventory ---

func (s *Service) CreateCentralMaterial(ctx context.Context, req domain.MaterialCreateRequest) (domain.CentralMaterial, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.CentralMaterial{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return domain.CentralMaterial{}, store.ErrInvalidOrder
	}
	switch req.Category {
	case domain.MaterialMomo, domain.MaterialPacket, domain.MaterialIngredient:
	default:
		return domain.CentralMaterial{}, store.ErrInvalidOrder
	}
	if req.InitialStock.IsNegative() || req.CostPerUnit.IsNegative() {
		return domain.CentralMaterial{}, store.ErrInvalidOrder
	}
	if req.ID == "" {
		req.ID = xid.New("mat")
	}

	material := domain.CentralMaterial{
		ID:           req.ID,
		Name:         req.Name,
		Unit:         req.Unit,
		Category:     req.Category,
		CurrentStock: decimal.Zero,
	}
	saved, err := s.repo.UpsertCentralMaterial(ctx, material)
	if err != nil {
		return domain.CentralMaterial{}, err
	}

	// Initial stock enters through the procurement ledger so the spend
	// shows up in indirect COGS like any later purchase.
	if req.InitialStock.IsPositive() {
		entry := domain.ProcurementEntry{
			ID:        xid.New("proc"),
			ItemID:    saved.ID,
			Quantity:  req.InitialStock,
			TotalCost: req.CostPerUnit.Mul(req.InitialStock),
			Vendor:    "opening stock",
			Date:      time.Now().UTC(),
		}
		if _, err := s.repo.RecordPurchase(ctx, entry); err != nil {
			return domain.CentralMaterial{}, err
		}
		refreshed, err := s.repo.GetCentralMaterial(ctx, saved.ID)
		if err != nil {
			return domain.CentralMaterial{}, err
		}
		saved = refreshed
	}

	s.log.Info().Str("actor", actor.Username).Str("material", saved.ID).Msg("central material created")
	return *saved, nil
}

// SeedStandardMaterials inserts the baseline hub materials that are not
// already present. Existing rows are left untouched.
func (s *Service) SeedStandardMaterials(ctx context.Context) (int, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return 0, err
	}

	added := 0
	for _, material := range catalog.StandardMaterials {
		_, err := s.repo.GetCentralMaterial(ctx, material.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return added, err
		}
		material.CurrentStock = decimal.Zero
		material.LastPurchaseCost = decimal.Zero
		if _, err := s.repo.UpsertCentralMaterial(ctx, material); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (s *Service) Purchase(ctx context.Context, req domain.PurchaseRequest) (domain.ProcurementEntry, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.ProcurementEntry{}, err
	}
	if req.MaterialID == "" || !req.Quantity.IsPositive() || req.TotalCost.IsNegative() {
		return domain.ProcurementEntry{}, store.ErrInvalidOrder
	}

	entry := domain.ProcurementEntry{
		ID:        xid.New("proc"),
		ItemID:    req.MaterialID,
		Quantity:  req.Quantity,
		TotalCost: req.TotalCost,
		Vendor:    strings.TrimSpace(req.Vendor),
		Date:      time.Now().UTC(),
	}
	saved, err := s.repo.RecordPurchase(ctx, entry)
	if err != nil {
		return domain.ProcurementEntry{}, err
	}

	s.log.Info().
		Str("actor", actor.Username).
		Str("material", req.MaterialID).
		Str("qty", req.Quantity.String()).
		Str("cost", req.TotalCost.String()).
		Msg("purchase recorded")
	return *saved, nil
}

func (s *Service) Allocate(ctx context.Context, req domain.AllocationRequest) (domain.StockAllocation, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.StockAllocation{}, err
	}
	req.StationName = strings.TrimSpace(req.StationName)
	if req.MaterialID == "" || req.StationName == "" || !req.Quantity.IsPositive() {
		return domain.StockAllocation{}, store.ErrInvalidOrder
	}

	allocation, err := s.repo.AllocateStock(ctx, req.MaterialID, req.StationName, req.Quantity, time.Now().UTC())
	if err != nil {
		return domain.StockAllocation{}, err
	}

	s.log.Info().
		Str("actor", actor.Username).
		Str("material", req.MaterialID).
		Str("station", req.StationName).
		Str("qty", req.Quantity.String()).
		Msg("stock allocated")
	return *allocation, nil
}

func (s *Service) CentralInventory(ctx context.Context) ([]domain.CentralMaterial, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListCentralMaterials(ctx)
}

func (s *Service) BranchInventory(ctx context.Context, branch string) ([]domain.BranchMaterial, error) {
	resolved, err := s.resolveBranch(ctx, strings.TrimSpace(branch))
	if err != nil {
		return nil, err
	}
	return s.repo.ListBranchMaterials(ctx, resolved)
}

func (s *Service) MarkCentralFinished(ctx context.Context, materialID string, finished bool) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if materialID == "" {
		return store.ErrInvalidOrder
	}
	return s.repo.SetCentralFinished(ctx, materialID, finished)
}

func (s *Service) MarkBranchFinished(ctx context.Context, materialID string, branch string, finished bool) error {
	resolved, err := s.resolveBranch(ctx, strings.TrimSpace(branch))
	if err != nil {
		return err
	}
	if materialID == "" {
		return store.ErrInvalidOrder
	}
	return s.repo.SetBranchFinished(ctx, materialID, resolved, finished)
}

func (s *Service) RequestRestock(ctx context.Context, materialID string, branch string) error {
	resolved, err := s.resolveBranch(ctx, strings.TrimSpace(branch))
	if err != nil {
		return err
	}
	if materialID == "" {
		return store.ErrInvalidOrder
	}
	if err := s.repo.SetRestockRequested(ctx, materialID, resolved); err != nil {
		return err
	}
	s.log.Info().Str("material", materialID).Str("branch", resolved).Msg("restock requested")
	return nil
}

func (s *Service) ProcurementLog(ctx context.Context, from time.Time, to time.Time) ([]domain.ProcurementEntry, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListProcurements(ctx, from, to)
}

func (s *Service) AllocationLog(ctx context.Context, from time.Time, to time.Time) ([]domain.StockAllocation, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListAllocations(ctx, from, to)
}

// --- stations ---

func (s *Service) ListStations(ctx context.Context) ([]domain.Station, error) {
	return s.repo.ListStations(ctx)
}

func (s *Service) CreateStation(ctx context.Context, req domain.StationCreateRequest) (domain.Station, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.Station{}, err
	}
	req.Name = strings.ToLower(strings.TrimSpace(req.Name))
	if req.Name == "" {
		return domain.Station{}, store.ErrInvalidOrder
	}

	station, err := s.repo.CreateStation(ctx, domain.Station{
		ID:       xid.New("st"),
		Name:     req.Name,
		Location: strings.TrimSpace(req.Location),
	})
	if err != nil {
		return domain.Station{}, err
	}

	s.log.Info().Str("actor", actor.Username).Str("station", station.Name).Msg("station created")
	return *station, nil
}

// --- reports ---

func (s *Service) SalesReport(ctx context.Context, from time.Time, to time.Time, branch string) (domain.SalesSummary, error) {
	orders, err := s.ListOrders(ctx, from, to, branch)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	return report.SalesSummary(orders), nil
}

func (s *Service) ProfitAndLossReport(ctx context.Context, from time.Time, to time.Time) (domain.ProfitAndLoss, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.ProfitAndLoss{}, err
	}

	orders, err := s.repo.ListOrders(ctx, store.OrderFilter{From: from, To: to})
	if err != nil {
		return domain.ProfitAndLoss{}, err
	}
	procurements, err := s.repo.ListProcurements(ctx, from, to)
	if err != nil {
		return domain.ProfitAndLoss{}, err
	}
	materials, err := s.repo.ListCentralMaterials(ctx)
	if err != nil {
		return domain.ProfitAndLoss{}, err
	}

	return report.ProfitAndLoss(report.PnLInput{
		Orders:          orders,
		Procurements:    procurements,
		Materials:       materials,
		From:            from,
		To:              to,
		DailySalaryRate: s.salaryRate,
		DailyRentRate:   s.rentRate,
	}), nil
}

func (s *Service) StoreComparisonReport(ctx context.Context, from time.Time, to time.Time) ([]domain.StoreComparisonRow, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrders(ctx, store.OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return report.StoreComparison(orders), nil
}

func (s *Service) ItemSalesReport(ctx context.Context, from time.Time, to time.Time, branch string) ([]domain.ItemSalesRow, error) {
	orders, err := s.ListOrders(ctx, from, to, branch)
	if err != nil {
		return nil, err
	}
	return report.ItemSales(orders), nil
}

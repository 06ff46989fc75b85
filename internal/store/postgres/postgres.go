package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
	"momostation/backend/internal/store"
	"momostation/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- menu ---

func (s *Store) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, preparations, costs, recipe, size_recipes
		FROM menu_items
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 64)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, preparations, costs, recipe, size_recipes
		FROM menu_items
		WHERE id = $1
	`, id)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (*domain.MenuItem, error) {
	var item domain.MenuItem
	var preparations, costs, recipe, sizeRecipes []byte
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &preparations, &costs, &recipe, &sizeRecipes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(preparations, &item.Preparations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(costs, &item.Costs); err != nil {
		return nil, err
	}
	if len(recipe) > 0 {
		if err := json.Unmarshal(recipe, &item.Recipe); err != nil {
			return nil, err
		}
	}
	if len(sizeRecipes) > 0 {
		if err := json.Unmarshal(sizeRecipes, &item.SizeRecipes); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func (s *Store) UpsertMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.ID == "" || item.Name == "" {
		return nil, store.ErrInvalidOrder
	}

	preparations, err := json.Marshal(item.Preparations)
	if err != nil {
		return nil, err
	}
	costs, err := json.Marshal(item.Costs)
	if err != nil {
		return nil, err
	}
	recipe, err := json.Marshal(item.Recipe)
	if err != nil {
		return nil, err
	}
	sizeRecipes, err := json.Marshal(item.SizeRecipes)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, category, preparations, costs, recipe, size_recipes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category,
			preparations = EXCLUDED.preparations, costs = EXCLUDED.costs,
			recipe = EXCLUDED.recipe, size_recipes = EXCLUDED.size_recipes,
			updated_at = now()
	`, item.ID, item.Name, item.Category, preparations, costs, recipe, sizeRecipes)
	if err != nil {
		return nil, err
	}

	saved := item
	return &saved, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- orders ---

func (s *Store) CreateOrder(ctx context.Context, order domain.CompletedOrder) (*domain.CompletedOrder, error) {
	if order.BranchName == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidOrder
	}
	if order.ID == "" {
		order.ID = xid.New("order")
	}
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}
	if order.Status == "" {
		order.Status = domain.StatusOrdered
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	// The bill number is claimed inside the insert transaction, so two
	// concurrent orders can never share one and a failed insert never
	// burns a number that a later order would skip.
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO bill_counter (id, value)
		VALUES (1, 1)
		ON CONFLICT (id)
		DO UPDATE SET value = bill_counter.value + 1
		RETURNING value
	`).Scan(&order.BillNumber)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO orders (id, bill_number, order_type, status, total, order_date, payment_method, branch_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, order.ID, order.BillNumber, order.Type, order.Status, order.Total, order.Date, nullIfEmpty(string(order.PaymentMethod)), order.BranchName)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = xid.New("item")
		}
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, size, price, cost, qty, parent_item_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, item.ID, order.ID, nullIfEmpty(item.MenuItemID), item.Name, nullIfEmpty(string(item.Size)), item.Price, item.Cost, item.Quantity, nullIfEmpty(item.ParentItemID))
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) GetOrderByBillNumber(ctx context.Context, billNumber int64) (*domain.CompletedOrder, error) {
	order, err := s.scanOrder(ctx, s.db.QueryRowContext(ctx, `
		SELECT id, bill_number, order_type, status, total, order_date, payment_method, branch_name, deletion_reason, deleted_at
		FROM orders
		WHERE bill_number = $1
	`, billNumber))
	if err != nil {
		return nil, err
	}

	items, err := s.loadOrderItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (s *Store) scanOrder(_ context.Context, row rowScanner) (*domain.CompletedOrder, error) {
	var order domain.CompletedOrder
	var payment sql.NullString
	var deletionReason sql.NullString
	var deletedAt sql.NullTime
	err := row.Scan(&order.ID, &order.BillNumber, &order.Type, &order.Status, &order.Total,
		&order.Date, &payment, &order.BranchName, &deletionReason, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	order.Date = order.Date.UTC()
	if payment.Valid {
		order.PaymentMethod = domain.PaymentMethod(payment.String)
	}
	if deletedAt.Valid {
		order.DeletionInfo = &domain.DeletionInfo{
			Reason: deletionReason.String,
			Date:   deletedAt.Time.UTC(),
		}
	}
	return &order, nil
}

func (s *Store) loadOrderItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	result := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, name, size, price, cost, qty, parent_item_id
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var orderID string
		var menuItemID, size, parentItemID sql.NullString
		if err := rows.Scan(&item.ID, &orderID, &menuItemID, &item.Name, &size, &item.Price, &item.Cost, &item.Quantity, &parentItemID); err != nil {
			return nil, err
		}
		item.MenuItemID = menuItemID.String
		item.Size = domain.Size(size.String)
		item.ParentItemID = parentItemID.String
		result[orderID] = append(result[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListOrders(ctx context.Context, filter store.OrderFilter) ([]domain.CompletedOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_number, order_type, status, total, order_date, payment_method, branch_name, deletion_reason, deleted_at
		FROM orders
		WHERE (deleted_at IS NOT NULL) = $1
			AND ($2::timestamptz IS NULL OR order_date >= $2)
			AND ($3::timestamptz IS NULL OR order_date <= $3)
			AND ($4 = '' OR branch_name = $4)
		ORDER BY bill_number DESC
	`, filter.Deleted, nullDate(filter.From), nullDate(filter.To), filter.BranchName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.CompletedOrder, 0, 64)
	orderIDs := make([]string, 0, 64)
	for rows.Next() {
		order, err := s.scanOrder(ctx, rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.loadOrderItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (s *Store) VoidOrder(ctx context.Context, billNumber int64, reason string, at time.Time) (*domain.CompletedOrder, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var orderID string
	var deletedAt sql.NullTime
	err = pgTx.QueryRowContext(ctx, `
		SELECT id, deleted_at
		FROM orders
		WHERE bill_number = $1
		FOR UPDATE
	`, billNumber).Scan(&orderID, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if deletedAt.Valid {
		return nil, store.ErrInvalidOrder
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE orders
		SET deletion_reason = $2, deleted_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, orderID, reason, at)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetOrderByBillNumber(ctx, billNumber)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2
		WHERE id = $1
	`, orderID, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) PeekNextBillNumber(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM bill_counter WHERE id = 1`).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 1, nil
		}
		return 0, err
	}
	return value + 1, nil
}

// --- materials ---

func (s *Store) ListCentralMaterials(ctx context.Context) ([]domain.CentralMaterial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, category, current_stock, is_finished, last_purchase_cost, last_purchase_date
		FROM central_materials
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := make([]domain.CentralMaterial, 0, 32)
	for rows.Next() {
		material, err := scanCentralMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *material)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

func scanCentralMaterial(row rowScanner) (*domain.CentralMaterial, error) {
	var material domain.CentralMaterial
	var lastPurchase sql.NullTime
	err := row.Scan(&material.ID, &material.Name, &material.Unit, &material.Category,
		&material.CurrentStock, &material.IsFinished, &material.LastPurchaseCost, &lastPurchase)
	if err != nil {
		return nil, err
	}
	if lastPurchase.Valid {
		t := lastPurchase.Time.UTC()
		material.LastPurchaseDate = &t
	}
	return &material, nil
}

func (s *Store) GetCentralMaterial(ctx context.Context, id string) (*domain.CentralMaterial, error) {
	material, err := scanCentralMaterial(s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, category, current_stock, is_finished, last_purchase_cost, last_purchase_date
		FROM central_materials
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return material, nil
}

func (s *Store) UpsertCentralMaterial(ctx context.Context, material domain.CentralMaterial) (*domain.CentralMaterial, error) {
	if material.ID == "" || material.Name == "" || material.Unit == "" {
		return nil, store.ErrInvalidOrder
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO central_materials (id, name, unit, category, current_stock, is_finished, last_purchase_cost, last_purchase_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit, category = EXCLUDED.category,
			updated_at = now()
	`, material.ID, material.Name, material.Unit, material.Category, material.CurrentStock,
		material.IsFinished, material.LastPurchaseCost, nullTimePtr(material.LastPurchaseDate))
	if err != nil {
		return nil, err
	}

	saved := material
	return &saved, nil
}

func (s *Store) RecordPurchase(ctx context.Context, entry domain.ProcurementEntry) (*domain.ProcurementEntry, error) {
	if entry.ItemID == "" || !entry.Quantity.IsPositive() {
		return nil, store.ErrInvalidOrder
	}
	if entry.ID == "" {
		entry.ID = xid.New("proc")
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	err = pgTx.QueryRowContext(ctx, `
		SELECT name, unit
		FROM central_materials
		WHERE id = $1
		FOR UPDATE
	`, entry.ItemID).Scan(&entry.ItemName, &entry.Unit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE central_materials
		SET current_stock = current_stock + $2,
			last_purchase_cost = $3,
			last_purchase_date = $4,
			is_finished = false,
			updated_at = now()
		WHERE id = $1
	`, entry.ItemID, entry.Quantity, entry.TotalCost, entry.Date)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO procurements (id, item_id, item_name, quantity, unit, total_cost, vendor, entry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ItemID, entry.ItemName, entry.Quantity, entry.Unit, entry.TotalCost, entry.Vendor, entry.Date)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	saved := entry
	return &saved, nil
}

func (s *Store) AllocateStock(ctx context.Context, materialID string, stationName string, qty decimal.Decimal, at time.Time) (*domain.StockAllocation, error) {
	if materialID == "" || stationName == "" || !qty.IsPositive() {
		return nil, store.ErrInvalidOrder
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var name, unit string
	var category domain.MaterialCategory
	var currentStock decimal.Decimal
	err = pgTx.QueryRowContext(ctx, `
		SELECT name, unit, category, current_stock
		FROM central_materials
		WHERE id = $1
		FOR UPDATE
	`, materialID).Scan(&name, &unit, &category, &currentStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if currentStock.LessThan(qty) {
		return nil, store.ErrInsufficientStock
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE central_materials
		SET current_stock = current_stock - $2, updated_at = now()
		WHERE id = $1
	`, materialID, qty)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO branch_materials (material_id, branch_name, name, unit, category, current_stock, is_finished, request_pending, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,false,false,now())
		ON CONFLICT (material_id, branch_name)
		DO UPDATE SET current_stock = branch_materials.current_stock + EXCLUDED.current_stock,
			is_finished = false, request_pending = false, updated_at = now()
	`, materialID, stationName, name, unit, category, qty)
	if err != nil {
		return nil, err
	}

	allocation := domain.StockAllocation{
		ID:           xid.New("alloc"),
		MaterialID:   materialID,
		MaterialName: name,
		StationName:  stationName,
		Quantity:     qty,
		Unit:         unit,
		Date:         at,
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO allocations (id, material_id, material_name, station_name, quantity, unit, entry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, allocation.ID, allocation.MaterialID, allocation.MaterialName, allocation.StationName, allocation.Quantity, allocation.Unit, allocation.Date)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (s *Store) DeductBranchStock(ctx context.Context, branchName string, materialID string, qty decimal.Decimal) error {
	// Single upsert keyed on central metadata: updates the branch row
	// when present, otherwise lazily seeds it at minus the consumed
	// quantity. No rows means the central material does not exist.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO branch_materials (material_id, branch_name, name, unit, category, current_stock, is_finished, request_pending, updated_at)
		SELECT id, $2, name, unit, category, -($3::numeric), false, false, now()
		FROM central_materials
		WHERE id = $1
		ON CONFLICT (material_id, branch_name)
		DO UPDATE SET current_stock = branch_materials.current_stock + EXCLUDED.current_stock,
			updated_at = now()
	`, materialID, branchName, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListBranchMaterials(ctx context.Context, branchName string) ([]domain.BranchMaterial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT material_id, branch_name, name, unit, category, current_stock, is_finished, request_pending
		FROM branch_materials
		WHERE branch_name = $1
		ORDER BY name
	`, branchName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := make([]domain.BranchMaterial, 0, 32)
	for rows.Next() {
		var m domain.BranchMaterial
		if err := rows.Scan(&m.ID, &m.BranchName, &m.Name, &m.Unit, &m.Category, &m.CurrentStock, &m.IsFinished, &m.RequestPending); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

func (s *Store) SetCentralFinished(ctx context.Context, materialID string, finished bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE central_materials
		SET is_finished = $2, current_stock = $3, updated_at = now()
		WHERE id = $1
	`, materialID, finished, finishedStock(finished))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetBranchFinished(ctx context.Context, materialID string, branchName string, finished bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE branch_materials
		SET is_finished = $3, current_stock = $4, updated_at = now()
		WHERE material_id = $1 AND branch_name = $2
	`, materialID, branchName, finished, finishedStock(finished))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func finishedStock(finished bool) decimal.Decimal {
	if finished {
		return decimal.Zero
	}
	return decimal.NewFromInt(1)
}

func (s *Store) SetRestockRequested(ctx context.Context, materialID string, branchName string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE branch_materials
		SET request_pending = true, updated_at = now()
		WHERE material_id = $1 AND branch_name = $2
	`, materialID, branchName)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProcurements(ctx context.Context, from time.Time, to time.Time) ([]domain.ProcurementEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, item_name, quantity, unit, total_cost, vendor, entry_date
		FROM procurements
		WHERE ($1::timestamptz IS NULL OR entry_date >= $1)
			AND ($2::timestamptz IS NULL OR entry_date <= $2)
		ORDER BY entry_date DESC
	`, nullDate(from), nullDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ProcurementEntry, 0, 64)
	for rows.Next() {
		var entry domain.ProcurementEntry
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.ItemName, &entry.Quantity, &entry.Unit, &entry.TotalCost, &entry.Vendor, &entry.Date); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) ListAllocations(ctx context.Context, from time.Time, to time.Time) ([]domain.StockAllocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, material_id, material_name, station_name, quantity, unit, entry_date
		FROM allocations
		WHERE ($1::timestamptz IS NULL OR entry_date >= $1)
			AND ($2::timestamptz IS NULL OR entry_date <= $2)
		ORDER BY entry_date DESC
	`, nullDate(from), nullDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.StockAllocation, 0, 64)
	for rows.Next() {
		var entry domain.StockAllocation
		if err := rows.Scan(&entry.ID, &entry.MaterialID, &entry.MaterialName, &entry.StationName, &entry.Quantity, &entry.Unit, &entry.Date); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// --- stations ---

func (s *Store) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(location, '')
		FROM stations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]domain.Station, 0, 8)
	for rows.Next() {
		var station domain.Station
		if err := rows.Scan(&station.ID, &station.Name, &station.Location); err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *Store) CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error) {
	if station.Name == "" {
		return nil, store.ErrInvalidOrder
	}
	if station.ID == "" {
		station.ID = xid.New("st")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stations (id, name, location, created_at)
		VALUES ($1,$2,$3,now())
	`, station.ID, station.Name, nullIfEmpty(station.Location))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidOrder
		}
		return nil, err
	}

	created := station
	return &created, nil
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidOrder
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, station_name, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.Username, user.Password, user.Role, nullIfEmpty(user.StationName), user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidOrder
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, COALESCE(station_name, ''), active, created_at
		FROM app_users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.StationName, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseopener/internal/model"
)

// InventoryRepository reads user inventories. All writes happen through
// SettlementRepository so a credit can never land outside a settlement
// transaction.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository creates a new InventoryRepository instance.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// ListByUser returns the user's inventory joined with catalog details,
// highest value first.
func (r *InventoryRepository) ListByUser(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	const query = `
		SELECT inv.item_id, i.name, i.value, i.rarity, inv.quantity
		FROM inventory_items inv
		JOIN items i ON i.id = inv.item_id
		WHERE inv.user_id = $1 AND inv.quantity > 0
		ORDER BY i.value DESC, i.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Value, &it.Rarity, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}
	return items, nil
}

// GetQuantity returns the user's quantity of a single item, 0 if absent.
func (r *InventoryRepository) GetQuantity(ctx context.Context, userID, itemID int64) (int64, error) {
	const query = `
		SELECT COALESCE(
			(SELECT quantity FROM inventory_items WHERE user_id = $1 AND item_id = $2), 0)
	`

	var qty int64
	if err := r.pool.QueryRow(ctx, query, userID, itemID).Scan(&qty); err != nil {
		return 0, fmt.Errorf("failed to get quantity: %w", err)
	}
	return qty, nil
}

// TotalValue returns the summed catalog value of the user's inventory.
func (r *InventoryRepository) TotalValue(ctx context.Context, userID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(i.value * inv.quantity), 0)
		FROM inventory_items inv
		JOIN items i ON i.id = inv.item_id
		WHERE inv.user_id = $1
	`

	var total int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to compute inventory value: %w", err)
	}
	return total, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseopener/internal/model"
)

// ItemRepository handles the global item catalog.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository instance.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// Upsert inserts a catalog item by unique name, updating value and rarity if
// it already exists. Returns the stored item with its id.
func (r *ItemRepository) Upsert(ctx context.Context, item model.Item) (*model.Item, error) {
	const query = `
		INSERT INTO items (name, value, rarity, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name)
		DO UPDATE SET value = EXCLUDED.value, rarity = EXCLUDED.rarity
		RETURNING id, name, value, rarity, created_at
	`

	var stored model.Item
	err := r.pool.QueryRow(ctx, query, item.Name, item.Value, item.Rarity).Scan(
		&stored.ID,
		&stored.Name,
		&stored.Value,
		&stored.Rarity,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert item: %w", err)
	}
	return &stored, nil
}

// List returns the full item catalog ordered by id, so pool construction
// sees a stable item order.
func (r *ItemRepository) List(ctx context.Context) ([]model.Item, error) {
	const query = `
		SELECT id, name, value, rarity, created_at
		FROM items
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Value, &it.Rarity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

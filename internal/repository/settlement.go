package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseopener/internal/model"
)

// SettlementRepository owns the transactional steps of a settlement: the
// balance debit, the inventory credit and the audit insert. All three run on
// the same pgx.Tx via WithTx, so either every step commits or none does.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository instance.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// WithTx runs fn inside a database transaction. Any error from fn, or from
// the commit itself, rolls the transaction back completely.
func (r *SettlementRepository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LockAccount loads a user account with a row lock held for the rest of the
// transaction. Concurrent settlements for the same user queue here, so the
// balance check and debit that follow are serialized per user.
func (r *SettlementRepository) LockAccount(ctx context.Context, tx pgx.Tx, userID int64) (*model.UserAccount, error) {
	const query = `
		SELECT id, username, balance, total_spent, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	var u model.UserAccount
	err := tx.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Username,
		&u.Balance,
		&u.TotalSpent,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &u, nil
}

// DebitAccount subtracts the case price from the locked account and advances
// total_spent. The WHERE guard re-checks sufficiency so the balance cannot
// go negative even if a caller skips the check under LockAccount.
func (r *SettlementRepository) DebitAccount(ctx context.Context, tx pgx.Tx, userID, price int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := tx.QueryRow(ctx, query, userID, price).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}
	return balance, nil
}

// CreditItem increments the user's stack of an item by one, creating the
// entry if absent. Returns the new quantity.
func (r *SettlementRepository) CreditItem(ctx context.Context, tx pgx.Tx, userID, itemID int64) (int64, error) {
	const query = `
		INSERT INTO inventory_items (user_id, item_id, quantity, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = inventory_items.quantity + 1, updated_at = NOW()
		RETURNING quantity
	`

	var quantity int64
	if err := tx.QueryRow(ctx, query, userID, itemID).Scan(&quantity); err != nil {
		return 0, fmt.Errorf("failed to credit item: %w", err)
	}
	return quantity, nil
}

// LookupItem reads a catalog item inside the settlement transaction so the
// receipt reflects the same snapshot the credit was applied against.
func (r *SettlementRepository) LookupItem(ctx context.Context, tx pgx.Tx, itemID int64) (*model.Item, error) {
	const query = `SELECT id, name, value, rarity, created_at FROM items WHERE id = $1`

	var it model.Item
	err := tx.QueryRow(ctx, query, itemID).Scan(&it.ID, &it.Name, &it.Value, &it.Rarity, &it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}
	return &it, nil
}

// RecordDraw appends the draw audit record.
func (r *SettlementRepository) RecordDraw(ctx context.Context, tx pgx.Tx, rec *model.DrawRecord) (*model.DrawRecord, error) {
	const query = `
		INSERT INTO draw_records (user_id, case_id, case_name, case_version, item_id, sampled, total_weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	stored := *rec
	err := tx.QueryRow(ctx, query,
		rec.UserID, rec.CaseID, rec.CaseName, rec.CaseVersion,
		rec.ItemID, rec.Sampled, rec.TotalWeight,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record draw: %w", err)
	}
	return &stored, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"caseopener/internal/model"
)

// DrawRecordRepository reads the append-only draw audit log. Records are
// only ever written inside a settlement transaction (SettlementRepository);
// there is no update or delete path.
type DrawRecordRepository struct {
	pool *pgxpool.Pool
}

// NewDrawRecordRepository creates a new DrawRecordRepository instance.
func NewDrawRecordRepository(pool *pgxpool.Pool) *DrawRecordRepository {
	return &DrawRecordRepository{pool: pool}
}

// ListByUser returns the user's acquisition history, newest first.
func (r *DrawRecordRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.AcquisitionEvent, error) {
	const query = `
		SELECT d.id, d.case_id, d.case_name, d.item_id, i.name, i.rarity, i.value, d.created_at
		FROM draw_records d
		JOIN items i ON i.id = d.item_id
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draw records: %w", err)
	}
	defer rows.Close()

	var events []model.AcquisitionEvent
	for rows.Next() {
		var ev model.AcquisitionEvent
		err := rows.Scan(
			&ev.ID,
			&ev.CaseID,
			&ev.CaseName,
			&ev.ItemID,
			&ev.ItemName,
			&ev.Rarity,
			&ev.Value,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw record: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draw records: %w", err)
	}
	return events, nil
}

// CountByUser returns how many draws the user has settled.
func (r *DrawRecordRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM draw_records WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draw records: %w", err)
	}
	return count, nil
}

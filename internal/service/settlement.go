// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"caseopener/internal/cases"
	"caseopener/internal/draw"
	"caseopener/internal/model"
	"caseopener/internal/pkg/lock"
	"caseopener/internal/repository"
)

// Settlement errors. ErrUnknownCase and ErrEmptyPool surface from the
// registry and draw engine; these cover the account side.
var (
	ErrUnknownUser       = errors.New("unknown user")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorage           = errors.New("storage failure")
)

// storageErr tags a persistence error as retryable-by-caller. Safe to retry
// only because a failed settlement is fully rolled back.
func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Receipt describes a committed settlement: the debit, the credited item
// with its new stack size, and the audit record of the draw.
type Receipt struct {
	UserID      int64
	CaseID      int64
	CaseName    string
	CaseVersion int64
	Price       int64
	NewBalance  int64
	TotalSpent  int64
	Item        model.Item
	Quantity    int64
	Draw        *model.DrawRecord
}

// SettlementService performs the atomic open-case operation: debit the case
// price, draw an item, credit it to the inventory and append the audit
// record, all inside one database transaction.
type SettlementService struct {
	registry   *cases.Registry
	engine     *draw.Engine
	settleRepo *repository.SettlementRepository
	userLock   *lock.UserLock
}

// NewSettlementService creates a new SettlementService instance.
func NewSettlementService(
	registry *cases.Registry,
	engine *draw.Engine,
	settleRepo *repository.SettlementRepository,
	userLock *lock.UserLock,
) *SettlementService {
	return &SettlementService{
		registry:   registry,
		engine:     engine,
		settleRepo: settleRepo,
		userLock:   userLock,
	}
}

// OpenCase opens the given case for the user and settles the outcome.
//
// Failure modes: cases.ErrUnknownCase, ErrUnknownUser, ErrInsufficientFunds
// (all rejected before any mutation), draw.ErrEmptyPool (defensive), and
// ErrStorage wrapping persistence errors. On any failure the transaction is
// rolled back: no debit, no credit and no audit record survive.
func (s *SettlementService) OpenCase(ctx context.Context, userID, caseID int64) (*Receipt, error) {
	c, err := s.registry.Resolve(caseID)
	if err != nil {
		return nil, err
	}

	// Serialize same-user settlements; different users proceed in parallel.
	// The row lock taken inside the transaction is the hard guarantee.
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	var receipt *Receipt
	err = s.settleRepo.WithTx(ctx, func(tx pgx.Tx) error {
		account, err := s.settleRepo.LockAccount(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrUnknownUser
			}
			return storageErr(err)
		}

		if account.Balance < c.Price {
			return ErrInsufficientFunds
		}

		newBalance, err := s.settleRepo.DebitAccount(ctx, tx, userID, c.Price)
		if err != nil {
			return storageErr(err)
		}

		result, err := s.engine.Draw(c.Pool)
		if err != nil {
			return err
		}

		quantity, err := s.settleRepo.CreditItem(ctx, tx, userID, result.Entry.ItemID)
		if err != nil {
			return storageErr(err)
		}

		record, err := s.settleRepo.RecordDraw(ctx, tx, &model.DrawRecord{
			UserID:      userID,
			CaseID:      c.ID,
			CaseName:    c.Name,
			CaseVersion: c.Version,
			ItemID:      result.Entry.ItemID,
			Sampled:     result.Sampled,
			TotalWeight: result.TotalWeight,
		})
		if err != nil {
			return storageErr(err)
		}

		item, err := s.settleRepo.LookupItem(ctx, tx, result.Entry.ItemID)
		if err != nil {
			return storageErr(err)
		}

		receipt = &Receipt{
			UserID:      userID,
			CaseID:      c.ID,
			CaseName:    c.Name,
			CaseVersion: c.Version,
			Price:       c.Price,
			NewBalance:  newBalance,
			TotalSpent:  account.TotalSpent + c.Price,
			Item:        *item,
			Quantity:    quantity,
			Draw:        record,
		}
		return nil
	})
	if err != nil {
		// Begin/commit failures come back untagged; classify them as
		// storage errors alongside everything already wrapped.
		switch {
		case errors.Is(err, ErrUnknownUser),
			errors.Is(err, ErrInsufficientFunds),
			errors.Is(err, draw.ErrEmptyPool),
			errors.Is(err, ErrStorage):
			return nil, err
		default:
			return nil, storageErr(err)
		}
	}

	log.Info().
		Int64("user_id", userID).
		Int64("case_id", c.ID).
		Int64("case_version", c.Version).
		Int64("item_id", receipt.Item.ID).
		Int64("sampled", receipt.Draw.Sampled).
		Int64("price", c.Price).
		Int64("balance", receipt.NewBalance).
		Msg("Case settled")

	return receipt, nil
}

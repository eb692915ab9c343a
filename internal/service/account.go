package service

import (
	"context"
	"errors"
	"fmt"

	"caseopener/internal/model"
	"caseopener/internal/repository"
)

// AccountSummary aggregates the read model for a profile page: the account,
// the inventory's catalog value and the profit/loss against total spending.
type AccountSummary struct {
	Account        *model.UserAccount
	InventoryValue int64
	ItemCount      int64
	ROI            int64
}

// AccountService handles account and inventory reads. It never mutates
// balances or inventories; those belong to the settlement transaction.
type AccountService struct {
	userRepo      *repository.UserRepository
	inventoryRepo *repository.InventoryRepository
	drawRepo      *repository.DrawRecordRepository
	historyLimit  int
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	userRepo *repository.UserRepository,
	inventoryRepo *repository.InventoryRepository,
	drawRepo *repository.DrawRecordRepository,
	historyLimit int,
) *AccountService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &AccountService{
		userRepo:      userRepo,
		inventoryRepo: inventoryRepo,
		drawRepo:      drawRepo,
		historyLimit:  historyLimit,
	}
}

// Summary returns the account with its inventory value and ROI.
func (s *AccountService) Summary(ctx context.Context, userID int64) (*AccountSummary, error) {
	account, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, storageErr(err)
	}

	value, err := s.inventoryRepo.TotalValue(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}

	items, err := s.inventoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	var count int64
	for _, it := range items {
		count += it.Quantity
	}

	return &AccountSummary{
		Account:        account,
		InventoryValue: value,
		ItemCount:      count,
		ROI:            value - account.TotalSpent,
	}, nil
}

// Inventory returns the user's inventory with catalog details.
func (s *AccountService) Inventory(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !exists {
		return nil, ErrUnknownUser
	}

	items, err := s.inventoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// History returns the user's acquisition feed, newest first.
func (s *AccountService) History(ctx context.Context, userID int64) ([]model.AcquisitionEvent, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !exists {
		return nil, ErrUnknownUser
	}

	events, err := s.drawRepo.ListByUser(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, storageErr(err)
	}
	return events, nil
}

// Register creates a new account with a zero balance.
func (s *AccountService) Register(ctx context.Context, username string) (*model.UserAccount, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	account, err := s.userRepo.Create(ctx, username, 0)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, storageErr(err)
	}
	return account, nil
}

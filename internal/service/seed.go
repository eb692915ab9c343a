package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"caseopener/internal/cases"
	"caseopener/internal/config"
	"caseopener/internal/model"
	"caseopener/internal/repository"
)

// Seeder runs the one-time startup initialization: it syncs the item
// catalog, publishes the case catalog into a fresh registry and ensures the
// demo account exists. The core takes the resulting registry as an explicit
// dependency; nothing global survives this routine.
type Seeder struct {
	userRepo *repository.UserRepository
	itemRepo *repository.ItemRepository
}

// NewSeeder creates a new Seeder instance.
func NewSeeder(userRepo *repository.UserRepository, itemRepo *repository.ItemRepository) *Seeder {
	return &Seeder{userRepo: userRepo, itemRepo: itemRepo}
}

// Run seeds storage and returns the populated case registry.
func (s *Seeder) Run(ctx context.Context, cfg *config.SeedConfig) (*cases.Registry, error) {
	for _, item := range cases.SeedItems() {
		if _, err := s.itemRepo.Upsert(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to seed item %q: %w", item.Name, err)
		}
	}

	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item catalog: %w", err)
	}

	registry, err := BuildRegistry(items)
	if err != nil {
		return nil, err
	}

	if err := s.ensureDemoUser(ctx, cfg); err != nil {
		return nil, err
	}

	log.Info().
		Int("items", len(items)).
		Int("cases", registry.Count()).
		Msg("Seed completed")

	return registry, nil
}

// BuildRegistry publishes the built-in case catalog against an item
// catalog. Split out so tests can build a registry from arbitrary items.
func BuildRegistry(items []model.Item) (*cases.Registry, error) {
	registry := cases.NewRegistry()
	for _, def := range cases.CatalogDefs() {
		c, err := cases.BuildCase(def, items)
		if err != nil {
			return nil, fmt.Errorf("failed to build case catalog: %w", err)
		}
		if err := registry.Publish(c); err != nil {
			return nil, fmt.Errorf("failed to publish case %d: %w", def.ID, err)
		}
	}
	return registry, nil
}

// ensureDemoUser creates the configured demo account if it is absent.
func (s *Seeder) ensureDemoUser(ctx context.Context, cfg *config.SeedConfig) error {
	if cfg == nil || cfg.DemoUsername == "" {
		return nil
	}

	_, err := s.userRepo.GetByUsername(ctx, cfg.DemoUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}

	user, err := s.userRepo.Create(ctx, cfg.DemoUsername, cfg.DemoBalance)
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Int64("balance", user.Balance).
		Msg("Demo user created")
	return nil
}

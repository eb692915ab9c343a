// Package model defines the data models for the case opening service.
package model

import "time"

// UserAccount represents a player account holding virtual currency.
// Balance is kept in whole currency units and must never go negative;
// TotalSpent accumulates the price of every case the user has opened.
type UserAccount struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	Balance    int64     `db:"balance"`
	TotalSpent int64     `db:"total_spent"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Item is a droppable item from the global catalog.
type Item struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Value     int64     `db:"value"`
	Rarity    string    `db:"rarity"`
	CreatedAt time.Time `db:"created_at"`
}

// InventoryEntry is the per-user stack of a single item.
// Unique per (user_id, item_id); quantity only moves through atomic
// increments inside a settlement.
type InventoryEntry struct {
	UserID    int64     `db:"user_id"`
	ItemID    int64     `db:"item_id"`
	Quantity  int64     `db:"quantity"`
	UpdatedAt time.Time `db:"updated_at"`
}

// InventoryItem joins an inventory entry with its catalog item for display.
type InventoryItem struct {
	ItemID   int64  `db:"item_id"`
	Name     string `db:"name"`
	Value    int64  `db:"value"`
	Rarity   string `db:"rarity"`
	Quantity int64  `db:"quantity"`
}

// DrawRecord is the immutable audit record of a single draw. It stores the
// raw sampled value alongside the pool's total weight at draw time so any
// outcome can be re-verified later. Rows are append-only.
type DrawRecord struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	CaseID      int64     `db:"case_id"`
	CaseName    string    `db:"case_name"`
	CaseVersion int64     `db:"case_version"`
	ItemID      int64     `db:"item_id"`
	Sampled     int64     `db:"sampled"`
	TotalWeight int64     `db:"total_weight"`
	CreatedAt   time.Time `db:"created_at"`
}

// AcquisitionEvent is a draw record joined with case and item details,
// used for the profile history feed.
type AcquisitionEvent struct {
	ID        int64     `db:"id"`
	CaseID    int64     `db:"case_id"`
	CaseName  string    `db:"case_name"`
	ItemID    int64     `db:"item_id"`
	ItemName  string    `db:"item_name"`
	Rarity    string    `db:"rarity"`
	Value     int64     `db:"value"`
	CreatedAt time.Time `db:"created_at"`
}

// Rarity tiers, lowest to highest. Tier names match the item catalog.
const (
	RarityCommon          = "common"
	RarityUncommon        = "uncommon"
	RarityRare            = "rare"
	RarityMythical        = "mythical"
	RarityLegendary       = "legendary"
	RarityAncient         = "ancient"
	RarityExceedinglyRare = "exceedinglyrare"
	RarityImmortal        = "immortal"
	RarityUnique          = "unique"
)

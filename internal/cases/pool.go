// Package cases defines weighted rarity pools, case definitions and the
// registry that resolves a case id to an immutable, version-tagged snapshot.
package cases

import (
	"errors"
	"fmt"
)

// Validation and lookup errors.
var (
	ErrUnknownCase       = errors.New("unknown case")
	ErrInvalidDefinition = errors.New("invalid case definition")
)

// Entry is a single drop candidate in a rarity pool. Weight is relative to
// the other entries; weights need not sum to anything in particular.
type Entry struct {
	ItemID int64
	Weight int64
	Rarity string
}

// Pool is an ordered sequence of entries. Entry order is significant: the
// draw walk accumulates weights in this order, so order decides ties at
// exact cumulative boundaries. A published pool is never mutated.
type Pool struct {
	entries []Entry
	total   int64
}

// NewPool validates the entries and returns a pool with its total weight
// precomputed. The entries slice is copied so later mutation by the caller
// cannot affect a published pool.
func NewPool(entries []Entry) (*Pool, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: pool has no entries", ErrInvalidDefinition)
	}

	var total int64
	for i, e := range entries {
		if e.Weight <= 0 {
			return nil, fmt.Errorf("%w: entry %d (item %d) has non-positive weight %d",
				ErrInvalidDefinition, i, e.ItemID, e.Weight)
		}
		total += e.Weight
	}

	copied := make([]Entry, len(entries))
	copy(copied, entries)

	return &Pool{entries: copied, total: total}, nil
}

// Entries returns the pool's entries in draw order.
// The returned slice must not be modified.
func (p *Pool) Entries() []Entry {
	return p.entries
}

// TotalWeight returns the sum of all entry weights.
func (p *Pool) TotalWeight() int64 {
	return p.total
}

// Len returns the number of entries in the pool.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Case is a purchasable case: a price plus the pool its opening draws from.
// Version is bumped by the registry every time the definition is republished
// so in-flight draws always reference a consistent snapshot.
type Case struct {
	ID      int64
	Name    string
	Price   int64
	Pool    *Pool
	Version int64
}

// validate checks the publish-time invariants for a case definition.
func (c *Case) validate() error {
	if c.Price < 0 {
		return fmt.Errorf("%w: case %d has negative price %d", ErrInvalidDefinition, c.ID, c.Price)
	}
	if c.Pool == nil || c.Pool.Len() == 0 {
		return fmt.Errorf("%w: case %d has no pool", ErrInvalidDefinition, c.ID)
	}
	return nil
}

// Package draw implements the weighted random draw over a rarity pool.
// The engine has no side effects: it reads a pool, samples once and returns
// the outcome together with the raw sample for auditing.
package draw

import (
	"errors"
	"math/rand/v2"
	"time"

	"caseopener/internal/cases"
)

// ErrEmptyPool is returned when a draw is attempted against a pool with no
// entries. Publish-time validation makes this unreachable for registry
// cases; the check guards direct callers.
var ErrEmptyPool = errors.New("empty pool")

// Source produces a uniform random integer in [0, n). It is injected so
// draws are reproducible in tests.
type Source interface {
	Int64N(n int64) int64
}

// Result is the audit trail of a single draw: the raw sample, the total
// weight it was taken over, and the entry the cumulative walk landed on.
type Result struct {
	Entry       cases.Entry
	Index       int
	Sampled     int64
	TotalWeight int64
	DrawnAt     time.Time
}

// Engine performs draws against rarity pools using an injected Source.
type Engine struct {
	src Source
}

// New creates an Engine using the given random source.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// NewSeeded creates an Engine backed by a PCG generator with the given
// seed. Used in tests and anywhere reproducibility matters.
func NewSeeded(seed uint64) *Engine {
	return &Engine{src: rand.New(rand.NewPCG(seed, seed))}
}

// Default creates an Engine backed by the shared, properly seeded
// process-wide generator.
func Default() *Engine {
	return &Engine{src: defaultSource{}}
}

type defaultSource struct{}

func (defaultSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// Draw samples a single entry from the pool. The sample x is uniform over
// [0, totalWeight); the walk selects the first entry whose cumulative weight
// exceeds x, so each entry owns the half-open interval
// [cumulativeBefore, cumulativeBefore+weight) and every x maps to exactly
// one entry. A sample landing exactly on a boundary belongs to the later
// entry, since the interval is open on the right.
func (e *Engine) Draw(pool *cases.Pool) (*Result, error) {
	if pool == nil || pool.Len() == 0 {
		return nil, ErrEmptyPool
	}

	total := pool.TotalWeight()
	x := e.src.Int64N(total)

	return e.at(pool, x, total)
}

// DrawAt resolves the entry a given sample lands on without consuming
// randomness. Exposed for audit verification: replaying a recorded sample
// against the recorded case version must reproduce the recorded item.
func (e *Engine) DrawAt(pool *cases.Pool, x int64) (*Result, error) {
	if pool == nil || pool.Len() == 0 {
		return nil, ErrEmptyPool
	}
	total := pool.TotalWeight()
	if x < 0 || x >= total {
		return nil, errors.New("sample out of range")
	}
	return e.at(pool, x, total)
}

func (e *Engine) at(pool *cases.Pool, x, total int64) (*Result, error) {
	var cumulative int64
	entries := pool.Entries()
	for i, entry := range entries {
		cumulative += entry.Weight
		if x < cumulative {
			return &Result{
				Entry:       entry,
				Index:       i,
				Sampled:     x,
				TotalWeight: total,
				DrawnAt:     time.Now(),
			}, nil
		}
	}

	// Unreachable: x < total and the cumulative sum ends at total.
	return nil, errors.New("draw walk exhausted pool")
}

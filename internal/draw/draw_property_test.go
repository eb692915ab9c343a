// Property-based tests for the weighted draw walk.
package draw

import (
	"testing"

	"pgregory.net/rapid"

	"caseopener/internal/cases"
)

// TestDrawSelectsExactlyOneEntryProperty checks that for any valid pool and
// any sample in [0, totalWeight), the walk selects exactly one entry and
// that entry's interval contains the sample: the cumulative weight before
// the entry is <= x and the cumulative weight including it is > x.
func TestDrawSelectsExactlyOneEntryProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		weights := rapid.SliceOfN(rapid.Int64Range(1, 10000), 1, 50).Draw(rt, "weights")

		entries := make([]cases.Entry, len(weights))
		for i, w := range weights {
			entries[i] = cases.Entry{ItemID: int64(i + 1), Weight: w}
		}
		pool, err := cases.NewPool(entries)
		if err != nil {
			rt.Fatalf("pool rejected valid weights: %v", err)
		}

		x := rapid.Int64Range(0, pool.TotalWeight()-1).Draw(rt, "sample")

		result, err := New(&fixedSource{values: []int64{x}}).Draw(pool)
		if err != nil {
			rt.Fatalf("draw failed: %v", err)
		}

		var before int64
		for i := 0; i < result.Index; i++ {
			before += weights[i]
		}
		after := before + weights[result.Index]

		if x < before || x >= after {
			rt.Fatalf("sample %d landed on entry %d owning [%d,%d)", x, result.Index, before, after)
		}
		if result.Entry.ItemID != int64(result.Index+1) {
			rt.Fatalf("entry/index mismatch: index %d, item %d", result.Index, result.Entry.ItemID)
		}
		if result.TotalWeight != pool.TotalWeight() {
			rt.Fatalf("recorded total weight %d, pool has %d", result.TotalWeight, pool.TotalWeight())
		}
	})
}

// TestDrawOrderBreaksTiesProperty checks the tie-break rule: at an exact
// cumulative boundary the sample belongs to the later entry, so reordering
// equal-weight entries changes which item wins a given sample.
func TestDrawOrderBreaksTiesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.Int64Range(1, 1000).Draw(rt, "weight")

		pool, err := cases.NewPool([]cases.Entry{
			{ItemID: 1, Weight: w},
			{ItemID: 2, Weight: w},
		})
		if err != nil {
			rt.Fatalf("pool rejected valid weights: %v", err)
		}

		// The boundary sample x == w is the first one outside entry 0.
		result, err := New(&fixedSource{values: []int64{w}}).Draw(pool)
		if err != nil {
			rt.Fatalf("draw failed: %v", err)
		}
		if result.Index != 1 {
			rt.Fatalf("boundary sample %d selected entry %d, want 1", w, result.Index)
		}

		result, err = New(&fixedSource{values: []int64{w - 1}}).Draw(pool)
		if err != nil {
			rt.Fatalf("draw failed: %v", err)
		}
		if result.Index != 0 {
			rt.Fatalf("sample %d selected entry %d, want 0", w-1, result.Index)
		}
	})
}

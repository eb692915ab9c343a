package service

import (
	"testing"

	"pgregory.net/rapid"
)

// settlementModel is the pure check-and-debit core of a settlement: reject
// when the price exceeds the balance, otherwise debit and credit exactly
// once. The properties below pin down conservation without storage.
type settlementModel struct {
	balance    int64
	totalSpent int64
	credits    int64
}

func (m *settlementModel) open(price int64) bool {
	if m.balance < price {
		return false
	}
	m.balance -= price
	m.totalSpent += price
	m.credits++
	return true
}

func TestSettlementConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 10_000).Draw(t, "initial")
		m := &settlementModel{balance: initial}

		attempts := rapid.IntRange(0, 200).Draw(t, "attempts")
		var succeeded, rejected int64
		var debited int64
		for i := 0; i < attempts; i++ {
			price := rapid.Int64Range(1, 500).Draw(t, "price")
			if m.open(price) {
				succeeded++
				debited += price
			} else {
				rejected++
			}
		}

		// Balance never goes negative.
		if m.balance < 0 {
			t.Fatalf("balance went negative: %d", m.balance)
		}

		// Every debit is accounted for: funds only move into totalSpent.
		if m.balance+m.totalSpent != initial {
			t.Fatalf("conservation violated: balance %d + spent %d != initial %d",
				m.balance, m.totalSpent, initial)
		}
		if m.totalSpent != debited {
			t.Fatalf("totalSpent %d != sum of successful prices %d", m.totalSpent, debited)
		}

		// Exactly one credit per successful settlement, none for rejections.
		if m.credits != succeeded {
			t.Fatalf("credits %d != successful settlements %d", m.credits, succeeded)
		}
		if succeeded+rejected != int64(attempts) {
			t.Fatalf("every attempt must either settle or reject")
		}
	})
}

// TestSettlementRejectionIsNoOpProperty checks a rejected settlement leaves
// the model untouched regardless of prior history.
func TestSettlementRejectionIsNoOpProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := &settlementModel{balance: rapid.Int64Range(0, 100).Draw(t, "balance")}
		price := rapid.Int64Range(m.balance+1, m.balance+1000).Draw(t, "price")

		before := *m
		if m.open(price) {
			t.Fatalf("settlement must reject when price %d > balance %d", price, before.balance)
		}
		if *m != before {
			t.Fatalf("rejected settlement mutated state: %+v -> %+v", before, *m)
		}
	})
}

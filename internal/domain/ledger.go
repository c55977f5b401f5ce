package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is one entry of a request's ledger. Seq is its 1-based position.
type Donation struct {
	Seq       int             `json:"seq"`
	DonorID   string          `json:"donor_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	DonatedAt time.Time       `json:"donated_at"`
}

// Ledger is the append-only record of donations toward one request.
// Entries are never reordered, edited or removed.
type Ledger struct {
	entries []Donation
}

// NewLedger replays stored entries, which must already be in seq order.
func NewLedger(entries []Donation) (Ledger, error) {
	l := Ledger{entries: make([]Donation, 0, len(entries))}
	for i, d := range entries {
		if d.Seq != i+1 {
			return Ledger{}, Errorf(KindInternal, "ledger entry %d has seq %d", i+1, d.Seq)
		}
		if err := validateQuantity(d.Quantity); err != nil {
			return Ledger{}, Errorf(KindInternal, "ledger entry %d has quantity %v", d.Seq, d.Quantity)
		}
		l.entries = append(l.entries, d)
	}
	return l, nil
}

func (l *Ledger) Append(donorID string, quantity decimal.Decimal, at time.Time) Donation {
	d := Donation{
		Seq:       len(l.entries) + 1,
		DonorID:   donorID,
		Quantity:  quantity,
		DonatedAt: at,
	}
	l.entries = append(l.entries, d)
	return d
}

func (l Ledger) Len() int {
	return len(l.entries)
}

func (l Ledger) Entries() []Donation {
	out := make([]Donation, len(l.entries))
	copy(out, l.entries)
	return out
}

// Total folds the ledger in insertion order. Decimal addition is exact, so
// replaying the same entries always yields the same sum.
func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.entries {
		total = total.Add(d.Quantity)
	}
	return total
}

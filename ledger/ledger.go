// Package ledger tracks dispense items staged locally against
// authoritative pill stock, so a user cannot stage more than remains
// available. The ledger is advisory: the hub re-validates stock at
// commit, and two sessions racing for the last unit are resolved there,
// not here.
package ledger

import (
	"fmt"

	"dispensecore/hub"
)

// PillResolver looks up a pill in the current authoritative lookup.
type PillResolver interface {
	PillByID(id int64) (hub.Pill, bool)
}

// StagedItem is one pill+quantity pairing added locally but not yet
// committed.
type StagedItem struct {
	PillID   int64  `json:"pill_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int64  `json:"quantity"`
}

// Ledger is an ordered list of staged items for one unsubmitted dispense
// session. Not safe for concurrent use; the owning session serializes
// access.
type Ledger struct {
	pills PillResolver
	items []StagedItem
}

func New(pills PillResolver) *Ledger {
	return &Ledger{pills: pills}
}

// AvailableFor returns the pill's remaining stock after subtracting
// staged quantities. The second return is false when no stock value is
// tracked for the pill, in which case no cap applies: "not tracked"
// rather than "out of stock".
func (l *Ledger) AvailableFor(pillID int64) (int64, bool) {
	p, ok := l.pills.PillByID(pillID)
	if !ok || p.Stock == nil {
		return 0, false
	}
	rem := *p.Stock - l.StagedFor(pillID)
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// StagedFor sums staged quantities for one pill.
func (l *Ledger) StagedFor(pillID int64) int64 {
	var total int64
	for _, it := range l.items {
		if it.PillID == pillID {
			total += it.Quantity
		}
	}
	return total
}

// AddItem stages qty units of a pill. Quantities clamp to at least 1.
// Liquid pills always stage exactly one dose: a repeat add is a no-op
// success, never an increment, and consumes no extra stock. Solid pills
// merge into an existing entry by incrementing its quantity. The add
// fails without changing the ledger when the pill is unknown or the
// quantity exceeds remaining availability.
func (l *Ledger) AddItem(pillID, qty int64) error {
	p, ok := l.pills.PillByID(pillID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPillNotFound, pillID)
	}
	if qty < 1 {
		qty = 1
	}
	if p.Type == hub.PillLiquid {
		if l.indexOf(pillID) >= 0 {
			return nil
		}
		qty = 1
	}

	if rem, limited := l.AvailableFor(pillID); limited && qty > rem {
		return fmt.Errorf("%w: %s has %d remaining, requested %d", ErrInsufficientStock, p.Name, rem, qty)
	}

	if i := l.indexOf(pillID); i >= 0 {
		l.items[i].Quantity += qty
		return nil
	}
	l.items = append(l.items, StagedItem{PillID: p.ID, Name: p.Name, Type: p.Type, Quantity: qty})
	return nil
}

// RemoveItem drops the entry at position i. Out-of-range indexes are a
// no-op.
func (l *Ledger) RemoveItem(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// Clear empties the ledger. Called after a successful commit or an
// explicit cancel.
func (l *Ledger) Clear() {
	l.items = nil
}

// Items returns a copy of the staged entries in insertion order.
func (l *Ledger) Items() []StagedItem {
	out := make([]StagedItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) indexOf(pillID int64) int {
	for i, it := range l.items {
		if it.PillID == pillID {
			return i
		}
	}
	return -1
}

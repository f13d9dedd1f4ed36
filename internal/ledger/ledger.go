package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// ErrNotFound is returned when no entry carries the requested id.
var ErrNotFound = errors.New("ledger entry not found")

// Entry is implemented by pointers to ledger records.
type Entry[T any] interface {
	*T
	EntryID() string
	EntryDate() time.Time
	Stamp(id string, date time.Time)
}

// Book is an ordered sequence of ledger records of one kind.
type Book[T any, P Entry[T]] struct {
	entries []T
	newID   func() string
}

// NewBook builds an empty book. A nil id source defaults to random UUIDs.
func NewBook[T any, P Entry[T]](newID func() string) *Book[T, P] {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Book[T, P]{newID: newID}
}

// Append stores rec under a fresh id and returns the stored copy.
func (b *Book[T, P]) Append(rec T) T {
	P(&rec).Stamp(b.newID(), P(&rec).EntryDate())
	b.entries = append(b.entries, rec)
	return rec
}

// Find returns the entry with the given id.
func (b *Book[T, P]) Find(id string) (T, error) {
	idx := b.indexOf(id)
	if idx < 0 {
		var zero T
		return zero, ErrNotFound
	}
	return b.entries[idx], nil
}

// Replace swaps the fields of an entry, keeping its id and original date.
func (b *Book[T, P]) Replace(id string, rec T) (T, error) {
	idx := b.indexOf(id)
	if idx < 0 {
		var zero T
		return zero, ErrNotFound
	}

	original := P(&b.entries[idx]).EntryDate()
	P(&rec).Stamp(id, original)
	b.entries[idx] = rec
	return rec, nil
}

// Remove deletes the entry and returns it.
func (b *Book[T, P]) Remove(id string) (T, error) {
	idx := b.indexOf(id)
	if idx < 0 {
		var zero T
		return zero, ErrNotFound
	}

	removed := b.entries[idx]
	b.entries = append(b.entries[:idx], b.entries[idx+1:]...)
	return removed, nil
}

// All returns a copy of every entry in insertion order.
func (b *Book[T, P]) All() []T {
	out := make([]T, len(b.entries))
	copy(out, b.entries)
	return out
}

// Recent returns up to n of the latest entries, newest first.
func (b *Book[T, P]) Recent(n int) []T {
	if n <= 0 || n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]T, 0, n)
	for i := len(b.entries) - 1; i >= len(b.entries)-n; i-- {
		out = append(out, b.entries[i])
	}
	return out
}

// Len returns the number of entries.
func (b *Book[T, P]) Len() int {
	return len(b.entries)
}

func (b *Book[T, P]) indexOf(id string) int {
	for i := range b.entries {
		if P(&b.entries[i]).EntryID() == id {
			return i
		}
	}
	return -1
}

// Store owns the purchase and sale books of one shop.
type Store struct {
	purchases *Book[models.Purchase, *models.Purchase]
	sales     *Book[models.Sale, *models.Sale]
}

// NewStore builds an empty ledger. Both books draw ids from newID.
func NewStore(newID func() string) *Store {
	return &Store{
		purchases: NewBook[models.Purchase](newID),
		sales:     NewBook[models.Sale](newID),
	}
}

// Purchases returns the purchase book.
func (s *Store) Purchases() *Book[models.Purchase, *models.Purchase] {
	return s.purchases
}

// Sales returns the sale book.
func (s *Store) Sales() *Book[models.Sale, *models.Sale] {
	return s.sales
}

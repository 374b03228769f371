// Package reorder keeps a locally ordered copy of a list, applies moves
// optimistically and reconciles them with the backend.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownItem        = errors.New("reorder: unknown item")
	ErrPositionOutOfRange = errors.New("reorder: position out of range")
	// ErrSuperseded is returned when the list was replaced while the move
	// was being persisted; the response was not applied.
	ErrSuperseded = errors.New("reorder: list replaced while saving")
)

// PersistenceError wraps the failure of a reorder call. The board has
// already rolled back when it is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("reorder not saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Keyed is an item that can sit on a board.
type Keyed[K comparable] interface {
	ReorderKey() K
}

// Position is one entry of a reorder request: the item and its zero-based
// index in the new order.
type Position[K comparable] struct {
	ID          K
	NewPosition int
}

type Persister[K comparable] interface {
	Persist(ctx context.Context, positions []Position[K]) error
}

type PersisterFunc[K comparable] func(ctx context.Context, positions []Position[K]) error

func (f PersisterFunc[K]) Persist(ctx context.Context, positions []Position[K]) error {
	return f(ctx, positions)
}

type Board[K comparable, T Keyed[K]] struct {
	persister Persister[K]
	log       zerolog.Logger
	onReorder func([]T)
	onError   func(error)

	mu     sync.Mutex
	source []T
	local  []T
	err    error
	// inflight holds the seqs of moves whose persist call is outstanding.
	inflight map[uint64]struct{}
	// gen changes on SetSource; results of moves started under an older
	// gen are dropped.
	gen uint64
	// seq numbers moves; confirmed is the newest move the backend accepted.
	seq       uint64
	confirmed uint64
}

type Option[K comparable, T Keyed[K]] func(*Board[K, T])

// WithOnReorder registers the callback that receives each confirmed order.
func WithOnReorder[K comparable, T Keyed[K]](fn func([]T)) Option[K, T] {
	return func(b *Board[K, T]) { b.onReorder = fn }
}

func WithOnError[K comparable, T Keyed[K]](fn func(error)) Option[K, T] {
	return func(b *Board[K, T]) { b.onError = fn }
}

func WithLogger[K comparable, T Keyed[K]](l zerolog.Logger) Option[K, T] {
	return func(b *Board[K, T]) { b.log = l }
}

func NewBoard[K comparable, T Keyed[K]](items []T, persister Persister[K], opts ...Option[K, T]) *Board[K, T] {
	b := &Board[K, T]{
		persister: persister,
		log:       zerolog.Nop(),
		source:    slices.Clone(items),
		local:     slices.Clone(items),
		inflight:  make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetSource replaces the externally supplied list. Moves that have not
// been confirmed yet are discarded and their results will be ignored.
func (b *Board[K, T]) SetSource(items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.source = slices.Clone(items)
	b.local = slices.Clone(items)
	b.err = nil
}

// Items is the displayed order.
func (b *Board[K, T]) Items() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.local)
}

// Source is the last externally supplied or confirmed order.
func (b *Board[K, T]) Source() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.source)
}

// Saving reports whether a reorder call is outstanding.
func (b *Board[K, T]) Saving() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight) > 0
}

// Err is the error of the last failed move, cleared by the next move or
// by SetSource.
func (b *Board[K, T]) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// DragEnd moves activeID to the slot currently held by overID.
func (b *Board[K, T]) DragEnd(ctx context.Context, activeID, overID K) error {
	if activeID == overID {
		return nil
	}
	b.mu.Lock()
	to := indexOf(b.local, overID)
	b.mu.Unlock()
	if to < 0 {
		return fmt.Errorf("%w: %v", ErrUnknownItem, overID)
	}
	return b.Move(ctx, activeID, to)
}

// Move puts id at index to, shifting the items in between by one. The
// displayed order changes before the persister is called; it is rolled
// back to the source when the call fails.
func (b *Board[K, T]) Move(ctx context.Context, id K, to int) error {
	b.mu.Lock()
	from := indexOf(b.local, id)
	if from < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnknownItem, id)
	}
	if to < 0 || to >= len(b.local) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPositionOutOfRange, to)
	}
	if from == to {
		b.mu.Unlock()
		return nil
	}

	order := arrayMove(b.local, from, to)
	b.local = order
	b.err = nil
	b.seq++
	gen, seq := b.gen, b.seq
	b.inflight[seq] = struct{}{}
	positions := Positions[K](order)
	b.mu.Unlock()

	b.log.Debug().Interface("id", id).Int("from", from).Int("to", to).Msg("saving order")
	err := b.persister.Persist(ctx, positions)

	b.mu.Lock()
	delete(b.inflight, seq)
	if gen != b.gen {
		b.mu.Unlock()
		b.log.Debug().Interface("id", id).Msg("reorder result dropped, list replaced")
		return ErrSuperseded
	}

	if err != nil {
		perr := &PersistenceError{Err: err}
		b.local = slices.Clone(b.source)
		b.err = perr
		onError := b.onError
		b.mu.Unlock()
		b.log.Error().Err(err).Interface("id", id).Msg("reorder failed, order rolled back")
		if onError != nil {
			onError(perr)
		}
		return perr
	}

	var confirmed []T
	if seq > b.confirmed {
		b.confirmed = seq
		b.source = slices.Clone(order)
		// a newer move still in flight keeps its optimistic order on screen
		if !b.newerInFlight(seq) {
			b.local = slices.Clone(order)
		}
		confirmed = slices.Clone(order)
	}
	onReorder := b.onReorder
	b.mu.Unlock()

	if confirmed != nil && onReorder != nil {
		onReorder(confirmed)
	}
	return nil
}

func (b *Board[K, T]) newerInFlight(seq uint64) bool {
	for s := range b.inflight {
		if s > seq {
			return true
		}
	}
	return false
}

// Positions encodes items as a full reorder request.
func Positions[K comparable, T Keyed[K]](items []T) []Position[K] {
	out := make([]Position[K], len(items))
	for i, item := range items {
		out[i] = Position[K]{ID: item.ReorderKey(), NewPosition: i}
	}
	return out
}

// arrayMove returns a copy of items with the element at from moved to to.
func arrayMove[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

func indexOf[K comparable, T Keyed[K]](items []T, id K) int {
	return slices.IndexFunc(items, func(item T) bool {
		return item.ReorderKey() == id
	})
}

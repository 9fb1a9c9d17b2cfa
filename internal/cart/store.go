// Package cart owns the persisted cart: a list of product-option lines kept
// behind a key-value Storage port, rewritten wholesale on every mutation and
// announced to subscribers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/google/uuid"
)

var ErrLineNotFound = errors.New("cart line not found")

// Store is the single source of truth for cart contents. Every mutating
// operation persists immediately and notifies subscribers; there is no
// batching. Concurrent writers race with last-write-wins semantics, the same
// as the shared storage it models.
type Store struct {
	mu      sync.Mutex
	storage Storage
	lines   []domain.CartLine
	subs    map[string]func()
}

func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		subs:    make(map[string]func()),
	}
}

// Load reads the persisted cart. A missing key or an unreadable document
// degrades to an empty cart; individually bad entries are dropped. Only a
// storage I/O failure is returned to the caller.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Read(ctx, KeyCartItems)
	if errors.Is(err, ErrKeyNotFound) {
		s.setLines(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	lines, rejected, decodeErr := domain.DecodeCartLines(data)
	if decodeErr != nil {
		log.Printf("discarding unreadable cart snapshot: %v", decodeErr)
		s.setLines(nil)
		return nil
	}
	if rejected > 0 {
		log.Printf("dropped %d malformed cart entries on load", rejected)
	}
	s.setLines(lines)
	return nil
}

// Lines returns a copy of the current cart.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// AddOrMerge inserts a line or, when a line with the same option already
// exists, merges quantities under the stock cap. The candidate's catalog
// metadata (price, discount, image, cap) always overwrites the cached line.
// capped reports that the stock cap truncated the requested quantity.
func (s *Store) AddOrMerge(ctx context.Context, candidate domain.CartLine) (capped bool, err error) {
	requested := candidate.Quantity
	candidate = candidate.Normalize()

	s.mu.Lock()
	merged := false
	for i, line := range s.lines {
		if line.OptionID != candidate.OptionID {
			continue
		}
		combined := line.Quantity + candidate.Quantity
		updated := candidate
		updated.Quantity = combined
		updated = updated.Normalize()
		capped = updated.Quantity < combined
		s.lines[i] = updated
		merged = true
		break
	}
	if !merged {
		capped = candidate.Quantity < requested
		s.lines = append(s.lines, candidate)
	}
	err = s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	s.notify()
	return capped, nil
}

// SetQuantity clamps into [1, stock cap]; zero or negative requests floor to
// one rather than removing the line.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	s.mu.Lock()
	found := false
	for i, line := range s.lines {
		if line.LineID == lineID {
			s.lines[i].Quantity = line.ClampQuantity(quantity)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) Remove(ctx context.Context, lineID string) error {
	s.mu.Lock()
	found := false
	for i, line := range s.lines {
		if line.LineID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Clear empties the cart. Used after a fully successful order submission.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Subscribe registers a change callback and returns its cancel func.
// Callbacks run synchronously after each successful persist.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	id := uuid.NewString()
	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) setLines(lines []domain.CartLine) {
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

func (s *Store) persistLocked(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.storage.Write(ctx, KeyCartItems, data); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Package memory provides a mutex-guarded in-memory implementation of the
// domain repositories. Used by tests and by the server's dev mode when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/batch"
	"khata/internal/domain/ledger"
	"khata/internal/domain/party"
)

// Store holds all ledger records in process memory. Reads return copies, so
// a snapshot handed to a caller never mutates under a concurrent write.
type Store struct {
	mu sync.RWMutex

	obligations     map[id.ID]*ledger.Obligation
	eventsByOblig   map[id.ID][]ledger.PaymentEvent
	batches         map[id.ID]*batch.PurchaseBatch
	wholesalersByID map[id.ID]*party.Wholesaler
	wholesalerByKey map[string]id.ID
	customers       map[id.ID]*party.Customer
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		obligations:     make(map[id.ID]*ledger.Obligation),
		eventsByOblig:   make(map[id.ID][]ledger.PaymentEvent),
		batches:         make(map[id.ID]*batch.PurchaseBatch),
		wholesalersByID: make(map[id.ID]*party.Wholesaler),
		wholesalerByKey: make(map[string]id.ID),
		customers:       make(map[id.ID]*party.Customer),
	}
}

// Compile-time interface checks.
var (
	_ ledger.Repository = (*Store)(nil)
	_ batch.Repository  = (*Store)(nil)
	_ party.Repository  = (*Store)(nil)
)

// --- ledger.Repository ---

func (s *Store) GetObligation(ctx context.Context, obligationID id.ID) (*ledger.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.obligations[obligationID]
	if !ok {
		return nil, apperror.NewNotFound("obligation", obligationID.String())
	}
	cp := *o
	return &cp, nil
}

func (s *Store) SaveObligation(ctx context.Context, o *ledger.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.obligations[o.ID]
	if ok {
		// Optimistic lock: the caller must have read the current version.
		if stored.Version != o.Version {
			return apperror.NewConcurrentModification("obligation", o.ID.String())
		}
		o.Version++
		o.UpdatedAt = time.Now().UTC()
	}
	cp := *o
	s.obligations[o.ID] = &cp
	return nil
}

func (s *Store) AppendPaymentEvent(ctx context.Context, event *ledger.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.obligations[event.ObligationID]; !ok {
		return apperror.NewNotFound("obligation", event.ObligationID.String())
	}
	s.eventsByOblig[event.ObligationID] = append(s.eventsByOblig[event.ObligationID], *event)
	return nil
}

func (s *Store) RemovePaymentEvent(ctx context.Context, obligationID, eventID id.ID) (*ledger.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.eventsByOblig[obligationID]
	for i, e := range events {
		if e.ID == eventID {
			removed := e
			s.eventsByOblig[obligationID] = append(events[:i:i], events[i+1:]...)
			return &removed, nil
		}
	}
	return nil, apperror.NewNotFound("payment event", eventID.String())
}

func (s *Store) ListPaymentEvents(ctx context.Context, obligationID id.ID) ([]ledger.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.eventsByOblig[obligationID]
	out := make([]ledger.PaymentEvent, len(events))
	copy(out, events)
	// Date order; stable sort keeps insertion order for same-date ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListObligationsByCounterparty(ctx context.Context, counterpartyID id.ID) ([]ledger.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Obligation
	for _, o := range s.obligations {
		if o.CounterpartyID != nil && *o.CounterpartyID == counterpartyID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- batch.Repository ---

func (s *Store) SaveBatch(ctx context.Context, b *batch.PurchaseBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.batches[b.ID]
	if ok {
		if stored.Version != b.Version {
			return apperror.NewConcurrentModification("purchase batch", b.ID.String())
		}
		b.Version++
		b.UpdatedAt = time.Now().UTC()
	}
	cp := *b
	cp.Lines = make([]batch.LineItem, len(b.Lines))
	copy(cp.Lines, b.Lines)
	s.batches[b.ID] = &cp
	return nil
}

func (s *Store) GetBatch(ctx context.Context, batchID id.ID) (*batch.PurchaseBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("purchase batch", batchID.String())
	}
	cp := *b
	cp.Lines = make([]batch.LineItem, len(b.Lines))
	copy(cp.Lines, b.Lines)
	return &cp, nil
}

func (s *Store) ListBatchesByWholesaler(ctx context.Context, wholesalerID id.ID) ([]batch.PurchaseBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []batch.PurchaseBatch
	for _, b := range s.batches {
		if b.WholesalerID == wholesalerID {
			cp := *b
			cp.Lines = make([]batch.LineItem, len(b.Lines))
			copy(cp.Lines, b.Lines)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- party.Repository ---

func (s *Store) GetWholesaler(ctx context.Context, wholesalerID id.ID) (*party.Wholesaler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wholesalersByID[wholesalerID]
	if !ok {
		return nil, apperror.NewNotFound("wholesaler", wholesalerID.String())
	}
	cp := *w
	return &cp, nil
}

func (s *Store) FindWholesalerByKey(ctx context.Context, key string) (*party.Wholesaler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wid, ok := s.wholesalerByKey[key]
	if !ok {
		return nil, apperror.NewNotFound("wholesaler", key)
	}
	cp := *s.wholesalersByID[wid]
	return &cp, nil
}

func (s *Store) InsertWholesalerIfAbsent(ctx context.Context, candidate *party.Wholesaler) (*party.Wholesaler, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check-and-insert under one lock: the second resolver to act sees the
	// first's write and converges onto it.
	if wid, ok := s.wholesalerByKey[candidate.UniqueKey]; ok {
		cp := *s.wholesalersByID[wid]
		return &cp, false, nil
	}
	cp := *candidate
	s.wholesalersByID[candidate.ID] = &cp
	s.wholesalerByKey[candidate.UniqueKey] = candidate.ID
	out := cp
	return &out, true, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID id.ID) (*party.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	cp := *c
	return &cp, nil
}

func (s *Store) SaveCustomer(ctx context.Context, c *party.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.customers[c.ID]
	if ok {
		if stored.Version != c.Version {
			return apperror.NewConcurrentModification("customer", c.ID.String())
		}
		c.Version++
	}
	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[address.PublicKey]*account.Account

	// Interaction journal
	interactions []*interaction.Event

	closed bool
}

func New() *Store {
	return &Store{
		accounts:     make(map[address.PublicKey]*account.Account),
		interactions: make([]*interaction.Event, 0),
	}
}

// Account Store implementation
func (s *Store) GetAccount(_ context.Context, addr address.PublicKey) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[addr]; ok {
		return a.Clone(), nil
	}
	return nil, promptledger.ErrAccountNotFound
}

func (s *Store) GetAccounts(_ context.Context, addrs []address.PublicKey) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0, len(addrs))
	for _, addr := range addrs {
		if a, ok := s.accounts[addr]; ok {
			result = append(result, a.Clone())
		}
	}
	return result, nil
}

func (s *Store) ListAccountsByOwner(_ context.Context, owner address.PublicKey, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0)
	for _, a := range s.accounts {
		if a.Owner != owner {
			continue
		}
		if opts.DataSize > 0 && len(a.Data) != opts.DataSize {
			continue
		}
		result = append(result, a.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Address[:], result[j].Address[:]) < 0
	})

	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) CommitAccounts(_ context.Context, accts []*account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return promptledger.ErrStoreClosed
	}

	now := time.Now().UTC()
	for _, a := range accts {
		c := a.Clone()
		if prev, ok := s.accounts[c.Address]; ok {
			c.CreatedAt = prev.CreatedAt
		} else {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		s.accounts[c.Address] = c
	}
	return nil
}

// Interaction Store implementation
func (s *Store) AppendInteractions(_ context.Context, events []*interaction.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return promptledger.ErrStoreClosed
	}

	for _, e := range events {
		for _, existing := range s.interactions {
			if existing.ID.String() == e.ID.String() {
				return promptledger.ErrDuplicateEvent
			}
		}
	}

	for _, e := range events {
		c := *e
		s.interactions = append(s.interactions, &c)
	}
	return nil
}

func (s *Store) ListInteractions(_ context.Context, authority address.PublicKey, opts interaction.QueryOpts) ([]*interaction.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*interaction.Event, 0)
	for i := len(s.interactions) - 1; i >= 0; i-- {
		e := s.interactions[i]
		if e.Authority != authority {
			continue
		}
		if !opts.Start.IsZero() && e.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.Timestamp.Before(opts.End) {
			continue
		}
		c := *e
		result = append(result, &c)
	}

	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) PurgeInteractions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*interaction.Event, 0, len(s.interactions))
	var purged int64
	for _, e := range s.interactions {
		if e.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.interactions = kept
	return purged, nil
}

// Core Store implementation
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return promptledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && limit < end-start {
		end = start + limit
	}
	return items[start:end]
}

package directory

import (
	"context"
	"sync"

	"homigo/pkg/model"
)

// Memory is an in-process directory used by tests and local runs.
type Memory struct {
	mu       sync.RWMutex
	listings map[string]model.Listing
	contacts map[string]model.Contact
}

func NewMemory() *Memory {
	return &Memory{
		listings: make(map[string]model.Listing),
		contacts: make(map[string]model.Contact),
	}
}

func (m *Memory) AddListing(l model.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *Memory) AddContact(c model.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.ID] = c
}

func (m *Memory) FindListing(_ context.Context, id string) (*model.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *Memory) FindContact(_ context.Context, id string) (*model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

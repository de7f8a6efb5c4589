// Package addressbook stores customer service addresses for at-home
// appointments. The authoritative book lives in the customer-profile
// service; this package defines the interface the booking flow needs
// plus an in-memory implementation for tests and local development.
package addressbook

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrAddressNotFound = errors.New("addressbook: address not found")

// Address is one saved service location.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city"`
	Complement string `json:"complement,omitempty"`
}

// Book lists and creates a customer's addresses.
type Book interface {
	ListAddresses(ctx context.Context, customerID string) ([]Address, error)
	GetAddress(ctx context.Context, customerID, addressID string) (*Address, error)
	CreateAddress(ctx context.Context, addr Address) (*Address, error)
}

// MemoryBook is a mutex-guarded in-memory Book.
type MemoryBook struct {
	mu        sync.RWMutex
	addresses map[string]Address
}

// NewMemoryBook creates an empty in-memory address book.
func NewMemoryBook() *MemoryBook {
	return &MemoryBook{addresses: make(map[string]Address)}
}

// ListAddresses returns the customer's addresses ordered by label.
func (b *MemoryBook) ListAddresses(_ context.Context, customerID string) ([]Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Address
	for _, addr := range b.addresses {
		if addr.CustomerID == customerID {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// GetAddress returns one address, scoped to the customer.
func (b *MemoryBook) GetAddress(_ context.Context, customerID, addressID string) (*Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	addr, ok := b.addresses[addressID]
	if !ok || addr.CustomerID != customerID {
		return nil, ErrAddressNotFound
	}
	return &addr, nil
}

// CreateAddress saves a new address, assigning an id when absent.
func (b *MemoryBook) CreateAddress(_ context.Context, addr Address) (*Address, error) {
	if strings.TrimSpace(addr.CustomerID) == "" {
		return nil, errors.New("addressbook: customer id is required")
	}
	if strings.TrimSpace(addr.Street) == "" {
		return nil, errors.New("addressbook: street is required")
	}
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.addresses[addr.ID] = addr
	return &addr, nil
}

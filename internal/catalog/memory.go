package catalog

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory, used in tests and local
// development where no catalog service is running.
type MemoryDirectory struct {
	mu            sync.RWMutex
	services      map[string]Service
	professionals map[string]Professional
}

// NewMemoryDirectory creates an empty in-memory catalog.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		services:      make(map[string]Service),
		professionals: make(map[string]Professional),
	}
}

// PutService inserts or replaces a service.
func (d *MemoryDirectory) PutService(svc Service) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[svc.ID] = svc
}

// PutProfessional inserts or replaces a professional.
func (d *MemoryDirectory) PutProfessional(p Professional) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.professionals[p.ID] = p
}

// GetService returns a service by id.
func (d *MemoryDirectory) GetService(_ context.Context, id string) (*Service, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

// ProfessionalsForService returns the professionals eligible for a service.
func (d *MemoryDirectory) ProfessionalsForService(_ context.Context, serviceID string) ([]Professional, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.services[serviceID]
	if !ok {
		return nil, ErrServiceNotFound
	}
	out := make([]Professional, 0, len(svc.Professionals))
	for _, id := range svc.Professionals {
		if p, ok := d.professionals[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsActive reports whether the professional is active.
func (d *MemoryDirectory) IsActive(_ context.Context, professionalID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.professionals[professionalID]
	if !ok {
		return false, ErrProfessionalNotFound
	}
	return p.Active, nil
}

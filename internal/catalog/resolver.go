package catalog

import (
	"context"
	"fmt"
	"sort"
)

// Directory is the read-only catalog collaborator. The catalog service
// owns services and staff; this package only consumes them.
type Directory interface {
	GetService(ctx context.Context, id string) (*Service, error)
	ProfessionalsForService(ctx context.Context, serviceID string) ([]Professional, error)
	IsActive(ctx context.Context, professionalID string) (bool, error)
}

// Resolver computes which professionals can perform a full cart of
// services.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver over the given catalog directory.
func NewResolver(dir Directory) *Resolver {
	if dir == nil {
		panic("catalog: directory required")
	}
	return &Resolver{dir: dir}
}

// EligibleProfessionals intersects the eligible-professional sets of
// every service in the cart and filters to active staff. An empty
// result is a valid outcome (no single professional can perform the
// whole cart), not an error. The returned ids are sorted for stable
// rendering.
func (r *Resolver) EligibleProfessionals(ctx context.Context, serviceIDs []string) ([]string, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrEmptyCart
	}

	var candidates map[string]struct{}
	for _, serviceID := range serviceIDs {
		pros, err := r.dir.ProfessionalsForService(ctx, serviceID)
		if err != nil {
			return nil, fmt.Errorf("catalog: resolve professionals for %s: %w", serviceID, err)
		}

		current := make(map[string]struct{}, len(pros))
		for _, p := range pros {
			current[p.ID] = struct{}{}
		}

		if candidates == nil {
			candidates = current
			continue
		}
		for id := range candidates {
			if _, ok := current[id]; !ok {
				delete(candidates, id)
			}
		}
		if len(candidates) == 0 {
			return []string{}, nil
		}
	}

	eligible := make([]string, 0, len(candidates))
	for id := range candidates {
		active, err := r.dir.IsActive(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("catalog: check active %s: %w", id, err)
		}
		if active {
			eligible = append(eligible, id)
		}
	}
	sort.Strings(eligible)
	return eligible, nil
}

// LoadCart fetches every service in the cart, preserving order.
func (r *Resolver) LoadCart(ctx context.Context, serviceIDs []string) ([]Service, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrEmptyCart
	}
	services := make([]Service, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		svc, err := r.dir.GetService(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("catalog: load service %s: %w", id, err)
		}
		services = append(services, *svc)
	}
	return services, nil
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/repository"
)

// ProfileService serves derived profile data through the tenant-scoped cache,
// falling back to the tenant data store on a miss. The data store stays the
// source of truth; the cache only bounds how often it is hit.
type ProfileService struct {
	salons    domain.SalonRepository
	customers domain.CustomerRepository
	cache     *repository.TenantCache
	group     singleflight.Group
	logger    *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	salons domain.SalonRepository,
	customers domain.CustomerRepository,
	cache *repository.TenantCache,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		salons:    salons,
		customers: customers,
		cache:     cache,
		logger:    logger,
	}
}

// SalonProfile returns the tenant profile, serving from the cache when
// possible. Concurrent misses for the same tenant collapse into one
// repository fetch.
func (s *ProfileService) SalonProfile(ctx context.Context, salonID string) (*domain.Salon, error) {
	handle := s.cache.GetOrCreate(domain.NamespaceSalonProfile, salonID)

	var cached domain.Salon
	ok, err := handle.Load(ctx, &cached)
	if err != nil {
		s.logger.Warn("salon profile cache read failed", zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	v, err, _ := s.group.Do("salon:"+salonID, func() (interface{}, error) {
		return s.salons.GetByID(ctx, salonID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch salon profile: %w", err)
	}
	salon := v.(*domain.Salon)

	if _, err := s.cache.Reconcile(ctx, handle, salon); err != nil {
		s.logger.Warn("salon profile cache write failed", zap.Error(err))
	}
	return salon, nil
}

// CustomerDetails returns a customer's profile through the userDetails
// namespace, same pattern as SalonProfile.
func (s *ProfileService) CustomerDetails(ctx context.Context, customerID string) (*domain.Customer, error) {
	handle := s.cache.GetOrCreate(domain.NamespaceUserDetails, customerID)

	var cached domain.Customer
	ok, err := handle.Load(ctx, &cached)
	if err != nil {
		s.logger.Warn("customer details cache read failed", zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	v, err, _ := s.group.Do("customer:"+customerID, func() (interface{}, error) {
		return s.customers.GetByID(ctx, customerID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer details: %w", err)
	}
	customer := v.(*domain.Customer)

	if _, err := s.cache.Reconcile(ctx, handle, customer); err != nil {
		s.logger.Warn("customer details cache write failed", zap.Error(err))
	}
	return customer, nil
}

// ClearTenantCaches evicts every cached entry in both namespaces. It must
// finish before a logout response goes out so a subsequent login on the same
// device starts from a cold cache.
func (s *ProfileService) ClearTenantCaches(ctx context.Context) error {
	for _, ns := range []string{domain.NamespaceSalonProfile, domain.NamespaceUserDetails} {
		if err := s.cache.ClearNamespace(ctx, ns); err != nil {
			return fmt.Errorf("failed to clear %s cache: %w", ns, err)
		}
	}
	return nil
}

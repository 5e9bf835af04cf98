package geo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/geocoder"
)

// DistrictCache is the persistent ZIP-to-district cache the resolver
// consults first and writes resolved lookups back into
type DistrictCache interface {
	// LookupZipDistrict returns the cached district for a ZIP code, or
	// domain.ErrNoDistrict when the ZIP has not been resolved before
	LookupZipDistrict(ctx context.Context, zipCode string) (*domain.District, error)

	// CacheZipDistrict stores a resolved ZIP-to-district mapping
	CacheZipDistrict(ctx context.Context, record domain.ZipDistrict) error
}

// Resolver resolves ZIP codes to congressional districts through a
// cache-first fallback chain: cached dataset, Census geocoder, then
// Cicero when configured.
type Resolver struct {
	cache  DistrictCache
	census geocoder.CensusClient
	cicero geocoder.CiceroClient
}

// NewResolver creates a district resolver. cicero may be nil, which
// disables the final fallback stage.
func NewResolver(cache DistrictCache, census geocoder.CensusClient, cicero geocoder.CiceroClient) *Resolver {
	return &Resolver{
		cache:  cache,
		census: census,
		cicero: cicero,
	}
}

// ResolveZip resolves a ZIP code to its congressional district. Results
// from the geocoder stages are written back to the cache so each ZIP is
// resolved externally at most once.
func (r *Resolver) ResolveZip(ctx context.Context, zipCode string) (*domain.District, error) {
	district, err := r.cache.LookupZipDistrict(ctx, zipCode)
	if err == nil {
		return district, nil
	}
	if !errors.Is(err, domain.ErrNoDistrict) {
		return nil, fmt.Errorf("failed to look up cached district for ZIP %s: %w", zipCode, err)
	}

	district, err = r.census.GetDistrictByZip(ctx, zipCode)
	if err == nil {
		r.writeback(ctx, zipCode, district)
		return district, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if !errors.Is(err, domain.ErrNoDistrict) {
		logger.WarnCtx(ctx, "Census geocoder lookup failed, trying fallback",
			zap.String("zip_code", zipCode), zap.Error(err))
	}

	if r.cicero == nil {
		return nil, fmt.Errorf("%w: ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	district, err = r.cicero.GetDistrictByZip(ctx, zipCode)
	if err != nil {
		if errors.Is(err, domain.ErrNoDistrict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve ZIP %s: %w", zipCode, err)
	}

	r.writeback(ctx, zipCode, district)
	return district, nil
}

// writeback caches a resolved district. Caching is best-effort: a
// failed write never fails the lookup.
func (r *Resolver) writeback(ctx context.Context, zipCode string, district *domain.District) {
	record := domain.ZipDistrict{
		ZipCode:        zipCode,
		StateCode:      district.StateCode,
		DistrictNumber: district.DistrictNumber,
	}
	if err := r.cache.CacheZipDistrict(ctx, record); err != nil {
		logger.WarnCtx(ctx, "failed to cache resolved district",
			zap.String("zip_code", zipCode), zap.Error(err))
	}
}

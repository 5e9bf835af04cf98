package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/logger"
)

// SyncZipDistricts downloads the ZIP-to-district dataset and bulk
// loads it into the cache table
func (s *Service) SyncZipDistricts(ctx context.Context) (*geo.ZipDistrictLoadResult, error) {
	if s.zipLoader == nil {
		return nil, errors.New("zip district loader not configured")
	}

	result, err := s.zipLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetLastSyncTime(ctx, EntityZipDistricts, s.clock.Now()); err != nil {
		logger.WarnCtx(ctx, "failed to record zip district sync time", zap.Error(err))
	}

	logger.InfoCtx(ctx, "zip district sync complete",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return result, nil
}

// MarkSynced records a completed pass for an entity whose completion is
// decided outside a single chunk, such as the Senate probe finishing
// both sessions
func (s *Service) MarkSynced(ctx context.Context, entity string) error {
	return s.store.SetLastSyncTime(ctx, entity, s.clock.Now())
}

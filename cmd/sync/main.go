// Command sync runs a one-shot synchronization pass against the
// configured data sources, without Temporal. It is intended for
// backfills and local development; scheduled syncs run through the
// worker binary instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
	"github.com/democracy-watch/congress-indexer/internal/providers/houseclerk"
	"github.com/democracy-watch/congress-indexer/internal/providers/senategov"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
	"github.com/democracy-watch/congress-indexer/internal/store"
	"github.com/democracy-watch/congress-indexer/internal/sync"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to configuration file")
	envPath     = flag.String("env", "", "Path to .env file")
	entity      = flag.String("entity", "all", "Entity to sync: all, members, bills, house_votes, senate_votes, zip_districts")
	force       = flag.Bool("force", false, "Ignore the member freshness window")
	incremental = flag.Bool("incremental", true, "Skip records already synced since the last run")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadSyncConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
	}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	clockAdapter := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Sources.HTTPTimeout)
	rateLimiter, err := ratelimit.NewProxy(cfg.Sources.RateLimiterConfig())
	if err != nil {
		logger.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	congressClient := congressapi.NewClient(httpClient, rateLimiter, cfg.Sources.CongressAPIURL, cfg.Sources.CongressAPIKey)
	clerkClient := houseclerk.NewClient(httpClient, rateLimiter, cfg.Sources.HouseClerkURL, clockAdapter)
	senateClient := senategov.NewClient(httpClient, rateLimiter, cfg.Sources.SenateGovURL, clockAdapter)
	zipLoader := geo.NewZipDistrictLoader(httpClient, dataStore, cfg.Sources.ZipDistrictCSVURL)

	service := sync.NewService(congressClient, clerkClient, senateClient, zipLoader, dataStore, clockAdapter, cfg.Sync)

	if err := run(ctx, service, *entity); err != nil {
		logger.Error(err, zap.String("entity", *entity))
		os.Exit(1)
	}
	logger.Info("Sync complete", zap.String("entity", *entity))
}

func run(ctx context.Context, service *sync.Service, entity string) error {
	switch entity {
	case "all":
		if err := runMembers(ctx, service); err != nil {
			return err
		}
		if err := runBills(ctx, service); err != nil {
			return err
		}
		if err := runHouseVotes(ctx, service); err != nil {
			return err
		}
		if err := runSenateVotes(ctx, service); err != nil {
			return err
		}
		return nil
	case sync.EntityMembers:
		return runMembers(ctx, service)
	case sync.EntityBills:
		return runBills(ctx, service)
	case sync.EntityHouseVotes:
		return runHouseVotes(ctx, service)
	case sync.EntitySenateVotes:
		return runSenateVotes(ctx, service)
	case sync.EntityZipDistricts:
		return runZipDistricts(ctx, service)
	default:
		return fmt.Errorf("unknown entity %q", entity)
	}
}

func runMembers(ctx context.Context, service *sync.Service) error {
	result, err := service.SyncMembers(ctx, *force)
	if err != nil {
		return fmt.Errorf("sync members: %w", err)
	}
	logResult(sync.EntityMembers, *result)
	return nil
}

// runBills drains the chunked bill sync to completion in-process,
// where a workflow would continue-as-new instead.
func runBills(ctx context.Context, service *sync.Service) error {
	offset := 0
	total := sync.Result{}
	for {
		chunk, err := service.SyncBills(ctx, sync.BillChunkParams{
			Offset:      offset,
			Incremental: *incremental,
		})
		if err != nil {
			return fmt.Errorf("sync bills at offset %d: %w", offset, err)
		}
		accumulate(&total, chunk.Result)
		if !chunk.HasMore {
			break
		}
		offset = chunk.NextOffset
	}
	logResult(sync.EntityBills, total)
	return nil
}

func runHouseVotes(ctx context.Context, service *sync.Service) error {
	offset := 0
	total := sync.Result{}
	for {
		chunk, err := service.SyncHouseVotes(ctx, sync.HouseChunkParams{
			Offset:      offset,
			Incremental: *incremental,
		})
		if err != nil {
			return fmt.Errorf("sync house votes at offset %d: %w", offset, err)
		}
		accumulate(&total, chunk.Result)
		if !chunk.HasMore {
			break
		}
		offset = chunk.NextOffset
	}
	logResult(sync.EntityHouseVotes, total)
	return nil
}

func runSenateVotes(ctx context.Context, service *sync.Service) error {
	total := sync.Result{}
	for session := 1; session <= 2; session++ {
		number := 0
		for {
			chunk, err := service.SyncSenateVotes(ctx, sync.SenateChunkParams{
				Session:     session,
				StartNumber: number,
				Incremental: *incremental,
			})
			if err != nil {
				return fmt.Errorf("sync senate votes session %d: %w", session, err)
			}
			accumulate(&total, chunk.Result)
			if !chunk.HasMore {
				break
			}
			number = chunk.NextNumber
		}
	}
	if err := service.MarkSynced(ctx, sync.EntitySenateVotes); err != nil {
		logger.Warn("Failed to record senate vote sync time", zap.Error(err))
	}
	logResult(sync.EntitySenateVotes, total)
	return nil
}

func runZipDistricts(ctx context.Context, service *sync.Service) error {
	result, err := service.SyncZipDistricts(ctx)
	if err != nil {
		return fmt.Errorf("sync zip districts: %w", err)
	}
	logger.Info("Synced entity",
		zap.String("entity", sync.EntityZipDistricts),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return nil
}

func accumulate(total *sync.Result, chunk sync.Result) {
	total.Inserted += chunk.Inserted
	total.Updated += chunk.Updated
	total.Skipped += chunk.Skipped
	total.Errors += chunk.Errors
}

func logResult(entity string, result sync.Result) {
	logger.Info("Synced entity",
		zap.String("entity", entity),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
}

package workflows

import (
	"context"

	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/sync"
)

// Executor defines the interface for executing activities
type Executor interface {
	// SyncMembers runs a full member roster pass
	SyncMembers(ctx context.Context, force bool) (*sync.Result, error)

	// SyncBillChunk processes one bounded chunk of the bill list
	SyncBillChunk(ctx context.Context, params sync.BillChunkParams) (*sync.ChunkResult, error)

	// SyncHouseVoteChunk processes one bounded chunk of House roll calls
	SyncHouseVoteChunk(ctx context.Context, params sync.HouseChunkParams) (*sync.ChunkResult, error)

	// SyncSenateVoteChunk processes one bounded chunk of Senate roll calls for a session
	SyncSenateVoteChunk(ctx context.Context, params sync.SenateChunkParams) (*sync.SenateChunkResult, error)

	// SyncZipDistricts reloads the ZIP-to-district dataset
	SyncZipDistricts(ctx context.Context) (*geo.ZipDistrictLoadResult, error)

	// MarkEntitySynced records a completed multi-chunk sync for an entity
	MarkEntitySynced(ctx context.Context, entity string) error
}

// executor is the concrete implementation of Executor
type executor struct {
	service *sync.Service
}

// NewExecutor creates a new executor instance
func NewExecutor(service *sync.Service) Executor {
	return &executor{service: service}
}

func (e *executor) SyncMembers(ctx context.Context, force bool) (*sync.Result, error) {
	return e.service.SyncMembers(ctx, force)
}

func (e *executor) SyncBillChunk(ctx context.Context, params sync.BillChunkParams) (*sync.ChunkResult, error) {
	return e.service.SyncBills(ctx, params)
}

func (e *executor) SyncHouseVoteChunk(ctx context.Context, params sync.HouseChunkParams) (*sync.ChunkResult, error) {
	return e.service.SyncHouseVotes(ctx, params)
}

func (e *executor) SyncSenateVoteChunk(ctx context.Context, params sync.SenateChunkParams) (*sync.SenateChunkResult, error) {
	return e.service.SyncSenateVotes(ctx, params)
}

func (e *executor) SyncZipDistricts(ctx context.Context) (*geo.ZipDistrictLoadResult, error) {
	return e.service.SyncZipDistricts(ctx)
}

func (e *executor) MarkEntitySynced(ctx context.Context, entity string) error {
	return e.service.MarkSynced(ctx, entity)
}

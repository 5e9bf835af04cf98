// Package sync drives the chunked synchronization of legislative data
// from the external sources into the store. Each sync runs as a
// bounded chunk carrying resumption state, so an invocation can be
// capped and continued later without reprocessing or skipping records.
package sync

import (
	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
	"github.com/democracy-watch/congress-indexer/internal/providers/houseclerk"
	"github.com/democracy-watch/congress-indexer/internal/providers/senategov"
	"github.com/democracy-watch/congress-indexer/internal/store"
)

// Entity names recorded in sync metadata
const (
	EntityMembers      = "members"
	EntityBills        = "bills"
	EntityHouseVotes   = "house_votes"
	EntitySenateVotes  = "senate_votes"
	EntityZipDistricts = "zip_districts"
)

// Result tallies one sync pass. Per-record failures land in Errors and
// never abort the pass.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// ChunkResult extends Result with resumption state for offset-paginated syncs
type ChunkResult struct {
	Result
	Processed  int  `json:"processed"`
	HasMore    bool `json:"hasMore"`
	NextOffset int  `json:"nextOffset"`
}

// SenateChunkResult carries resumption state for the sequential Senate probe
type SenateChunkResult struct {
	Result
	Processed  int  `json:"processed"`
	HasMore    bool `json:"hasMore"`
	NextNumber int  `json:"nextNumber"`
}

// Service implements the entity sync passes
type Service struct {
	congressAPI congressapi.Client
	houseClerk  houseclerk.Client
	senateGov   senategov.Client
	zipLoader   *geo.ZipDistrictLoader
	store       store.Store
	clock       adapter.Clock
	cfg         config.SyncConfig
}

// NewService creates a sync service
func NewService(
	congressAPI congressapi.Client,
	houseClerk houseclerk.Client,
	senateGov senategov.Client,
	zipLoader *geo.ZipDistrictLoader,
	dataStore store.Store,
	clock adapter.Clock,
	cfg config.SyncConfig,
) *Service {
	return &Service{
		congressAPI: congressAPI,
		houseClerk:  houseClerk,
		senateGov:   senateGov,
		zipLoader:   zipLoader,
		store:       dataStore,
		clock:       clock,
		cfg:         cfg,
	}
}

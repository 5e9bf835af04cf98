package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/democracy-watch/congress-indexer/internal/sync"
)

// WorkerCore defines the interface for the sync workflows
type WorkerCore interface {
	// SyncMembersWorkflow runs a member roster sync
	SyncMembersWorkflow(ctx workflow.Context, params MemberSyncParams) (*sync.Result, error)

	// SyncBillsWorkflow drives bill chunks until the list is exhausted
	SyncBillsWorkflow(ctx workflow.Context, params BillSyncParams) (*SyncReport, error)

	// SyncHouseVotesWorkflow drives House roll call chunks until the list is exhausted
	SyncHouseVotesWorkflow(ctx workflow.Context, params HouseVoteSyncParams) (*SyncReport, error)

	// SyncSenateVotesWorkflow probes both Senate sessions to exhaustion
	SyncSenateVotesWorkflow(ctx workflow.Context, params SenateVoteSyncParams) (*SyncReport, error)

	// SyncZipDistrictsWorkflow reloads the ZIP-to-district dataset
	SyncZipDistrictsWorkflow(ctx workflow.Context) error

	// SyncCongressWorkflow runs a full sync: members first, then bills
	// and both vote feeds as concurrent child workflows
	SyncCongressWorkflow(ctx workflow.Context, params CongressSyncParams) (*SyncReport, error)
}

// MemberSyncParams configures a member sync run
type MemberSyncParams struct {
	// Force bypasses the freshness window
	Force bool `json:"force"`
}

// BillSyncParams configures a bill sync run; a non-zero offset resumes
// an interrupted run. CarryOver holds running totals across
// continue-as-new executions and stays nil on a fresh start.
type BillSyncParams struct {
	Offset      int         `json:"offset"`
	Incremental bool        `json:"incremental"`
	CarryOver   *SyncReport `json:"carryOver,omitempty"`
}

// HouseVoteSyncParams configures a House vote sync run
type HouseVoteSyncParams struct {
	Offset      int         `json:"offset"`
	Incremental bool        `json:"incremental"`
	CarryOver   *SyncReport `json:"carryOver,omitempty"`
}

// SenateVoteSyncParams configures a Senate vote sync run. Session and
// StartNumber carry resumption state across continue-as-new runs; a
// fresh run leaves them zero.
type SenateVoteSyncParams struct {
	Session     int         `json:"session"`
	StartNumber int         `json:"startNumber"`
	Incremental bool        `json:"incremental"`
	CarryOver   *SyncReport `json:"carryOver,omitempty"`
}

// CongressSyncParams configures a full congress sync
type CongressSyncParams struct {
	Force       bool `json:"force"`
	Incremental bool `json:"incremental"`
}

// SyncReport aggregates chunk results across one workflow run
type SyncReport struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Processed int `json:"processed"`
	Chunks    int `json:"chunks"`
}

func (r *SyncReport) addChunk(chunk sync.Result, processed int) {
	r.Inserted += chunk.Inserted
	r.Updated += chunk.Updated
	r.Skipped += chunk.Skipped
	r.Errors += chunk.Errors
	r.Processed += processed
	r.Chunks++
}

func (r *SyncReport) merge(other *SyncReport) {
	if other == nil {
		return
	}
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errors += other.Errors
	r.Processed += other.Processed
	r.Chunks += other.Chunks
}

// WorkerCoreConfig holds workflow tuning
type WorkerCoreConfig struct {
	// MaxChunksPerRun bounds workflow history length; a run that hits it
	// continues as a new execution carrying its resumption state
	MaxChunksPerRun int
}

// DefaultMaxChunksPerRun keeps history well below Temporal's event limit
const DefaultMaxChunksPerRun = 50

// workerCore is the concrete implementation of WorkerCore
type workerCore struct {
	config   WorkerCoreConfig
	executor Executor
}

// NewWorkerCore creates a new worker core instance
func NewWorkerCore(executor Executor, config WorkerCoreConfig) WorkerCore {
	if config.MaxChunksPerRun <= 0 {
		config.MaxChunksPerRun = DefaultMaxChunksPerRun
	}
	return &workerCore{
		executor: executor,
		config:   config,
	}
}

package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/sync"
)

func voteActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
}

// SyncHouseVotesWorkflow drives House roll call chunks until the list
// is exhausted, continuing as new when a run hits the chunk bound
func (w *workerCore) SyncHouseVotesWorkflow(ctx workflow.Context, params HouseVoteSyncParams) (*SyncReport, error) {
	logger.InfoWf(ctx, "Starting house vote sync",
		zap.Int("offset", params.Offset),
		zap.Bool("incremental", params.Incremental),
	)

	ctx = voteActivityOptions(ctx)

	report := &SyncReport{}
	report.merge(params.CarryOver)
	offset := params.Offset

	for chunks := 0; chunks < w.config.MaxChunksPerRun; chunks++ {
		var chunk sync.ChunkResult
		err := workflow.ExecuteActivity(ctx, w.executor.SyncHouseVoteChunk, sync.HouseChunkParams{
			Offset:      offset,
			Incremental: params.Incremental,
		}).Get(ctx, &chunk)
		if err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("house vote chunk failed"),
				zap.Error(err),
				zap.Int("offset", offset),
			)
			return nil, err
		}

		report.addChunk(chunk.Result, chunk.Processed)
		offset = chunk.NextOffset

		if !chunk.HasMore {
			logger.InfoWf(ctx, "House vote sync completed",
				zap.Int("processed", report.Processed),
				zap.Int("inserted", report.Inserted),
				zap.Int("skipped", report.Skipped),
				zap.Int("errors", report.Errors),
			)
			return report, nil
		}
	}

	logger.InfoWf(ctx, "House vote sync continuing as new execution",
		zap.Int("offset", offset),
		zap.Int("chunks", report.Chunks),
	)
	return nil, workflow.NewContinueAsNewError(ctx, w.SyncHouseVotesWorkflow, HouseVoteSyncParams{
		Offset:      offset,
		Incremental: params.Incremental,
		CarryOver:   report,
	})
}

// SyncSenateVotesWorkflow probes both Senate sessions to exhaustion.
// The Senate archive has no list endpoint, so each session is walked
// sequentially; the workflow moves to session 2 when session 1 runs
// out of roll calls, and records the completed sync after both.
func (w *workerCore) SyncSenateVotesWorkflow(ctx workflow.Context, params SenateVoteSyncParams) (*SyncReport, error) {
	session := params.Session
	if session < 1 {
		session = 1
	}
	startNumber := params.StartNumber

	logger.InfoWf(ctx, "Starting senate vote sync",
		zap.Int("session", session),
		zap.Int("startNumber", startNumber),
		zap.Bool("incremental", params.Incremental),
	)

	ctx = voteActivityOptions(ctx)

	report := &SyncReport{}
	report.merge(params.CarryOver)

	for chunks := 0; chunks < w.config.MaxChunksPerRun; chunks++ {
		var chunk sync.SenateChunkResult
		err := workflow.ExecuteActivity(ctx, w.executor.SyncSenateVoteChunk, sync.SenateChunkParams{
			Session:     session,
			StartNumber: startNumber,
			Incremental: params.Incremental,
		}).Get(ctx, &chunk)
		if err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("senate vote chunk failed"),
				zap.Error(err),
				zap.Int("session", session),
				zap.Int("startNumber", startNumber),
			)
			return nil, err
		}

		report.addChunk(chunk.Result, chunk.Processed)
		startNumber = chunk.NextNumber

		if !chunk.HasMore {
			// session exhausted
			if session == 1 {
				session = 2
				startNumber = 0
				continue
			}

			if err := workflow.ExecuteActivity(ctx, w.executor.MarkEntitySynced, sync.EntitySenateVotes).Get(ctx, nil); err != nil {
				logger.WarnWf(ctx, "failed to record senate sync completion", zap.Error(err))
			}
			logger.InfoWf(ctx, "Senate vote sync completed",
				zap.Int("processed", report.Processed),
				zap.Int("inserted", report.Inserted),
				zap.Int("skipped", report.Skipped),
				zap.Int("errors", report.Errors),
			)
			return report, nil
		}
	}

	logger.InfoWf(ctx, "Senate vote sync continuing as new execution",
		zap.Int("session", session),
		zap.Int("startNumber", startNumber),
		zap.Int("chunks", report.Chunks),
	)
	return nil, workflow.NewContinueAsNewError(ctx, w.SyncSenateVotesWorkflow, SenateVoteSyncParams{
		Session:     session,
		StartNumber: startNumber,
		Incremental: params.Incremental,
		CarryOver:   report,
	})
}

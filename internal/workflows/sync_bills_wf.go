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

// SyncBillsWorkflow drives bill chunks until the list is exhausted.
// Each chunk is one activity; when a run accumulates enough chunks it
// continues as a new execution carrying the offset and running totals
// so history stays bounded.
func (w *workerCore) SyncBillsWorkflow(ctx workflow.Context, params BillSyncParams) (*SyncReport, error) {
	logger.InfoWf(ctx, "Starting bill sync",
		zap.Int("offset", params.Offset),
		zap.Bool("incremental", params.Incremental),
	)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	report := &SyncReport{}
	report.merge(params.CarryOver)
	offset := params.Offset

	for chunks := 0; chunks < w.config.MaxChunksPerRun; chunks++ {
		var chunk sync.ChunkResult
		err := workflow.ExecuteActivity(ctx, w.executor.SyncBillChunk, sync.BillChunkParams{
			Offset:      offset,
			Incremental: params.Incremental,
		}).Get(ctx, &chunk)
		if err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("bill chunk failed"),
				zap.Error(err),
				zap.Int("offset", offset),
			)
			return nil, err
		}

		report.addChunk(chunk.Result, chunk.Processed)
		offset = chunk.NextOffset

		if !chunk.HasMore {
			logger.InfoWf(ctx, "Bill sync completed",
				zap.Int("processed", report.Processed),
				zap.Int("inserted", report.Inserted),
				zap.Int("updated", report.Updated),
				zap.Int("errors", report.Errors),
				zap.Int("chunks", report.Chunks),
			)
			return report, nil
		}
	}

	logger.InfoWf(ctx, "Bill sync continuing as new execution",
		zap.Int("offset", offset),
		zap.Int("chunks", report.Chunks),
	)
	return nil, workflow.NewContinueAsNewError(ctx, w.SyncBillsWorkflow, BillSyncParams{
		Offset:      offset,
		Incremental: params.Incremental,
		CarryOver:   report,
	})
}

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

// SyncMembersWorkflow runs a member roster sync
func (w *workerCore) SyncMembersWorkflow(ctx workflow.Context, params MemberSyncParams) (*sync.Result, error) {
	logger.InfoWf(ctx, "Starting member sync", zap.Bool("force", params.Force))

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var result sync.Result
	err := workflow.ExecuteActivity(ctx, w.executor.SyncMembers, params.Force).Get(ctx, &result)
	if err != nil {
		logger.ErrorWf(ctx, fmt.Errorf("member sync failed"), zap.Error(err))
		return nil, err
	}

	logger.InfoWf(ctx, "Member sync completed",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
	)
	return &result, nil
}

// SyncZipDistrictsWorkflow reloads the ZIP-to-district dataset
func (w *workerCore) SyncZipDistrictsWorkflow(ctx workflow.Context) error {
	logger.InfoWf(ctx, "Starting zip district sync")

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	err := workflow.ExecuteActivity(ctx, w.executor.SyncZipDistricts).Get(ctx, nil)
	if err != nil {
		logger.ErrorWf(ctx, fmt.Errorf("zip district sync failed"), zap.Error(err))
		return err
	}

	logger.InfoWf(ctx, "Zip district sync completed")
	return nil
}

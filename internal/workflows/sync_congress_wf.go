package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/sync"
)

// SyncCongressWorkflow runs a full sync. Members go first since votes
// and bill sponsors resolve against the member table; bills and both
// vote feeds then run as concurrent child workflows.
func (w *workerCore) SyncCongressWorkflow(ctx workflow.Context, params CongressSyncParams) (*SyncReport, error) {
	logger.InfoWf(ctx, "Starting full congress sync",
		zap.Bool("force", params.Force),
		zap.Bool("incremental", params.Incremental),
	)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var memberResult sync.Result
	err := workflow.ExecuteActivity(ctx, w.executor.SyncMembers, params.Force).Get(ctx, &memberResult)
	if err != nil {
		logger.ErrorWf(ctx, fmt.Errorf("member phase failed"), zap.Error(err))
		return nil, err
	}

	childOptions := workflow.ChildWorkflowOptions{
		WorkflowExecutionTimeout: 12 * time.Hour,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}
	childCtx := workflow.WithChildOptions(ctx, childOptions)

	billFuture := workflow.ExecuteChildWorkflow(childCtx, w.SyncBillsWorkflow, BillSyncParams{
		Incremental: params.Incremental,
	})
	houseFuture := workflow.ExecuteChildWorkflow(childCtx, w.SyncHouseVotesWorkflow, HouseVoteSyncParams{
		Incremental: params.Incremental,
	})
	senateFuture := workflow.ExecuteChildWorkflow(childCtx, w.SyncSenateVotesWorkflow, SenateVoteSyncParams{
		Incremental: params.Incremental,
	})

	report := &SyncReport{}
	report.addChunk(memberResult, 0)

	var firstErr error
	for _, phase := range []struct {
		name   string
		future workflow.ChildWorkflowFuture
	}{
		{"bills", billFuture},
		{"house votes", houseFuture},
		{"senate votes", senateFuture},
	} {
		var phaseReport SyncReport
		if err := phase.future.Get(ctx, &phaseReport); err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("%s phase failed", phase.name), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s phase: %w", phase.name, err)
			}
			continue
		}
		report.merge(&phaseReport)
	}

	if firstErr != nil {
		return report, firstErr
	}

	logger.InfoWf(ctx, "Full congress sync completed",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

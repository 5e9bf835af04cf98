package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/sync"
	"github.com/democracy-watch/congress-indexer/internal/workflows"
)

// stubExecutor satisfies the activity interface; behavior comes from
// the test environment's activity mocks
type stubExecutor struct{}

func (s *stubExecutor) SyncMembers(context.Context, bool) (*sync.Result, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubExecutor) SyncBillChunk(context.Context, sync.BillChunkParams) (*sync.ChunkResult, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubExecutor) SyncHouseVoteChunk(context.Context, sync.HouseChunkParams) (*sync.ChunkResult, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubExecutor) SyncSenateVoteChunk(context.Context, sync.SenateChunkParams) (*sync.SenateChunkResult, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubExecutor) SyncZipDistricts(context.Context) (*geo.ZipDistrictLoadResult, error) {
	return nil, errors.New("not stubbed")
}

func (s *stubExecutor) MarkEntitySynced(context.Context, string) error {
	return errors.New("not stubbed")
}

// SyncWorkflowTestSuite is the test suite for the sync workflows
type SyncWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env        *testsuite.TestWorkflowEnvironment
	executor   *stubExecutor
	workerCore workflows.WorkerCore
}

func (s *SyncWorkflowTestSuite) SetupTest() {
	_ = logger.Initialize(logger.Config{
		Debug: true,
	})

	s.env = s.NewTestWorkflowEnvironment()
	s.executor = &stubExecutor{}
	s.workerCore = workflows.NewWorkerCore(s.executor, workflows.WorkerCoreConfig{
		MaxChunksPerRun: 10,
	})
}

func (s *SyncWorkflowTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func TestSyncWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(SyncWorkflowTestSuite))
}

func (s *SyncWorkflowTestSuite) TestSyncMembersWorkflow_Success() {
	s.env.OnActivity(s.executor.SyncMembers, mock.Anything, true).Return(
		&sync.Result{Inserted: 535}, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncMembersWorkflow, workflows.MemberSyncParams{Force: true})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result sync.Result
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(535, result.Inserted)
}

func (s *SyncWorkflowTestSuite) TestSyncMembersWorkflow_ActivityError() {
	s.env.OnActivity(s.executor.SyncMembers, mock.Anything, false).Return(
		nil, errors.New("upstream down"))

	s.env.ExecuteWorkflow(s.workerCore.SyncMembersWorkflow, workflows.MemberSyncParams{})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *SyncWorkflowTestSuite) TestSyncBillsWorkflow_LoopsUntilExhausted() {
	s.env.OnActivity(s.executor.SyncBillChunk, mock.Anything, mock.Anything).Return(
		func(_ context.Context, params sync.BillChunkParams) (*sync.ChunkResult, error) {
			chunk := &sync.ChunkResult{
				Result:     sync.Result{Inserted: 5},
				Processed:  5,
				NextOffset: params.Offset + 5,
			}
			chunk.HasMore = chunk.NextOffset < 15
			return chunk, nil
		})

	s.env.ExecuteWorkflow(s.workerCore.SyncBillsWorkflow, workflows.BillSyncParams{})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var report workflows.SyncReport
	s.NoError(s.env.GetWorkflowResult(&report))
	s.Equal(15, report.Inserted)
	s.Equal(15, report.Processed)
	s.Equal(3, report.Chunks)
}

func (s *SyncWorkflowTestSuite) TestSyncBillsWorkflow_ContinuesAsNewAtChunkBound() {
	s.workerCore = workflows.NewWorkerCore(s.executor, workflows.WorkerCoreConfig{
		MaxChunksPerRun: 2,
	})

	s.env.OnActivity(s.executor.SyncBillChunk, mock.Anything, mock.Anything).Return(
		func(_ context.Context, params sync.BillChunkParams) (*sync.ChunkResult, error) {
			return &sync.ChunkResult{
				Result:     sync.Result{Inserted: 5},
				Processed:  5,
				HasMore:    true,
				NextOffset: params.Offset + 5,
			}, nil
		})

	s.env.ExecuteWorkflow(s.workerCore.SyncBillsWorkflow, workflows.BillSyncParams{})

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Error(err)

	var continueAsNew *workflow.ContinueAsNewError
	s.True(errors.As(err, &continueAsNew), "expected continue-as-new, got %v", err)
}

func (s *SyncWorkflowTestSuite) TestSyncHouseVotesWorkflow_ResumesFromOffset() {
	var offsets []int
	s.env.OnActivity(s.executor.SyncHouseVoteChunk, mock.Anything, mock.Anything).Return(
		func(_ context.Context, params sync.HouseChunkParams) (*sync.ChunkResult, error) {
			offsets = append(offsets, params.Offset)
			chunk := &sync.ChunkResult{
				Result:     sync.Result{Inserted: 10},
				Processed:  10,
				NextOffset: params.Offset + 10,
			}
			chunk.HasMore = len(offsets) < 2
			return chunk, nil
		})

	s.env.ExecuteWorkflow(s.workerCore.SyncHouseVotesWorkflow, workflows.HouseVoteSyncParams{Offset: 40, Incremental: true})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal([]int{40, 50}, offsets)
}

func (s *SyncWorkflowTestSuite) TestSyncSenateVotesWorkflow_CoversBothSessions() {
	var probes []sync.SenateChunkParams
	s.env.OnActivity(s.executor.SyncSenateVoteChunk, mock.Anything, mock.Anything).Return(
		func(_ context.Context, params sync.SenateChunkParams) (*sync.SenateChunkResult, error) {
			probes = append(probes, params)
			return &sync.SenateChunkResult{
				Result:     sync.Result{Inserted: 3},
				Processed:  3,
				HasMore:    false,
				NextNumber: params.StartNumber + 3,
			}, nil
		})
	s.env.OnActivity(s.executor.MarkEntitySynced, mock.Anything, sync.EntitySenateVotes).Return(nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncSenateVotesWorkflow, workflows.SenateVoteSyncParams{})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	s.Len(probes, 2)
	s.Equal(1, probes[0].Session)
	s.Equal(2, probes[1].Session)
	s.Equal(0, probes[1].StartNumber, "session 2 starts from the beginning")

	var report workflows.SyncReport
	s.NoError(s.env.GetWorkflowResult(&report))
	s.Equal(6, report.Inserted)
}

func (s *SyncWorkflowTestSuite) TestSyncCongressWorkflow_MembersFirstThenChildren() {
	s.env.RegisterWorkflow(s.workerCore.SyncBillsWorkflow)
	s.env.RegisterWorkflow(s.workerCore.SyncHouseVotesWorkflow)
	s.env.RegisterWorkflow(s.workerCore.SyncSenateVotesWorkflow)

	s.env.OnActivity(s.executor.SyncMembers, mock.Anything, false).Return(
		&sync.Result{Inserted: 535}, nil)
	s.env.OnWorkflow(s.workerCore.SyncBillsWorkflow, mock.Anything, mock.Anything).Return(
		&workflows.SyncReport{Inserted: 20, Processed: 20, Chunks: 1}, nil)
	s.env.OnWorkflow(s.workerCore.SyncHouseVotesWorkflow, mock.Anything, mock.Anything).Return(
		&workflows.SyncReport{Inserted: 30, Processed: 30, Chunks: 1}, nil)
	s.env.OnWorkflow(s.workerCore.SyncSenateVotesWorkflow, mock.Anything, mock.Anything).Return(
		&workflows.SyncReport{Inserted: 10, Processed: 10, Chunks: 1}, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncCongressWorkflow, workflows.CongressSyncParams{Incremental: false})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var report workflows.SyncReport
	s.NoError(s.env.GetWorkflowResult(&report))
	s.Equal(595, report.Inserted)
	s.Equal(60, report.Processed)
}

func (s *SyncWorkflowTestSuite) TestSyncCongressWorkflow_MemberPhaseFailureAborts() {
	s.env.OnActivity(s.executor.SyncMembers, mock.Anything, false).Return(
		nil, errors.New("congress API unavailable"))

	s.env.ExecuteWorkflow(s.workerCore.SyncCongressWorkflow, workflows.CongressSyncParams{})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *SyncWorkflowTestSuite) TestSyncZipDistrictsWorkflow_Success() {
	s.env.OnActivity(s.executor.SyncZipDistricts, mock.Anything).Return(
		&geo.ZipDistrictLoadResult{Inserted: 40000}, nil)

	s.env.ExecuteWorkflow(s.workerCore.SyncZipDistrictsWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

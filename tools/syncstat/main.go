// Command syncstat reports on a congress sync workflow execution: the
// run chain left behind by continue-as-new, the per-entity child
// workflows, and how long each phase took. Useful after a full-congress
// backfill to see where the time went.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

const (
	defaultTemporalHost = "localhost:7233"
	defaultNamespace    = "congress-indexer"
	defaultQueryTimeout = 30 * time.Second
)

type config struct {
	TemporalHost string
	Namespace    string
	WorkflowID   string
	QueryTimeout time.Duration
	PageSize     int
}

// runChainStats aggregates all runs sharing one workflow ID, which is
// how continue-as-new chains and retries show up in visibility
type runChainStats struct {
	WorkflowType string
	Runs         int
	Completed    int
	Failed       int
	Running      int
	FirstStart   time.Time
	LastClose    *time.Time
	TotalRunTime time.Duration
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHost,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to Temporal at %s: %v\n", cfg.TemporalHost, err)
		os.Exit(1)
	}
	defer c.Close()

	parent, err := collectRuns(ctx, c, cfg, fmt.Sprintf("WorkflowId = '%s'", cfg.WorkflowID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to query workflow %s: %v\n", cfg.WorkflowID, err)
		os.Exit(1)
	}
	if len(parent) == 0 {
		fmt.Fprintf(os.Stderr, "workflow %s not found in namespace %s\n", cfg.WorkflowID, cfg.Namespace)
		os.Exit(1)
	}

	children, err := collectRuns(ctx, c, cfg, fmt.Sprintf("ParentWorkflowId = '%s'", cfg.WorkflowID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to query child workflows: %v\n", err)
		os.Exit(1)
	}

	printReport(cfg.WorkflowID, groupByWorkflowID(parent), groupByWorkflowID(children))
}

func parseFlags() *config {
	cfg := &config{}
	flag.StringVar(&cfg.TemporalHost, "temporal-host", defaultTemporalHost, "Temporal server host:port")
	flag.StringVar(&cfg.Namespace, "namespace", defaultNamespace, "Temporal namespace")
	flag.StringVar(&cfg.WorkflowID, "workflow-id", "", "Workflow ID of the sync execution (required)")
	flag.DurationVar(&cfg.QueryTimeout, "query-timeout", defaultQueryTimeout, "Timeout for Temporal visibility queries")
	flag.IntVar(&cfg.PageSize, "page-size", 100, "Page size for Temporal queries")
	flag.Parse()

	if cfg.WorkflowID == "" {
		fmt.Fprintln(os.Stderr, "Usage: syncstat -workflow-id <id> [-temporal-host host:port] [-namespace ns]")
		os.Exit(2)
	}
	return cfg
}

// collectRuns pages through all visibility records matching the query
func collectRuns(ctx context.Context, c client.Client, cfg *config, query string) ([]*workflowpb.WorkflowExecutionInfo, error) {
	var executions []*workflowpb.WorkflowExecutionInfo
	var nextPageToken []byte
	for {
		resp, err := c.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
			Namespace:     cfg.Namespace,
			Query:         query,
			PageSize:      int32(cfg.PageSize),
			NextPageToken: nextPageToken,
		})
		if err != nil {
			return nil, err
		}
		executions = append(executions, resp.Executions...)
		nextPageToken = resp.NextPageToken
		if len(nextPageToken) == 0 {
			return executions, nil
		}
	}
}

func groupByWorkflowID(executions []*workflowpb.WorkflowExecutionInfo) map[string]*runChainStats {
	chains := make(map[string]*runChainStats)
	for _, exec := range executions {
		id := exec.Execution.WorkflowId
		chain, ok := chains[id]
		if !ok {
			chain = &runChainStats{
				WorkflowType: exec.Type.Name,
				FirstStart:   exec.StartTime.AsTime(),
			}
			chains[id] = chain
		}
		chain.Runs++

		start := exec.StartTime.AsTime()
		if start.Before(chain.FirstStart) {
			chain.FirstStart = start
		}
		if exec.CloseTime != nil {
			closeTime := exec.CloseTime.AsTime()
			chain.TotalRunTime += closeTime.Sub(start)
			if chain.LastClose == nil || closeTime.After(*chain.LastClose) {
				chain.LastClose = &closeTime
			}
		} else {
			chain.TotalRunTime += time.Since(start)
		}

		switch exec.Status {
		case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED,
			enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
			chain.Completed++
		case enums.WORKFLOW_EXECUTION_STATUS_RUNNING:
			chain.Running++
		default:
			chain.Failed++
		}
	}
	return chains
}

func printReport(workflowID string, parents, children map[string]*runChainStats) {
	fmt.Printf("Sync execution %s\n\n", workflowID)

	if parent, ok := parents[workflowID]; ok {
		wallClock := time.Since(parent.FirstStart)
		if parent.LastClose != nil {
			wallClock = parent.LastClose.Sub(parent.FirstStart)
		}
		fmt.Printf("  %-28s runs=%-3d completed=%-3d failed=%-3d running=%-3d wall=%s\n\n",
			parent.WorkflowType, parent.Runs, parent.Completed, parent.Failed, parent.Running,
			wallClock.Round(time.Second))
	}

	if len(children) == 0 {
		fmt.Println("  no child workflows found")
		return
	}

	ids := make([]string, 0, len(children))
	for id := range children {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("  Child workflows:")
	for _, id := range ids {
		chain := children[id]
		status := "running"
		if chain.Running == 0 {
			status = "done"
			if chain.Failed > 0 {
				status = "failed"
			}
		}
		fmt.Printf("    %-26s %-8s runs=%-3d busy=%s\n",
			chain.WorkflowType, status, chain.Runs, chain.TotalRunTime.Round(time.Second))
	}
}

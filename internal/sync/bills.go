package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
	"github.com/democracy-watch/congress-indexer/internal/store"
)

// BillChunkParams bounds one bill sync invocation
type BillChunkParams struct {
	// Offset is the list offset to resume from
	Offset int
	// ChunkSize caps bills processed this invocation; 0 uses the configured default
	ChunkSize int
	// Incremental restricts the list to bills updated since the last completed sync
	Incremental bool
}

// SyncBills processes one chunk of the bill list. Each bill is synced
// in two phases: a cheap upsert from the list record, then an
// enrichment round fetching the detail, summaries and subjects
// endpoints. Per-bill failures are counted and skipped; page fetch
// failures abort the chunk so a retry can resume at the same offset.
func (s *Service) SyncBills(ctx context.Context, params BillChunkParams) (*ChunkResult, error) {
	chunkSize := params.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.cfg.BillChunkSize
	}

	fromDateTime := ""
	if params.Incremental {
		lastSync, err := s.store.GetLastSyncTime(ctx, EntityBills)
		if err != nil {
			return nil, fmt.Errorf("reading bill sync metadata: %w", err)
		}
		if lastSync != nil {
			fromDateTime = lastSync.UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	result := &ChunkResult{NextOffset: params.Offset}
	offset := params.Offset

	for result.Processed < chunkSize {
		limit := s.pageLimit()
		if remaining := chunkSize - result.Processed; remaining < limit {
			limit = remaining
		}

		page, err := s.congressAPI.GetBills(ctx, s.cfg.Congress, congressapi.PageOptions{
			Limit:  limit,
			Offset: offset,
		}, fromDateTime)
		if err != nil {
			return nil, fmt.Errorf("fetching bills at offset %d: %w", offset, err)
		}
		if len(page.Bills) == 0 {
			break
		}

		for _, raw := range page.Bills {
			s.syncBill(ctx, raw, &result.Result)
			result.Processed++
		}

		offset += len(page.Bills)
		result.NextOffset = offset

		if page.Pagination != nil {
			result.HasMore = offset < page.Pagination.Count
		} else {
			result.HasMore = len(page.Bills) == limit
		}
		if !result.HasMore {
			break
		}
	}

	if !result.HasMore {
		if err := s.store.SetLastSyncTime(ctx, EntityBills, s.clock.Now()); err != nil {
			logger.WarnCtx(ctx, "failed to record bill sync time", zap.Error(err))
		}
	}

	logger.InfoCtx(ctx, "bill chunk complete",
		zap.Int("processed", result.Processed),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Bool("hasMore", result.HasMore),
		zap.Int("nextOffset", result.NextOffset))
	return result, nil
}

// syncBill runs both phases for one bill, counting rather than
// propagating failures
func (s *Service) syncBill(ctx context.Context, raw congressapi.Bill, result *Result) {
	ref := domain.BillRef{
		Congress: raw.Congress,
		Type:     strings.ToLower(raw.Type),
		Number:   int(raw.Number),
	}

	bill := domain.Bill{
		BillRef:     ref,
		Title:       raw.Title,
		FullTextURL: domain.FullTextURL(ref),
	}
	if raw.LatestAction != nil {
		bill.LatestAction = raw.LatestAction.Text
		if actionDate, ok := parseAPIDate(raw.LatestAction.ActionDate); ok {
			bill.LatestActionDate = &actionDate
		}
	}

	_, created, err := s.store.UpsertBill(ctx, bill)
	if err != nil {
		result.Errors++
		logger.WarnCtx(ctx, "failed to upsert bill",
			zap.String("bill", ref.String()),
			zap.Error(err))
		return
	}
	if created {
		result.Inserted++
	} else {
		result.Updated++
	}

	if err := s.enrichBill(ctx, ref); err != nil {
		result.Errors++
		logger.WarnCtx(ctx, "failed to enrich bill",
			zap.String("bill", ref.String()),
			zap.Error(err))
	}
}

// enrichBill fetches the bill's detail endpoints and merges the result
// into the stored record
func (s *Service) enrichBill(ctx context.Context, ref domain.BillRef) error {
	detailResp, err := s.congressAPI.GetBill(ctx, ref.Congress, ref.Type, ref.Number)
	if err != nil {
		return fmt.Errorf("fetching detail: %w", err)
	}
	detail := detailResp.Bill

	enrichment := store.BillEnrichment{}

	if introduced, ok := parseAPIDate(detail.IntroducedDate); ok {
		enrichment.IntroducedDate = &introduced
	}

	if len(detail.Sponsors) > 0 && detail.Sponsors[0].BioguideID != "" {
		sponsor, err := s.store.GetMemberByBioguideID(ctx, detail.Sponsors[0].BioguideID)
		if err != nil {
			return fmt.Errorf("looking up sponsor: %w", err)
		}
		if sponsor != nil {
			enrichment.SponsorID = &sponsor.ID
		}
	}

	if detail.PolicyArea != nil && detail.PolicyArea.Name != "" {
		policyArea, err := s.store.EnsurePolicyArea(ctx, detail.PolicyArea.Name)
		if err != nil {
			return fmt.Errorf("ensuring policy area: %w", err)
		}
		enrichment.PolicyAreaID = &policyArea.ID
	}

	if detail.Summaries != nil && detail.Summaries.Count > 0 {
		summariesResp, err := s.congressAPI.GetBillSummaries(ctx, ref.Congress, ref.Type, ref.Number)
		if err != nil {
			return fmt.Errorf("fetching summaries: %w", err)
		}
		if summary, ok := latestSummary(summariesResp.Summaries); ok {
			text := domain.StripHTML(summary.Text)
			enrichment.Summary = &text
		}
	}

	if detail.Subjects != nil && detail.Subjects.Count > 0 {
		subjectsResp, err := s.congressAPI.GetBillSubjects(ctx, ref.Congress, ref.Type, ref.Number)
		if err != nil {
			return fmt.Errorf("fetching subjects: %w", err)
		}
		subjects := make([]string, 0, len(subjectsResp.Subjects.LegislativeSubjects))
		for _, subject := range subjectsResp.Subjects.LegislativeSubjects {
			if subject.Name != "" {
				subjects = append(subjects, subject.Name)
			}
		}
		enrichment.Subjects = subjects
	}

	return s.store.EnrichBill(ctx, ref, enrichment)
}

// latestSummary picks the most recent summary version. Action dates are
// ISO formatted so string comparison orders them; the update date
// breaks ties.
func latestSummary(summaries []congressapi.BillSummary) (congressapi.BillSummary, bool) {
	if len(summaries) == 0 {
		return congressapi.BillSummary{}, false
	}

	latest := summaries[0]
	for _, candidate := range summaries[1:] {
		if candidate.ActionDate > latest.ActionDate {
			latest = candidate
			continue
		}
		if candidate.ActionDate == latest.ActionDate && candidate.UpdateDate > latest.UpdateDate {
			latest = candidate
		}
	}
	return latest, true
}

func parseAPIDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

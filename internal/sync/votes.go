package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
)

// firstCongressYear is the year the 1st Congress convened; each
// congress spans two calendar years from there.
const firstCongressYear = 1789

// HouseChunkParams bounds one House vote sync invocation
type HouseChunkParams struct {
	// Offset is the vote list offset to resume from
	Offset int
	// MaxRollCalls caps roll calls fetched this invocation; 0 uses the configured default
	MaxRollCalls int
	// Incremental skips roll calls already in the store
	Incremental bool
}

// SyncHouseVotes processes one chunk of House roll calls. The list
// endpoint supplies cheap stubs; each new roll call costs a Clerk XML
// fetch, so the chunk cap counts fetches rather than stubs and
// incremental skips pass through for free.
func (s *Service) SyncHouseVotes(ctx context.Context, params HouseChunkParams) (*ChunkResult, error) {
	maxRollCalls := params.MaxRollCalls
	if maxRollCalls <= 0 {
		maxRollCalls = s.cfg.HouseMaxRollCalls
	}

	result := &ChunkResult{NextOffset: params.Offset}
	offset := params.Offset
	limit := s.pageLimit()

	for {
		page, err := s.congressAPI.GetHouseVotes(ctx, s.cfg.Congress, congressapi.PageOptions{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching house votes at offset %d: %w", offset, err)
		}
		if len(page.HouseRollCallVotes) == 0 {
			break
		}

		for i, stub := range page.HouseRollCallVotes {
			if result.Processed >= maxRollCalls {
				result.HasMore = true
				result.NextOffset = offset + i
				logger.InfoCtx(ctx, "house vote chunk cap reached",
					zap.Int("processed", result.Processed),
					zap.Int("nextOffset", result.NextOffset))
				return result, nil
			}

			if params.Incremental {
				exists, err := s.store.RollCallExists(ctx, stub.Congress, domain.ChamberHouse, stub.SessionNumber, stub.RollCallNumber)
				if err != nil {
					return nil, fmt.Errorf("checking roll call %d: %w", stub.RollCallNumber, err)
				}
				if exists {
					result.Skipped++
					continue
				}
			}

			if err := s.ingestHouseRollCall(ctx, stub); err != nil {
				result.Errors++
				logger.WarnCtx(ctx, "failed to sync house roll call",
					zap.Int("rollCall", stub.RollCallNumber),
					zap.Int("session", stub.SessionNumber),
					zap.Error(err))
			} else {
				result.Inserted++
			}
			result.Processed++
		}

		offset += len(page.HouseRollCallVotes)
		result.NextOffset = offset

		if page.Pagination != nil {
			if offset >= page.Pagination.Count {
				break
			}
		} else if len(page.HouseRollCallVotes) < limit {
			break
		}
	}

	result.HasMore = false
	if err := s.store.SetLastSyncTime(ctx, EntityHouseVotes, s.clock.Now()); err != nil {
		logger.WarnCtx(ctx, "failed to record house vote sync time", zap.Error(err))
	}

	logger.InfoCtx(ctx, "house vote chunk complete",
		zap.Int("processed", result.Processed),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
	return result, nil
}

// ingestHouseRollCall fetches the full Clerk record for one stub and
// stores it. The stub's congress and session are authoritative over the
// sometimes ordinal-formatted values in the XML.
func (s *Service) ingestHouseRollCall(ctx context.Context, stub congressapi.HouseVote) error {
	year := houseSessionYear(stub)
	rollCall, err := s.houseClerk.GetRollCall(ctx, year, stub.RollCallNumber)
	if err != nil {
		return err
	}

	if stub.Congress > 0 {
		rollCall.Congress = stub.Congress
	}
	if stub.SessionNumber > 0 {
		rollCall.Session = stub.SessionNumber
	}
	return s.storeRollCall(ctx, rollCall)
}

// houseSessionYear resolves the calendar year of a roll call, needed to
// build the Clerk URL. The stub's start date wins when parseable.
func houseSessionYear(stub congressapi.HouseVote) int {
	if stub.StartDate != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, stub.StartDate); err == nil {
				return parsed.Year()
			}
		}
	}

	session := stub.SessionNumber
	if session < 1 || session > 2 {
		session = 1
	}
	return firstCongressYear + 2*(stub.Congress-1) + (session - 1)
}

// SenateChunkParams bounds one Senate vote sync invocation. Senate roll
// calls have no list endpoint, so the sync probes vote numbers
// sequentially within a session.
type SenateChunkParams struct {
	// Session is the session of congress to probe (1 or 2)
	Session int
	// StartNumber is the roll call number to resume from; 0 starts at 1
	StartNumber int
	// MaxRollCalls caps roll calls fetched this invocation; 0 uses the configured default
	MaxRollCalls int
	// Incremental skips roll calls already in the store
	Incremental bool
}

// SyncSenateVotes processes one chunk of Senate roll calls for a single
// session, probing numbers sequentially from the resume point. A run of
// consecutive not-found responses past the configured limit marks the
// session exhausted; hitting the chunk cap reports HasMore with the
// number to resume from.
func (s *Service) SyncSenateVotes(ctx context.Context, params SenateChunkParams) (*SenateChunkResult, error) {
	if params.Session < 1 || params.Session > 2 {
		return nil, fmt.Errorf("invalid senate session %d", params.Session)
	}

	maxRollCalls := params.MaxRollCalls
	if maxRollCalls <= 0 {
		maxRollCalls = s.cfg.SenateMaxRollCalls
	}
	notFoundLimit := s.cfg.SenateNotFoundLimit
	if notFoundLimit <= 0 {
		notFoundLimit = 1
	}

	number := params.StartNumber
	if number <= 0 {
		number = 1
	}

	result := &SenateChunkResult{NextNumber: number}
	consecutiveNotFound := 0

	for result.Processed < maxRollCalls {
		if params.Incremental {
			exists, err := s.store.RollCallExists(ctx, s.cfg.Congress, domain.ChamberSenate, params.Session, number)
			if err != nil {
				return nil, fmt.Errorf("checking roll call %d: %w", number, err)
			}
			if exists {
				result.Skipped++
				consecutiveNotFound = 0
				number++
				result.NextNumber = number
				continue
			}
		}

		rollCall, err := s.senateGov.GetRollCall(ctx, s.cfg.Congress, params.Session, number)
		if errors.Is(err, domain.ErrNotFound) {
			consecutiveNotFound++
			if consecutiveNotFound >= notFoundLimit {
				logger.InfoCtx(ctx, "senate session exhausted",
					zap.Int("session", params.Session),
					zap.Int("lastProbed", number),
					zap.Int("processed", result.Processed))
				return result, nil
			}
			number++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching senate roll call %d: %w", number, err)
		}

		consecutiveNotFound = 0
		if err := s.storeRollCall(ctx, rollCall); err != nil {
			result.Errors++
			logger.WarnCtx(ctx, "failed to sync senate roll call",
				zap.Int("rollCall", number),
				zap.Int("session", params.Session),
				zap.Error(err))
		} else {
			result.Inserted++
		}
		result.Processed++
		number++
		result.NextNumber = number
	}

	result.HasMore = true
	logger.InfoCtx(ctx, "senate vote chunk cap reached",
		zap.Int("session", params.Session),
		zap.Int("processed", result.Processed),
		zap.Int("nextNumber", result.NextNumber))
	return result, nil
}

// storeRollCall persists a roll call with its individual votes and
// refreshes the derived party breakdown
func (s *Service) storeRollCall(ctx context.Context, rollCall *domain.RollCall) error {
	var billID *string
	if rollCall.Bill != nil {
		bill, err := s.store.GetBillByRef(ctx, *rollCall.Bill)
		if err != nil {
			return fmt.Errorf("looking up bill %s: %w", rollCall.Bill.String(), err)
		}
		if bill != nil {
			billID = &bill.ID
		} else {
			logger.DebugCtx(ctx, "roll call references unknown bill",
				zap.String("bill", rollCall.Bill.String()),
				zap.Int("rollCall", rollCall.Number))
		}
	}

	saved, err := s.store.UpsertRollCall(ctx, rollCall, billID)
	if err != nil {
		return fmt.Errorf("upserting roll call: %w", err)
	}

	missing := 0
	var missingSample []string
	for _, vote := range rollCall.Votes {
		memberID, err := s.resolveVoteMember(ctx, rollCall.Chamber, vote)
		if err != nil {
			if errors.Is(err, domain.ErrMemberNotFound) {
				missing++
				if len(missingSample) < s.cfg.MissingMemberLogSample {
					missingSample = append(missingSample, voteMemberLabel(vote))
				}
				continue
			}
			return fmt.Errorf("resolving vote member: %w", err)
		}

		if err := s.store.UpsertVote(ctx, memberID, saved.ID, vote.Position, billID); err != nil {
			return fmt.Errorf("upserting vote: %w", err)
		}
	}

	if missing > 0 {
		logger.WarnCtx(ctx, "skipped votes for unmatched members",
			zap.Int("rollCall", rollCall.Number),
			zap.String("chamber", string(rollCall.Chamber)),
			zap.Int("missing", missing),
			zap.Strings("sample", missingSample))
	}

	if err := s.store.UpdateRollCallBreakdown(ctx, saved.ID); err != nil {
		logger.WarnCtx(ctx, "failed to update party breakdown",
			zap.String("rollCallID", saved.ID),
			zap.Error(err))
	}
	return nil
}

// resolveVoteMember maps a recorded vote to a stored member. House
// votes match by bioguide ID. Senate votes match by LIS ID, falling
// back to last name plus state; a fallback match backfills the LIS ID
// so later roll calls take the fast path.
func (s *Service) resolveVoteMember(ctx context.Context, chamber domain.Chamber, vote domain.RecordedVote) (string, error) {
	if chamber == domain.ChamberHouse {
		member, err := s.store.GetMemberByBioguideID(ctx, vote.BioguideID)
		if err != nil {
			return "", err
		}
		if member == nil {
			return "", fmt.Errorf("%w: bioguide %s", domain.ErrMemberNotFound, vote.BioguideID)
		}
		return member.ID, nil
	}

	if vote.LisID != "" {
		member, err := s.store.GetMemberByLisID(ctx, vote.LisID)
		if err != nil {
			return "", err
		}
		if member != nil {
			return member.ID, nil
		}
	}

	lastName := senateLastName(vote.Name)
	if lastName == "" || vote.State == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrMemberNotFound, voteMemberLabel(vote))
	}

	member, err := s.store.FindSenatorByNameAndState(ctx, lastName, vote.State)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrMemberNotFound, voteMemberLabel(vote))
	}

	if vote.LisID != "" && member.LisID == nil {
		if err := s.store.SetMemberLisID(ctx, member.ID, vote.LisID); err != nil {
			logger.WarnCtx(ctx, "failed to backfill LIS ID",
				zap.String("memberID", member.ID),
				zap.String("lisID", vote.LisID),
				zap.Error(err))
		}
	}
	return member.ID, nil
}

// senateLastName extracts the last name from the Senate XML member
// label, formatted "Baldwin (D-WI)"
func senateLastName(memberFull string) string {
	name, _, _ := strings.Cut(memberFull, " (")
	return strings.TrimSpace(name)
}

func voteMemberLabel(vote domain.RecordedVote) string {
	if vote.BioguideID != "" {
		return vote.BioguideID
	}
	if vote.LisID != "" {
		return fmt.Sprintf("%s (%s)", vote.LisID, vote.State)
	}
	return fmt.Sprintf("%s (%s)", vote.Name, vote.State)
}

// BackfillBreakdowns recomputes the party breakdown for every stored
// roll call
func (s *Service) BackfillBreakdowns(ctx context.Context) (int, error) {
	return s.store.BackfillPartyBreakdowns(ctx)
}

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
)

// SyncMembers runs a full member pass for the configured congress. The
// member roster is small enough to finish in one pass, so there is no
// chunking; instead the pass is skipped entirely when the last run is
// within the freshness window, unless force is set.
func (s *Service) SyncMembers(ctx context.Context, force bool) (*Result, error) {
	lastSync, err := s.store.GetLastSyncTime(ctx, EntityMembers)
	if err != nil {
		return nil, fmt.Errorf("reading member sync metadata: %w", err)
	}

	if !force && lastSync != nil && s.clock.Now().Sub(*lastSync) < s.cfg.MemberFreshnessWindow {
		logger.InfoCtx(ctx, "members synced recently, skipping",
			zap.Time("lastSyncAt", *lastSync),
			zap.Duration("freshnessWindow", s.cfg.MemberFreshnessWindow))
		return &Result{}, nil
	}

	result := &Result{}
	limit := s.pageLimit()
	offset := 0

	for {
		page, err := s.congressAPI.GetMembers(ctx, s.cfg.Congress, congressapi.PageOptions{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching members at offset %d: %w", offset, err)
		}
		if len(page.Members) == 0 {
			break
		}

		for _, raw := range page.Members {
			member, err := normalizeMember(raw)
			if err != nil {
				result.Errors++
				logger.WarnCtx(ctx, "skipping malformed member record",
					zap.String("bioguideID", raw.BioguideID),
					zap.Error(err))
				continue
			}

			_, created, err := s.store.UpsertMember(ctx, member)
			if err != nil {
				result.Errors++
				logger.WarnCtx(ctx, "failed to upsert member",
					zap.String("bioguideID", member.BioguideID),
					zap.Error(err))
				continue
			}

			if created {
				result.Inserted++
			} else {
				result.Updated++
			}
		}

		offset += len(page.Members)
		if len(page.Members) < limit {
			break
		}
		if page.Pagination != nil && offset >= page.Pagination.Count {
			break
		}
	}

	if err := s.store.SetLastSyncTime(ctx, EntityMembers, s.clock.Now()); err != nil {
		logger.WarnCtx(ctx, "failed to record member sync time", zap.Error(err))
	}

	logger.InfoCtx(ctx, "member sync complete",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors))
	return result, nil
}

// normalizeMember converts a raw member list record into the normalized
// form. The list endpoint reports names as "Last, First" and districts
// as numbers, with district 0 meaning an at-large seat.
func normalizeMember(raw congressapi.Member) (domain.Member, error) {
	if raw.BioguideID == "" {
		return domain.Member{}, fmt.Errorf("member record missing bioguide ID")
	}

	term, ok := currentTerm(raw.Terms.Item)
	if !ok {
		return domain.Member{}, fmt.Errorf("member %s has no terms", raw.BioguideID)
	}

	chamber, err := chamberFromTerm(term.Chamber)
	if err != nil {
		return domain.Member{}, fmt.Errorf("member %s: %w", raw.BioguideID, err)
	}

	firstName, lastName := splitMemberName(raw.Name)

	district := ""
	if chamber == domain.ChamberHouse {
		if raw.District != nil && *raw.District > 0 {
			district = fmt.Sprintf("%02d", *raw.District)
		} else {
			district = "AL"
		}
	}

	var termStart *time.Time
	if term.StartYear > 0 {
		// Congressional terms begin January 3 by the 20th Amendment
		start := time.Date(term.StartYear, time.January, 3, 0, 0, 0, 0, time.UTC)
		termStart = &start
	}

	return domain.Member{
		BioguideID:       raw.BioguideID,
		FirstName:        firstName,
		LastName:         lastName,
		FullName:         strings.TrimSpace(firstName + " " + lastName),
		Party:            domain.NormalizeParty(raw.PartyName),
		StateCode:        raw.State,
		Chamber:          chamber,
		District:         district,
		CurrentTermStart: termStart,
		WebsiteURL:       raw.OfficialWebsiteURL,
		IsActive:         term.EndYear == nil,
	}, nil
}

// currentTerm picks the member's ongoing term, falling back to the most
// recent one for members who have left office.
func currentTerm(terms []congressapi.MemberTerm) (congressapi.MemberTerm, bool) {
	if len(terms) == 0 {
		return congressapi.MemberTerm{}, false
	}

	latest := terms[0]
	for _, term := range terms {
		if term.EndYear == nil {
			return term, true
		}
		if term.StartYear > latest.StartYear {
			latest = term
		}
	}
	return latest, true
}

func chamberFromTerm(chamber string) (domain.Chamber, error) {
	switch {
	case strings.Contains(chamber, "House"):
		return domain.ChamberHouse, nil
	case strings.Contains(chamber, "Senate"):
		return domain.ChamberSenate, nil
	default:
		return "", fmt.Errorf("unrecognized chamber %q", chamber)
	}
}

// splitMemberName splits a "Last, First Middle" name. Names without a
// comma are treated as a bare last name.
func splitMemberName(name string) (firstName string, lastName string) {
	last, first, found := strings.Cut(name, ",")
	if !found {
		return "", strings.TrimSpace(name)
	}
	return strings.TrimSpace(first), strings.TrimSpace(last)
}

func (s *Service) pageLimit() int {
	if s.cfg.PageLimit > 0 {
		return s.cfg.PageLimit
	}
	return congressapi.DefaultPageLimit
}

package houseclerk

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

const SOURCE_NAME = config.SourceHouseClerk

// Client defines the interface for House Clerk archive operations to enable mocking
type Client interface {
	// GetRollCall fetches and parses one House roll call. A vacated or
	// not-yet-published roll number yields domain.ErrNotFound.
	GetRollCall(ctx context.Context, year int, rollCallNumber int) (*domain.RollCall, error)
}

// HouseClerkClient implements the House Clerk archive client
type HouseClerkClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	baseURL        string
	clock          adapter.Clock
}

// NewClient creates a new House Clerk client
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, baseURL string, clock adapter.Clock) Client {
	return &HouseClerkClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		baseURL:        baseURL,
		clock:          clock,
	}
}

// GetRollCall fetches and parses one House roll call
func (c *HouseClerkClient) GetRollCall(ctx context.Context, year int, rollCallNumber int) (*domain.RollCall, error) {
	// Roll numbers are zero-padded to 3 digits (roll001.xml, roll296.xml)
	requestURL := fmt.Sprintf("%s/evs/%d/roll%03d.xml", c.baseURL, year, rollCallNumber)

	doc, err := ratelimit.Request(ctx, c.rateLimitProxy, SOURCE_NAME, func(ctx context.Context) (*rollCallXML, error) {
		var doc rollCallXML
		if err := c.httpClient.GetXML(ctx, requestURL, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch House roll call %d/%d: %w", year, rollCallNumber, err)
	}

	return c.parseRollCall(doc), nil
}

// parseRollCall normalizes a clerk.house.gov document into the
// canonical roll call record
func (c *HouseClerkClient) parseRollCall(doc *rollCallXML) *domain.RollCall {
	metadata := doc.Metadata
	congress := atoi(metadata.Congress)

	session := atoi(metadata.Session)
	if session == 0 {
		session = 1
	}

	date, ok := domain.ParseVoteDate(metadata.ActionDate, c.clock.Now())
	if !ok {
		logger.Warn("could not parse House vote date, using today",
			zap.String("action_date", metadata.ActionDate),
			zap.String("rollcall_num", metadata.RollCallNum))
	}

	rollCall := &domain.RollCall{
		Congress: congress,
		Chamber:  domain.ChamberHouse,
		Session:  session,
		Number:   atoi(metadata.RollCallNum),
		Date:     date,
		Question: strings.TrimSpace(metadata.VoteQuestion),
		Result:   strings.TrimSpace(metadata.VoteResult),
		Totals:   normalizeTotals(metadata.VoteTotals.TotalsByVote),
	}

	if ref, ok := domain.ParseLegisNum(metadata.LegisNum, congress); ok {
		rollCall.Bill = ref
	}

	for _, recorded := range doc.VoteData.RecordedVotes {
		// Votes without a bioguide ID cannot be attributed
		if recorded.Legislator.NameID == "" {
			continue
		}

		name := strings.TrimSpace(recorded.Legislator.Name)
		if name == "" {
			name = recorded.Legislator.UnaccentedName
		}

		rollCall.Votes = append(rollCall.Votes, domain.RecordedVote{
			BioguideID: recorded.Legislator.NameID,
			Name:       name,
			Party:      recorded.Legislator.Party,
			State:      recorded.Legislator.State,
			Position:   domain.NormalizeVotePosition(recorded.Vote),
		})
	}

	return rollCall
}

// normalizeTotals folds the archive's two totals shapes into one
// canonical struct. A single element carries named per-position counts;
// the repeated form carries one count per element keyed by vote type.
func normalizeTotals(entries []totalsByVoteXML) domain.VoteTotals {
	var totals domain.VoteTotals

	for _, entry := range entries {
		if entry.YeaTotal != nil || entry.NayTotal != nil {
			totals.Yea = atoiPtr(entry.YeaTotal)
			totals.Nay = atoiPtr(entry.NayTotal)
			totals.Present = atoiPtr(entry.PresentTotal)
			totals.NotVoting = atoiPtr(entry.NotVotingTotal)
			continue
		}

		voteType := entry.TotalType
		if voteType == "" {
			voteType = entry.VoteType
		}
		count := atoiPtr(entry.Total)

		switch strings.ToLower(strings.TrimSpace(voteType)) {
		case "yea":
			totals.Yea = count
		case "nay":
			totals.Nay = count
		case "present":
			totals.Present = count
		case "not-voting", "not voting":
			totals.NotVoting = count
		}
	}

	return totals
}

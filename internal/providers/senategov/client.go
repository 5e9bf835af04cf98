package senategov

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

const SOURCE_NAME = config.SourceSenateGov

// Client defines the interface for Senate.gov archive operations to enable mocking
type Client interface {
	// GetRollCall fetches and parses one Senate roll call. The archive
	// has no list endpoint, so callers probe sequential numbers and
	// treat domain.ErrNotFound as a gap or end-of-data signal.
	GetRollCall(ctx context.Context, congress int, session int, rollCallNumber int) (*domain.RollCall, error)
}

// SenateGovClient implements the Senate.gov archive client
type SenateGovClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	baseURL        string
	clock          adapter.Clock
}

// NewClient creates a new Senate.gov client
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, baseURL string, clock adapter.Clock) Client {
	return &SenateGovClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		baseURL:        baseURL,
		clock:          clock,
	}
}

// rollCallVoteXML is the document root of senate.gov roll call files
type rollCallVoteXML struct {
	XMLName          xml.Name     `xml:"roll_call_vote"`
	Congress         string       `xml:"congress"`
	Session          string       `xml:"session"`
	VoteNumber       string       `xml:"vote_number"`
	VoteDate         string       `xml:"vote_date"`
	VoteQuestionText string       `xml:"vote_question_text"`
	Question         string       `xml:"question"`
	VoteResult       string       `xml:"vote_result"`
	Count            voteCountXML `xml:"count"`
	Members          struct {
		Member []memberVoteXML `xml:"member"`
	} `xml:"members"`
}

type voteCountXML struct {
	Yeas    string `xml:"yeas"`
	Nays    string `xml:"nays"`
	Present string `xml:"present"`
	Absent  string `xml:"absent"`
}

type memberVoteXML struct {
	MemberFull  string `xml:"member_full"`
	Party       string `xml:"party"`
	State       string `xml:"state"`
	VoteCast    string `xml:"vote_cast"`
	LisMemberID string `xml:"lis_member_id"`
}

// GetRollCall fetches and parses one Senate roll call
func (c *SenateGovClient) GetRollCall(ctx context.Context, congress int, session int, rollCallNumber int) (*domain.RollCall, error) {
	// Vote numbers are zero-padded to 5 digits (vote_119_1_00001.xml)
	requestURL := fmt.Sprintf("%s/legislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
		c.baseURL, congress, session, congress, session, rollCallNumber)

	doc, err := ratelimit.Request(ctx, c.rateLimitProxy, SOURCE_NAME, func(ctx context.Context) (*rollCallVoteXML, error) {
		var doc rollCallVoteXML
		if err := c.httpClient.GetXML(ctx, requestURL, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Senate roll call %d-%d/%d: %w", congress, session, rollCallNumber, err)
	}

	return c.parseRollCall(doc, congress, session), nil
}

// parseRollCall normalizes a senate.gov document into the canonical
// roll call record. The URL-derived congress and session fill in when
// the document omits them.
func (c *SenateGovClient) parseRollCall(doc *rollCallVoteXML, congress int, session int) *domain.RollCall {
	if parsed := atoi(doc.Congress); parsed != 0 {
		congress = parsed
	}
	if parsed := atoi(doc.Session); parsed != 0 {
		session = parsed
	}

	date, ok := domain.ParseVoteDate(doc.VoteDate, c.clock.Now())
	if !ok {
		logger.Warn("could not parse Senate vote date, using today",
			zap.String("vote_date", doc.VoteDate),
			zap.String("vote_number", doc.VoteNumber))
	}

	question := strings.TrimSpace(doc.VoteQuestionText)
	if question == "" {
		question = strings.TrimSpace(doc.Question)
	}

	rollCall := &domain.RollCall{
		Congress: congress,
		Chamber:  domain.ChamberSenate,
		Session:  session,
		Number:   atoi(doc.VoteNumber),
		Date:     date,
		Question: question,
		Result:   strings.TrimSpace(doc.VoteResult),
		Totals: domain.VoteTotals{
			Yea:       atoi(doc.Count.Yeas),
			Nay:       atoi(doc.Count.Nays),
			Present:   atoi(doc.Count.Present),
			NotVoting: atoi(doc.Count.Absent),
		},
	}

	for _, member := range doc.Members.Member {
		// Votes without a LIS ID cannot be attributed
		if member.LisMemberID == "" {
			continue
		}

		rollCall.Votes = append(rollCall.Votes, domain.RecordedVote{
			LisID:    member.LisMemberID,
			Name:     strings.TrimSpace(member.MemberFull),
			Party:    member.Party,
			State:    member.State,
			Position: domain.NormalizeVotePosition(member.VoteCast),
		})
	}

	return rollCall
}

// atoi parses archive numbers, tolerating leading zeros and whitespace
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

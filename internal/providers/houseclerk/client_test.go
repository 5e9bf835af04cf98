package houseclerk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/houseclerk"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fixedClock pins Now so date-fallback behavior is assertable
type fixedClock struct {
	adapter.Clock
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

const rollCallNamedTotals = `<?xml version="1.0" encoding="US-ASCII"?>
<rollcall-vote>
  <vote-metadata>
    <congress>118</congress>
    <session>1st</session>
    <chamber>U.S. House of Representatives</chamber>
    <rollcall-num>10</rollcall-num>
    <legis-num>H R 26</legis-num>
    <vote-question>On Passage</vote-question>
    <vote-result>Passed</vote-result>
    <action-date>11-Jan-2023</action-date>
    <vote-totals>
      <totals-by-vote>
        <yea-total>3</yea-total>
        <nay-total>2</nay-total>
        <present-total>0</present-total>
        <not-voting-total>1</not-voting-total>
      </totals-by-vote>
    </vote-totals>
  </vote-metadata>
  <vote-data>
    <recorded-vote><legislator name-id="A000370" unaccented-name="Adams" party="D" state="NC">Adams</legislator><vote>Yea</vote></recorded-vote>
    <recorded-vote><legislator name-id="B001302" unaccented-name="Biggs" party="R" state="AZ">Biggs</legislator><vote>Aye</vote></recorded-vote>
    <recorded-vote><legislator name-id="C001055" unaccented-name="Carter" party="D" state="LA">Carter</legislator><vote>Yes</vote></recorded-vote>
    <recorded-vote><legislator name-id="D000230" unaccented-name="DeLauro" party="D" state="CT">DeLauro</legislator><vote>No</vote></recorded-vote>
    <recorded-vote><legislator name-id="E000215" unaccented-name="Eshoo" party="D" state="CA">Eshoo</legislator><vote>Nay</vote></recorded-vote>
    <recorded-vote><legislator name-id="F000450" unaccented-name="Foxx" party="R" state="NC">Foxx</legislator><vote>Not Voting</vote></recorded-vote>
    <recorded-vote><legislator name-id="" unaccented-name="Vacant" party="" state="OH">Vacant</legislator><vote>Not Voting</vote></recorded-vote>
  </vote-data>
</rollcall-vote>`

const rollCallPerTypeTotals = `<?xml version="1.0" encoding="US-ASCII"?>
<rollcall-vote>
  <vote-metadata>
    <congress>119</congress>
    <session>2nd</session>
    <rollcall-num>7</rollcall-num>
    <legis-num>QUORUM</legis-num>
    <vote-question>Call of the House</vote-question>
    <vote-result>Passed</vote-result>
    <action-date>not a date</action-date>
    <vote-totals>
      <totals-by-vote><vote-type>Yea</vote-type><total>425</total></totals-by-vote>
      <totals-by-vote><vote-type>Nay</vote-type><total>0</total></totals-by-vote>
      <totals-by-vote><vote-type>Present</vote-type><total>2</total></totals-by-vote>
      <totals-by-vote><vote-type>Not Voting</vote-type><total>8</total></totals-by-vote>
    </vote-totals>
  </vote-metadata>
  <vote-data>
    <recorded-vote><legislator name-id="A000370" unaccented-name="Adams" party="D" state="NC">Adams</legislator><vote>Present</vote></recorded-vote>
  </vote-data>
</rollcall-vote>`

func newTestClient(t *testing.T, handler http.HandlerFunc, now time.Time) (houseclerk.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := adapter.NewHTTPClient(10 * time.Second)
	clock := &fixedClock{Clock: adapter.NewClock(), now: now}
	return houseclerk.NewClient(httpClient, nil, server.URL, clock), server
}

func TestGetRollCall_Passage(t *testing.T) {
	var requestedPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(rollCallNamedTotals))
	}, time.Now())

	rollCall, err := client.GetRollCall(context.Background(), 2023, 10)
	require.NoError(t, err)

	assert.Equal(t, "/evs/2023/roll010.xml", requestedPath)

	assert.Equal(t, 118, rollCall.Congress)
	assert.Equal(t, domain.ChamberHouse, rollCall.Chamber)
	assert.Equal(t, 1, rollCall.Session)
	assert.Equal(t, 10, rollCall.Number)
	assert.Equal(t, "On Passage", rollCall.Question)
	assert.Equal(t, "Passed", rollCall.Result)
	assert.Equal(t, time.Date(2023, time.January, 11, 0, 0, 0, 0, time.UTC), rollCall.Date)

	require.NotNil(t, rollCall.Bill)
	assert.Equal(t, domain.BillRef{Congress: 118, Type: "hr", Number: 26}, *rollCall.Bill)

	assert.Equal(t, domain.VoteTotals{Yea: 3, Nay: 2, Present: 0, NotVoting: 1}, rollCall.Totals)

	// The empty name-id entry is dropped
	require.Len(t, rollCall.Votes, 6)
	assert.Equal(t, domain.RecordedVote{
		BioguideID: "A000370",
		Name:       "Adams",
		Party:      "D",
		State:      "NC",
		Position:   domain.PositionYea,
	}, rollCall.Votes[0])

	positions := make([]domain.VotePosition, 0, len(rollCall.Votes))
	for _, vote := range rollCall.Votes {
		positions = append(positions, vote.Position)
	}
	assert.Equal(t, []domain.VotePosition{
		domain.PositionYea,
		domain.PositionYea,
		domain.PositionYea,
		domain.PositionNay,
		domain.PositionNay,
		domain.PositionNotVoting,
	}, positions)
}

func TestGetRollCall_PerTypeTotalsAndProceduralVote(t *testing.T) {
	now := time.Date(2026, time.February, 3, 9, 30, 0, 0, time.UTC)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(rollCallPerTypeTotals))
	}, now)

	rollCall, err := client.GetRollCall(context.Background(), 2026, 7)
	require.NoError(t, err)

	assert.Equal(t, 119, rollCall.Congress)
	assert.Equal(t, 2, rollCall.Session)
	assert.Equal(t, domain.VoteTotals{Yea: 425, Nay: 0, Present: 2, NotVoting: 8}, rollCall.Totals)

	// Quorum calls have no associated bill
	assert.Nil(t, rollCall.Bill)

	// Unparseable dates fall back to the current time
	assert.Equal(t, now, rollCall.Date)

	require.Len(t, rollCall.Votes, 1)
	assert.Equal(t, domain.PositionPresent, rollCall.Votes[0].Position)
}

func TestGetRollCall_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, time.Now())

	_, err := client.GetRollCall(context.Background(), 2023, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

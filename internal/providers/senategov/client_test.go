package senategov_test

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
	"github.com/democracy-watch/congress-indexer/internal/providers/senategov"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const rollCallVote = `<?xml version="1.0" encoding="ISO-8859-1"?>
<roll_call_vote>
  <congress>119</congress>
  <session>1</session>
  <congress_year>2025</congress_year>
  <vote_number>00005</vote_number>
  <vote_date>January 23, 2025, 11:06 AM</vote_date>
  <vote_question_text>On the Nomination PN12-3</vote_question_text>
  <question>On the Nomination</question>
  <vote_result>Nomination Confirmed</vote_result>
  <count>
    <yeas>52</yeas>
    <nays>46</nays>
    <present>0</present>
    <absent>2</absent>
  </count>
  <members>
    <member>
      <member_full>Baldwin (D-WI)</member_full>
      <last_name>Baldwin</last_name>
      <party>D</party>
      <state>WI</state>
      <vote_cast>Nay</vote_cast>
      <lis_member_id>S354</lis_member_id>
    </member>
    <member>
      <member_full>Barrasso (R-WY)</member_full>
      <last_name>Barrasso</last_name>
      <party>R</party>
      <state>WY</state>
      <vote_cast>Yea</vote_cast>
      <lis_member_id>S317</lis_member_id>
    </member>
    <member>
      <member_full>Booker (D-NJ)</member_full>
      <last_name>Booker</last_name>
      <party>D</party>
      <state>NJ</state>
      <vote_cast>Not Voting</vote_cast>
      <lis_member_id>S370</lis_member_id>
    </member>
    <member>
      <member_full>Vacant Seat</member_full>
      <last_name></last_name>
      <party></party>
      <state></state>
      <vote_cast></vote_cast>
      <lis_member_id></lis_member_id>
    </member>
  </members>
</roll_call_vote>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (senategov.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := adapter.NewHTTPClient(10 * time.Second)
	return senategov.NewClient(httpClient, nil, server.URL, adapter.NewClock()), server
}

func TestGetRollCall(t *testing.T) {
	var requestedPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(rollCallVote))
	})

	rollCall, err := client.GetRollCall(context.Background(), 119, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, "/legislative/LIS/roll_call_votes/vote1191/vote_119_1_00005.xml", requestedPath)

	assert.Equal(t, 119, rollCall.Congress)
	assert.Equal(t, domain.ChamberSenate, rollCall.Chamber)
	assert.Equal(t, 1, rollCall.Session)
	assert.Equal(t, 5, rollCall.Number)
	assert.Equal(t, "On the Nomination PN12-3", rollCall.Question)
	assert.Equal(t, "Nomination Confirmed", rollCall.Result)
	assert.Equal(t, time.Date(2025, time.January, 23, 11, 6, 0, 0, time.UTC), rollCall.Date)
	assert.Equal(t, domain.VoteTotals{Yea: 52, Nay: 46, Present: 0, NotVoting: 2}, rollCall.Totals)

	// Nominations have no associated bill
	assert.Nil(t, rollCall.Bill)

	// The vacant seat entry without a LIS ID is dropped
	require.Len(t, rollCall.Votes, 3)
	assert.Equal(t, domain.RecordedVote{
		LisID:    "S354",
		Name:     "Baldwin (D-WI)",
		Party:    "D",
		State:    "WI",
		Position: domain.PositionNay,
	}, rollCall.Votes[0])
	assert.Equal(t, domain.PositionYea, rollCall.Votes[1].Position)
	assert.Equal(t, domain.PositionNotVoting, rollCall.Votes[2].Position)
}

func TestGetRollCall_QuestionFallback(t *testing.T) {
	doc := `<?xml version="1.0"?>
<roll_call_vote>
  <congress>118</congress>
  <session>2</session>
  <vote_number>1</vote_number>
  <vote_date>January 8, 2024</vote_date>
  <question>On the Motion to Proceed</question>
  <vote_result>Motion Agreed To</vote_result>
  <count><yeas>60</yeas><nays>34</nays><present>0</present><absent>6</absent></count>
  <members></members>
</roll_call_vote>`

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doc))
	})

	rollCall, err := client.GetRollCall(context.Background(), 118, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, "On the Motion to Proceed", rollCall.Question)
	assert.Equal(t, 2, rollCall.Session)
	assert.Empty(t, rollCall.Votes)
}

func TestGetRollCall_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRollCall(context.Background(), 119, 1, 700)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

package houseclerk

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// rollCallXML is the document root of clerk.house.gov roll call files
type rollCallXML struct {
	XMLName  xml.Name        `xml:"rollcall-vote"`
	Metadata voteMetadataXML `xml:"vote-metadata"`
	VoteData voteDataXML     `xml:"vote-data"`
}

type voteMetadataXML struct {
	Congress     string        `xml:"congress"`
	Session      string        `xml:"session"`
	RollCallNum  string        `xml:"rollcall-num"`
	LegisNum     string        `xml:"legis-num"`
	VoteQuestion string        `xml:"vote-question"`
	VoteResult   string        `xml:"vote-result"`
	ActionDate   string        `xml:"action-date"`
	VoteTotals   voteTotalsXML `xml:"vote-totals"`
}

type voteTotalsXML struct {
	TotalsByVote []totalsByVoteXML `xml:"totals-by-vote"`
}

// totalsByVoteXML captures both shapes the archive emits: a single
// element with named per-position children, or repeated elements each
// carrying a vote-type and one count.
type totalsByVoteXML struct {
	TotalType      string  `xml:"total-type,attr"`
	VoteType       string  `xml:"vote-type"`
	Total          *string `xml:"total"`
	YeaTotal       *string `xml:"yea-total"`
	NayTotal       *string `xml:"nay-total"`
	PresentTotal   *string `xml:"present-total"`
	NotVotingTotal *string `xml:"not-voting-total"`
}

type voteDataXML struct {
	RecordedVotes []recordedVoteXML `xml:"recorded-vote"`
}

type recordedVoteXML struct {
	Legislator legislatorXML `xml:"legislator"`
	Vote       string        `xml:"vote"`
}

type legislatorXML struct {
	NameID         string `xml:"name-id,attr"`
	UnaccentedName string `xml:"unaccented-name,attr"`
	Party          string `xml:"party,attr"`
	State          string `xml:"state,attr"`
	Name           string `xml:",chardata"`
}

// atoi parses archive numbers that may carry ordinal suffixes
// ("1st", "2nd") or whitespace. Unparseable values yield 0.
func atoi(s string) int {
	s = strings.TrimSpace(s)
	digits := s
	for i, r := range s {
		if r < '0' || r > '9' {
			digits = s[:i]
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func atoiPtr(s *string) int {
	if s == nil {
		return 0
	}
	return atoi(*s)
}

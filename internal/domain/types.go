package domain

import (
	"fmt"
	"time"
)

// Chamber identifies one of the two chambers of Congress
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// IsValidChamber checks if a chamber is valid
func IsValidChamber(chamber Chamber) bool {
	return chamber == ChamberHouse || chamber == ChamberSenate
}

// Party represents a member's party affiliation
type Party string

const (
	PartyRepublican  Party = "Republican"
	PartyDemocrat    Party = "Democrat"
	PartyIndependent Party = "Independent"
)

// VotePosition represents how a member voted on a roll call. The four
// canonical values cover ordinary votes; leadership-election roll calls
// record a candidate name verbatim instead.
type VotePosition string

const (
	PositionYea       VotePosition = "Yea"
	PositionNay       VotePosition = "Nay"
	PositionPresent   VotePosition = "Present"
	PositionNotVoting VotePosition = "Not Voting"
)

// BillRef identifies a bill by its natural key
type BillRef struct {
	Congress int    `json:"congress"`
	Type     string `json:"type"`
	Number   int    `json:"number"`
}

func (r BillRef) String() string {
	return fmt.Sprintf("%s%d-%d", r.Type, r.Number, r.Congress)
}

// Member represents a normalized member of Congress
type Member struct {
	BioguideID       string
	LisID            string
	FirstName        string
	LastName         string
	FullName         string
	Party            Party
	StateCode        string
	Chamber          Chamber
	District         string
	CurrentTermStart *time.Time
	WebsiteURL       string
	IsActive         bool
}

// Bill represents a normalized bill. Enrichment fields (Summary,
// IntroducedDate, SponsorBioguideID, PolicyArea, Subjects, FullTextURL)
// are empty until the bill's detail endpoints have been fetched.
type Bill struct {
	BillRef
	Title             string
	Summary           string
	IntroducedDate    *time.Time
	SponsorBioguideID string
	PolicyArea        string
	Subjects          []string
	FullTextURL       string
	LatestAction      string
	LatestActionDate  *time.Time
}

// VoteTotals holds the chamber-reported tallies for a roll call
type VoteTotals struct {
	Yea       int
	Nay       int
	Present   int
	NotVoting int
}

// RecordedVote is a single member's position on a roll call. House
// records carry a bioguide ID; Senate records carry a LIS ID plus the
// member's name and state for fallback matching.
type RecordedVote struct {
	BioguideID string
	LisID      string
	Name       string
	Party      string
	State      string
	Position   VotePosition
}

// RollCall represents a normalized roll-call vote event
type RollCall struct {
	Congress int
	Chamber  Chamber
	Session  int
	Number   int
	Date     time.Time
	Question string
	Result   string
	Totals   VoteTotals
	Bill     *BillRef
	Votes    []RecordedVote
}

// PartyBreakdown holds the derived party-line totals for a roll call
type PartyBreakdown struct {
	RepublicanYea int
	RepublicanNay int
	DemocratYea   int
	DemocratNay   int
}

// District is a resolved congressional district
type District struct {
	StateCode      string `json:"stateCode"`
	StateName      string `json:"stateName,omitempty"`
	DistrictNumber string `json:"districtNumber"`
}

// ZipDistrict is one ZIP-to-district mapping row. Multiple rows may
// exist per ZIP since district boundaries disagree across sources.
type ZipDistrict struct {
	ZipCode        string
	StateCode      string
	DistrictNumber string
}

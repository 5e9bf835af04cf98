package congressapi

// Pagination is the common pagination envelope on list responses
type Pagination struct {
	Count int    `json:"count"`
	Next  string `json:"next,omitempty"`
}

// Member is one entry of the member list endpoint. The list endpoint
// returns partial records; name arrives as "Last, First".
type Member struct {
	BioguideID string `json:"bioguideId"`
	Name       string `json:"name"`
	PartyName  string `json:"partyName"`
	State      string `json:"state"`
	District   *int   `json:"district,omitempty"`
	Terms      struct {
		Item []MemberTerm `json:"item"`
	} `json:"terms"`
	OfficialWebsiteURL string `json:"officialWebsiteUrl,omitempty"`
	UpdateDate         string `json:"updateDate"`
}

// MemberTerm is one term of service. The current term has no end year.
type MemberTerm struct {
	Chamber   string `json:"chamber"`
	StartYear int    `json:"startYear"`
	EndYear   *int   `json:"endYear,omitempty"`
}

// MembersResponse is the member list envelope
type MembersResponse struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	Members    []Member    `json:"members"`
}

// LatestAction is the most recent recorded action on a bill
type LatestAction struct {
	ActionDate string `json:"actionDate"`
	Text       string `json:"text"`
}

// Bill is one entry of the bill list endpoint
type Bill struct {
	Congress     int           `json:"congress"`
	Type         string        `json:"type"`
	Number       IntString     `json:"number"`
	Title        string        `json:"title"`
	LatestAction *LatestAction `json:"latestAction,omitempty"`
	UpdateDate   string        `json:"updateDate"`
}

// BillsResponse is the bill list envelope
type BillsResponse struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	Bills      []Bill      `json:"bills"`
}

// BillSponsor identifies a bill sponsor
type BillSponsor struct {
	BioguideID string `json:"bioguideId"`
	FullName   string `json:"fullName"`
	Party      string `json:"party,omitempty"`
	State      string `json:"state,omitempty"`
}

// URLReference marks detail fields the API serves from separate
// endpoints rather than inline
type URLReference struct {
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// BillDetail is the enriched bill record. Summaries and subjects are
// URL references requiring their own rate-limited requests.
type BillDetail struct {
	Bill
	IntroducedDate string        `json:"introducedDate"`
	Sponsors       []BillSponsor `json:"sponsors,omitempty"`
	PolicyArea     *struct {
		Name string `json:"name"`
	} `json:"policyArea,omitempty"`
	Subjects  *URLReference `json:"subjects,omitempty"`
	Summaries *URLReference `json:"summaries,omitempty"`
}

// BillDetailResponse is the bill detail envelope
type BillDetailResponse struct {
	Bill BillDetail `json:"bill"`
}

// BillSummary is one summary version of a bill; Text is an HTML fragment
type BillSummary struct {
	Text        string `json:"text"`
	UpdateDate  string `json:"updateDate"`
	VersionCode string `json:"versionCode"`
	ActionDate  string `json:"actionDate,omitempty"`
	ActionDesc  string `json:"actionDesc,omitempty"`
}

// BillSummariesResponse is the bill summaries envelope
type BillSummariesResponse struct {
	Summaries []BillSummary `json:"summaries"`
}

// BillSubjectsResponse is the bill subjects envelope
type BillSubjectsResponse struct {
	Subjects struct {
		LegislativeSubjects []struct {
			Name string `json:"name"`
		} `json:"legislativeSubjects"`
	} `json:"subjects"`
}

// HouseVote is one stub of the House roll-call list endpoint
type HouseVote struct {
	Congress          int    `json:"congress"`
	RollCallNumber    int    `json:"rollCallNumber"`
	SessionNumber     int    `json:"sessionNumber"`
	StartDate         string `json:"startDate,omitempty"`
	VoteQuestion      string `json:"voteQuestion,omitempty"`
	Result            string `json:"result,omitempty"`
	LegislationType   string `json:"legislationType,omitempty"`
	LegislationNumber string `json:"legislationNumber,omitempty"`
}

// HouseVotesResponse is the House roll-call list envelope
type HouseVotesResponse struct {
	Pagination         *Pagination `json:"pagination,omitempty"`
	HouseRollCallVotes []HouseVote `json:"houseRollCallVotes"`
}

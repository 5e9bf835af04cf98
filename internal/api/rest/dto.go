package rest

import (
	"encoding/json"
	"time"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/store/schema"
)

// MemberDTO is the API representation of a member
type MemberDTO struct {
	BioguideID       string     `json:"bioguideId"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	FullName         string     `json:"fullName"`
	Party            string     `json:"party"`
	State            string     `json:"state"`
	Chamber          string     `json:"chamber"`
	District         *string    `json:"district,omitempty"`
	CurrentTermStart *time.Time `json:"currentTermStart,omitempty"`
	WebsiteURL       *string    `json:"websiteUrl,omitempty"`
	IsActive         bool       `json:"isActive"`
}

func newMemberDTO(member *schema.Member) MemberDTO {
	return MemberDTO{
		BioguideID:       member.BioguideID,
		FirstName:        member.FirstName,
		LastName:         member.LastName,
		FullName:         member.FullName,
		Party:            member.Party,
		State:            member.StateCode,
		Chamber:          string(member.Chamber),
		District:         member.District,
		CurrentTermStart: member.CurrentTermStart,
		WebsiteURL:       member.WebsiteURL,
		IsActive:         member.IsActive,
	}
}

// BillDTO is the API representation of a bill
type BillDTO struct {
	Congress         int        `json:"congress"`
	BillType         string     `json:"billType"`
	BillNumber       int        `json:"billNumber"`
	Title            string     `json:"title"`
	Summary          *string    `json:"summary,omitempty"`
	IntroducedDate   *time.Time `json:"introducedDate,omitempty"`
	Sponsor          *MemberDTO `json:"sponsor,omitempty"`
	PolicyArea       *string    `json:"policyArea,omitempty"`
	Subjects         []string   `json:"subjects,omitempty"`
	WebsiteURL       *string    `json:"websiteUrl,omitempty"`
	LatestAction     *string    `json:"latestAction,omitempty"`
	LatestActionDate *time.Time `json:"latestActionDate,omitempty"`
}

func newBillDTO(bill *schema.Bill) BillDTO {
	dto := BillDTO{
		Congress:         bill.Congress,
		BillType:         bill.BillType,
		BillNumber:       bill.BillNumber,
		Title:            bill.Title,
		Summary:          bill.Summary,
		IntroducedDate:   bill.IntroducedDate,
		WebsiteURL:       bill.WebsiteURL,
		LatestAction:     bill.LatestAction,
		LatestActionDate: bill.LatestActionDate,
	}
	if bill.Sponsor != nil {
		sponsor := newMemberDTO(bill.Sponsor)
		dto.Sponsor = &sponsor
	}
	if bill.PolicyArea != nil {
		dto.PolicyArea = &bill.PolicyArea.Name
	}
	if len(bill.Subjects) > 0 {
		// stored as a JSON array; a decode failure leaves subjects empty
		_ = json.Unmarshal(bill.Subjects, &dto.Subjects)
	}
	return dto
}

// RollCallDTO is the API representation of a roll call
type RollCallDTO struct {
	Congress   int       `json:"congress"`
	Chamber    string    `json:"chamber"`
	Session    int       `json:"session"`
	RollNumber int       `json:"rollNumber"`
	VoteDate   time.Time `json:"voteDate"`
	Question   string    `json:"question"`
	Result     string    `json:"result"`
	Bill       *BillDTO  `json:"bill,omitempty"`

	Totals    VoteTotalsDTO     `json:"totals"`
	Breakdown PartyBreakdownDTO `json:"partyBreakdown"`
}

// VoteTotalsDTO carries the chamber-reported tallies
type VoteTotalsDTO struct {
	Yea       int `json:"yea"`
	Nay       int `json:"nay"`
	Present   int `json:"present"`
	NotVoting int `json:"notVoting"`
}

// PartyBreakdownDTO carries the derived party-line totals
type PartyBreakdownDTO struct {
	RepublicanYea int `json:"republicanYea"`
	RepublicanNay int `json:"republicanNay"`
	DemocratYea   int `json:"democratYea"`
	DemocratNay   int `json:"democratNay"`
}

func newRollCallDTO(rollCall *schema.RollCall) RollCallDTO {
	dto := RollCallDTO{
		Congress:   rollCall.Congress,
		Chamber:    string(rollCall.Chamber),
		Session:    rollCall.Session,
		RollNumber: rollCall.RollNumber,
		VoteDate:   rollCall.VoteDate,
		Question:   rollCall.Question,
		Result:     rollCall.Result,
		Totals: VoteTotalsDTO{
			Yea:       rollCall.YeaTotal,
			Nay:       rollCall.NayTotal,
			Present:   rollCall.PresentTotal,
			NotVoting: rollCall.NotVotingTotal,
		},
		Breakdown: PartyBreakdownDTO{
			RepublicanYea: rollCall.RepublicanYea,
			RepublicanNay: rollCall.RepublicanNay,
			DemocratYea:   rollCall.DemocratYea,
			DemocratNay:   rollCall.DemocratNay,
		},
	}
	if rollCall.Bill != nil {
		bill := newBillDTO(rollCall.Bill)
		dto.Bill = &bill
	}
	return dto
}

// VoteDTO is one recorded position, shown with either the member or
// the roll call expanded depending on the endpoint
type VoteDTO struct {
	Position string       `json:"position"`
	Member   *MemberDTO   `json:"member,omitempty"`
	RollCall *RollCallDTO `json:"rollCall,omitempty"`
}

func newMemberVoteDTO(vote schema.Vote) VoteDTO {
	dto := VoteDTO{Position: string(vote.Position)}
	if vote.RollCall != nil {
		rollCall := newRollCallDTO(vote.RollCall)
		dto.RollCall = &rollCall
	}
	return dto
}

func newRollCallVoteDTO(vote schema.Vote) VoteDTO {
	dto := VoteDTO{Position: string(vote.Position)}
	if vote.Member != nil {
		member := newMemberDTO(vote.Member)
		dto.Member = &member
	}
	return dto
}

// DistrictDTO is a resolved congressional district with its delegation
type DistrictDTO struct {
	ZipCode        string      `json:"zipCode"`
	State          string      `json:"state"`
	StateName      string      `json:"stateName,omitempty"`
	DistrictNumber string      `json:"districtNumber"`
	Members        []MemberDTO `json:"members"`
}

func newDistrictDTO(zipCode string, district *domain.District, members []schema.Member) DistrictDTO {
	dto := DistrictDTO{
		ZipCode:        zipCode,
		State:          district.StateCode,
		StateName:      district.StateName,
		DistrictNumber: district.DistrictNumber,
		Members:        make([]MemberDTO, 0, len(members)),
	}
	for i := range members {
		dto.Members = append(dto.Members, newMemberDTO(&members[i]))
	}
	return dto
}

// ListResponse is the envelope for list endpoints
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

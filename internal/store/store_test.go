package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/domain"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildTestMember creates a test member input
func buildTestMember(bioguideID string, chamber domain.Chamber, stateCode string) domain.Member {
	termStart := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	member := domain.Member{
		BioguideID:       bioguideID,
		FirstName:        "Test",
		LastName:         "Member" + bioguideID,
		FullName:         "Test Member" + bioguideID,
		Party:            "Democrat",
		StateCode:        stateCode,
		Chamber:          chamber,
		CurrentTermStart: &termStart,
		WebsiteURL:       "https://example.house.gov",
		IsActive:         true,
	}
	if chamber == domain.ChamberHouse {
		member.District = "07"
	}
	return member
}

// buildTestBill creates a test bill input
func buildTestBill(congress int, billType string, number int) domain.Bill {
	actionDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return domain.Bill{
		BillRef:          domain.BillRef{Congress: congress, Type: billType, Number: number},
		Title:            "A bill to test the indexer",
		LatestAction:     "Referred to committee",
		LatestActionDate: &actionDate,
		FullTextURL:      domain.FullTextURL(domain.BillRef{Congress: congress, Type: billType, Number: number}),
	}
}

// buildTestRollCall creates a test roll call input
func buildTestRollCall(congress int, chamber domain.Chamber, session int, number int) *domain.RollCall {
	return &domain.RollCall{
		Congress: congress,
		Chamber:  chamber,
		Session:  session,
		Number:   number,
		Date:     time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
		Question: "On Passage",
		Result:   "Passed",
		Totals:   domain.VoteTotals{Yea: 220, Nay: 210, Present: 1, NotVoting: 4},
	}
}

func seedStates(t *testing.T, s Store) {
	t.Helper()
	require.NoError(t, s.SeedStates(context.Background()))
}

// RunStoreTests runs the store test suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("SeedStatesIsIdempotent", func(t *testing.T) {
		s := initDB(t)
		require.NoError(t, s.SeedStates(ctx))
		require.NoError(t, s.SeedStates(ctx))
	})

	t.Run("UpsertMemberCreateAndUpdate", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		member, created, err := s.UpsertMember(ctx, buildTestMember("A000001", domain.ChamberHouse, "NC"))
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, member)
		assert.NotEmpty(t, member.ID)
		require.NotNil(t, member.District)
		assert.Equal(t, "07", *member.District)

		// Second upsert with changed party updates in place
		input := buildTestMember("A000001", domain.ChamberHouse, "NC")
		input.Party = "Republican"
		input.WebsiteURL = ""

		updated, created, err := s.UpsertMember(ctx, input)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, member.ID, updated.ID)
		assert.Equal(t, "Republican", updated.Party)

		// Empty website must not erase the stored one
		require.NotNil(t, updated.WebsiteURL)
		assert.Equal(t, "https://example.house.gov", *updated.WebsiteURL)
	})

	t.Run("UpsertMemberAcceptsFullStateName", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		member, _, err := s.UpsertMember(ctx, buildTestMember("A000002", domain.ChamberSenate, "North Carolina"))
		require.NoError(t, err)
		assert.Equal(t, "NC", member.StateCode)
		assert.Nil(t, member.District)
	})

	t.Run("UpsertMemberRejectsUnknownState", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		_, _, err := s.UpsertMember(ctx, buildTestMember("A000003", domain.ChamberHouse, "Atlantis"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidStateCode))
	})

	t.Run("SenatorLisIDBackfill", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		member, _, err := s.UpsertMember(ctx, buildTestMember("B000001", domain.ChamberSenate, "WI"))
		require.NoError(t, err)

		// No LIS ID yet; name+state lookup finds the senator
		found, err := s.FindSenatorByNameAndState(ctx, "memberB000001", "WI")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, member.ID, found.ID)

		require.NoError(t, s.SetMemberLisID(ctx, member.ID, "S354"))

		byLis, err := s.GetMemberByLisID(ctx, "S354")
		require.NoError(t, err)
		require.NotNil(t, byLis)
		assert.Equal(t, member.ID, byLis.ID)

		// Wrong state finds nothing
		missing, err := s.FindSenatorByNameAndState(ctx, "memberB000001", "MN")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListMembersFilters", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		_, _, err := s.UpsertMember(ctx, buildTestMember("C000001", domain.ChamberHouse, "NC"))
		require.NoError(t, err)
		_, _, err = s.UpsertMember(ctx, buildTestMember("C000002", domain.ChamberSenate, "NC"))
		require.NoError(t, err)
		inactive := buildTestMember("C000003", domain.ChamberHouse, "GA")
		inactive.IsActive = false
		_, _, err = s.UpsertMember(ctx, inactive)
		require.NoError(t, err)

		members, err := s.ListMembers(ctx, MemberFilter{StateCode: "NC"})
		require.NoError(t, err)
		assert.Len(t, members, 2)

		members, err = s.ListMembers(ctx, MemberFilter{Chamber: domain.ChamberSenate})
		require.NoError(t, err)
		assert.Len(t, members, 1)

		members, err = s.ListMembers(ctx, MemberFilter{ActiveOnly: true})
		require.NoError(t, err)
		assert.Len(t, members, 2)
	})

	t.Run("ListMembersForDistrict", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		rep := buildTestMember("D000001", domain.ChamberHouse, "NC")
		_, _, err := s.UpsertMember(ctx, rep)
		require.NoError(t, err)
		_, _, err = s.UpsertMember(ctx, buildTestMember("D000002", domain.ChamberSenate, "NC"))
		require.NoError(t, err)
		_, _, err = s.UpsertMember(ctx, buildTestMember("D000003", domain.ChamberSenate, "NC"))
		require.NoError(t, err)
		otherDistrict := buildTestMember("D000004", domain.ChamberHouse, "NC")
		otherDistrict.District = "03"
		_, _, err = s.UpsertMember(ctx, otherDistrict)
		require.NoError(t, err)

		members, err := s.ListMembersForDistrict(ctx, "NC", "07")
		require.NoError(t, err)
		// Two senators plus the 7th district representative
		require.Len(t, members, 3)
	})

	t.Run("UpsertBillIdempotent", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		bill, created, err := s.UpsertBill(ctx, buildTestBill(119, "hr", 26))
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, bill.WebsiteURL)

		input := buildTestBill(119, "hr", 26)
		input.Title = "An updated title"
		again, created, err := s.UpsertBill(ctx, input)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, bill.ID, again.ID)
		assert.Equal(t, "An updated title", again.Title)
	})

	t.Run("EnrichBillMergesFields", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		sponsor, _, err := s.UpsertMember(ctx, buildTestMember("E000001", domain.ChamberHouse, "CA"))
		require.NoError(t, err)
		_, _, err = s.UpsertBill(ctx, buildTestBill(119, "s", 2938))
		require.NoError(t, err)

		area, err := s.EnsurePolicyArea(ctx, "Health")
		require.NoError(t, err)

		summary := "Makes changes to things."
		introduced := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		ref := domain.BillRef{Congress: 119, Type: "s", Number: 2938}

		err = s.EnrichBill(ctx, ref, BillEnrichment{
			Summary:        &summary,
			IntroducedDate: &introduced,
			SponsorID:      &sponsor.ID,
			PolicyAreaID:   &area.ID,
			Subjects:       []string{"Health care coverage", "Medicare"},
		})
		require.NoError(t, err)

		enriched, err := s.GetBillByRef(ctx, ref)
		require.NoError(t, err)
		require.NotNil(t, enriched.Summary)
		assert.Equal(t, summary, *enriched.Summary)
		require.NotNil(t, enriched.SponsorID)
		assert.Equal(t, sponsor.ID, *enriched.SponsorID)

		var subjects []string
		require.NoError(t, json.Unmarshal(enriched.Subjects, &subjects))
		assert.Equal(t, []string{"Health care coverage", "Medicare"}, subjects)

		// A later partial enrichment leaves earlier fields alone
		err = s.EnrichBill(ctx, ref, BillEnrichment{})
		require.NoError(t, err)
		unchanged, err := s.GetBillByRef(ctx, ref)
		require.NoError(t, err)
		require.NotNil(t, unchanged.Summary)
		assert.Equal(t, summary, *unchanged.Summary)
	})

	t.Run("EnrichBillMissingBill", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		err := s.EnrichBill(ctx, domain.BillRef{Congress: 119, Type: "hr", Number: 9999}, BillEnrichment{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBillNotFound))
	})

	t.Run("EnsurePolicyAreaIdempotent", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		first, err := s.EnsurePolicyArea(ctx, "Taxation")
		require.NoError(t, err)
		second, err := s.EnsurePolicyArea(ctx, "Taxation")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("ListBillsFilters", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		_, _, err := s.UpsertBill(ctx, buildTestBill(119, "hr", 1))
		require.NoError(t, err)
		_, _, err = s.UpsertBill(ctx, buildTestBill(119, "s", 1))
		require.NoError(t, err)
		_, _, err = s.UpsertBill(ctx, buildTestBill(118, "hr", 5))
		require.NoError(t, err)

		bills, err := s.ListBills(ctx, BillFilter{Congress: 119})
		require.NoError(t, err)
		assert.Len(t, bills, 2)

		bills, err = s.ListBills(ctx, BillFilter{Congress: 119, BillType: "s"})
		require.NoError(t, err)
		assert.Len(t, bills, 1)
	})

	t.Run("UpsertRollCallIdempotent", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		exists, err := s.RollCallExists(ctx, 119, domain.ChamberHouse, 1, 10)
		require.NoError(t, err)
		assert.False(t, exists)

		rollCall, err := s.UpsertRollCall(ctx, buildTestRollCall(119, domain.ChamberHouse, 1, 10), nil)
		require.NoError(t, err)
		require.NotNil(t, rollCall)
		assert.Equal(t, 220, rollCall.YeaTotal)

		exists, err = s.RollCallExists(ctx, 119, domain.ChamberHouse, 1, 10)
		require.NoError(t, err)
		assert.True(t, exists)

		// Re-upserting with corrected data updates in place
		input := buildTestRollCall(119, domain.ChamberHouse, 1, 10)
		input.Result = "Failed"
		again, err := s.UpsertRollCall(ctx, input, nil)
		require.NoError(t, err)
		assert.Equal(t, rollCall.ID, again.ID)
		assert.Equal(t, "Failed", again.Result)
	})

	t.Run("VotesAndPartyBreakdown", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		bill, _, err := s.UpsertBill(ctx, buildTestBill(119, "hr", 26))
		require.NoError(t, err)
		rollCall, err := s.UpsertRollCall(ctx, buildTestRollCall(119, domain.ChamberHouse, 1, 11), &bill.ID)
		require.NoError(t, err)

		republican := buildTestMember("F000001", domain.ChamberHouse, "TX")
		republican.Party = "Republican"
		repMember, _, err := s.UpsertMember(ctx, republican)
		require.NoError(t, err)
		demMember, _, err := s.UpsertMember(ctx, buildTestMember("F000002", domain.ChamberHouse, "MA"))
		require.NoError(t, err)

		require.NoError(t, s.UpsertVote(ctx, repMember.ID, rollCall.ID, domain.PositionYea, &bill.ID))
		require.NoError(t, s.UpsertVote(ctx, demMember.ID, rollCall.ID, domain.PositionNay, &bill.ID))

		// Re-recording the same member updates the position
		require.NoError(t, s.UpsertVote(ctx, demMember.ID, rollCall.ID, domain.PositionYea, &bill.ID))

		votes, err := s.ListRollCallVotes(ctx, rollCall.ID)
		require.NoError(t, err)
		require.Len(t, votes, 2)

		require.NoError(t, s.UpdateRollCallBreakdown(ctx, rollCall.ID))

		updated, err := s.GetRollCall(ctx, 119, domain.ChamberHouse, 1, 11)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.RepublicanYea)
		assert.Equal(t, 0, updated.RepublicanNay)
		assert.Equal(t, 1, updated.DemocratYea)
		assert.Equal(t, 0, updated.DemocratNay)

		memberVotes, err := s.ListMemberVotes(ctx, demMember.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, memberVotes, 1)
		assert.Equal(t, domain.PositionYea, memberVotes[0].Position)
		require.NotNil(t, memberVotes[0].RollCall)
		assert.Equal(t, 11, memberVotes[0].RollCall.RollNumber)

		processed, err := s.BackfillPartyBreakdowns(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
	})

	t.Run("ZipDistricts", func(t *testing.T) {
		s := initDB(t)
		seedStates(t, s)

		_, err := s.LookupZipDistrict(ctx, "28401")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNoDistrict))

		records := []domain.ZipDistrict{
			{ZipCode: "28401", StateCode: "NC", DistrictNumber: "07"},
			{ZipCode: "28401", StateCode: "NC", DistrictNumber: "03"},
			{ZipCode: "82001", StateCode: "WY", DistrictNumber: "AL"},
		}
		inserted, err := s.BulkUpsertZipDistricts(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 3, inserted)

		// Re-inserting the same batch is a no-op
		inserted, err = s.BulkUpsertZipDistricts(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		district, err := s.LookupZipDistrict(ctx, "82001")
		require.NoError(t, err)
		assert.Equal(t, "WY", district.StateCode)
		assert.Equal(t, "Wyoming", district.StateName)
		assert.Equal(t, "AL", district.DistrictNumber)

		districts, err := s.ListZipDistricts(ctx, "28401")
		require.NoError(t, err)
		assert.Len(t, districts, 2)

		require.NoError(t, s.CacheZipDistrict(ctx, domain.ZipDistrict{ZipCode: "02144", StateCode: "MA", DistrictNumber: "05"}))
		district, err = s.LookupZipDistrict(ctx, "02144")
		require.NoError(t, err)
		assert.Equal(t, "MA", district.StateCode)
	})

	t.Run("SyncMetadata", func(t *testing.T) {
		s := initDB(t)

		last, err := s.GetLastSyncTime(ctx, "members")
		require.NoError(t, err)
		assert.Nil(t, last)

		first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.SetLastSyncTime(ctx, "members", first))

		last, err = s.GetLastSyncTime(ctx, "members")
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.True(t, last.Equal(first))

		second := first.Add(24 * time.Hour)
		require.NoError(t, s.SetLastSyncTime(ctx, "members", second))

		last, err = s.GetLastSyncTime(ctx, "members")
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.True(t, last.Equal(second))
	})
}

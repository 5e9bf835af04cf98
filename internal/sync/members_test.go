package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/providers/congressapi"
	syncsvc "github.com/democracy-watch/congress-indexer/internal/sync"
)

func houseTerm(startYear int) congressapi.MemberTerm {
	return congressapi.MemberTerm{Chamber: "House of Representatives", StartYear: startYear}
}

func senateTerm(startYear int) congressapi.MemberTerm {
	return congressapi.MemberTerm{Chamber: "Senate", StartYear: startYear}
}

func memberFixture(bioguideID string, name string, party string, state string, district *int, terms ...congressapi.MemberTerm) congressapi.Member {
	member := congressapi.Member{
		BioguideID: bioguideID,
		Name:       name,
		PartyName:  party,
		State:      state,
		District:   district,
	}
	member.Terms.Item = terms
	return member
}

func TestSyncMembers(t *testing.T) {
	harness := newSyncHarness(testSyncConfig())
	harness.congressAPI.members = []congressapi.Member{
		memberFixture("R000603", "Rouzer, David", "Republican", "NC", intPtr(7), houseTerm(2023)),
		memberFixture("B001230", "Baldwin, Tammy", "Democratic", "WI", nil, senateTerm(2023)),
	}

	result, err := harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Errors)

	rep := harness.store.members["R000603"]
	require.NotNil(t, rep)
	assert.Equal(t, "David", rep.FirstName)
	assert.Equal(t, "Rouzer", rep.LastName)
	assert.Equal(t, "David Rouzer", rep.FullName)
	assert.Equal(t, "Republican", rep.Party)
	require.NotNil(t, rep.District)
	assert.Equal(t, "07", *rep.District)
	assert.True(t, rep.IsActive)

	senator := harness.store.members["B001230"]
	require.NotNil(t, senator)
	assert.Equal(t, "Democrat", senator.Party)
	assert.Nil(t, senator.District)

	syncedAt, ok := harness.store.lastSync[syncsvc.EntityMembers]
	require.True(t, ok)
	assert.True(t, syncedAt.Equal(testNow))
}

func TestSyncMembersFreshnessWindow(t *testing.T) {
	harness := newSyncHarness(testSyncConfig())
	harness.congressAPI.members = []congressapi.Member{
		memberFixture("R000603", "Rouzer, David", "Republican", "NC", intPtr(7), houseTerm(2023)),
	}
	harness.store.lastSync[syncsvc.EntityMembers] = testNow.Add(-1 * time.Hour)

	result, err := harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Zero(t, harness.congressAPI.memberCalls, "fresh sync should not hit the API")

	// force bypasses the window
	result, err = harness.service.SyncMembers(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, harness.congressAPI.memberCalls)

	// a stale window runs again and updates in place
	harness.store.lastSync[syncsvc.EntityMembers] = testNow.Add(-25 * time.Hour)
	result, err = harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
}

func TestSyncMembersAtLargeDistrict(t *testing.T) {
	harness := newSyncHarness(testSyncConfig())
	harness.congressAPI.members = []congressapi.Member{
		memberFixture("B001318", "Begich, Nicholas", "Republican", "AK", intPtr(0), houseTerm(2025)),
	}

	_, err := harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)

	member := harness.store.members["B001318"]
	require.NotNil(t, member)
	require.NotNil(t, member.District)
	assert.Equal(t, "AL", *member.District)
}

func TestSyncMembersMalformedRecordCounted(t *testing.T) {
	harness := newSyncHarness(testSyncConfig())
	harness.congressAPI.members = []congressapi.Member{
		memberFixture("X000000", "Nobody, Terms", "Republican", "TX", nil),
		memberFixture("B001230", "Baldwin, Tammy", "Democratic", "WI", nil, senateTerm(2023)),
	}

	result, err := harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Errors)
	assert.Nil(t, harness.store.members["X000000"])
}

func TestSyncMembersFormerMemberInactive(t *testing.T) {
	harness := newSyncHarness(testSyncConfig())
	ended := houseTerm(2021)
	ended.EndYear = intPtr(2025)
	harness.congressAPI.members = []congressapi.Member{
		memberFixture("F000000", "Former, Member", "Democratic", "OH", intPtr(3), ended),
	}

	_, err := harness.service.SyncMembers(context.Background(), false)
	require.NoError(t, err)

	member := harness.store.members["F000000"]
	require.NotNil(t, member)
	assert.False(t, member.IsActive)
}

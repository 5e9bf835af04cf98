package store

import (
	"context"
	"time"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/store/schema"
)

// MemberFilter narrows member listings
type MemberFilter struct {
	StateCode  string
	Chamber    domain.Chamber
	Party      string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// BillFilter narrows bill listings
type BillFilter struct {
	Congress   int
	BillType   string
	PolicyArea string
	Limit      int
	Offset     int
}

// RollCallFilter narrows roll call listings
type RollCallFilter struct {
	Congress int
	Chamber  domain.Chamber
	Limit    int
	Offset   int
}

// BillEnrichment carries the detail-phase bill fields. Nil fields are
// left untouched so a partial enrichment never erases earlier data.
type BillEnrichment struct {
	Summary          *string
	IntroducedDate   *time.Time
	SponsorID        *string
	PolicyAreaID     *string
	Subjects         []string
	WebsiteURL       *string
	LatestAction     *string
	LatestActionDate *time.Time
}

// Store defines the interface for database operations
type Store interface {
	// SeedStates populates the states reference table
	SeedStates(ctx context.Context) error

	// UpsertMember creates or updates a member keyed by bioguide ID.
	// It reports whether a new row was created.
	UpsertMember(ctx context.Context, member domain.Member) (*schema.Member, bool, error)
	// GetMemberByBioguideID retrieves a member by bioguide ID, nil when absent
	GetMemberByBioguideID(ctx context.Context, bioguideID string) (*schema.Member, error)
	// GetMemberByLisID retrieves a senator by Senate LIS ID, nil when absent
	GetMemberByLisID(ctx context.Context, lisID string) (*schema.Member, error)
	// FindSenatorByNameAndState matches a senator by last name and
	// state, used before a LIS ID has been backfilled
	FindSenatorByNameAndState(ctx context.Context, lastName string, stateCode string) (*schema.Member, error)
	// SetMemberLisID backfills the Senate LIS ID onto a member
	SetMemberLisID(ctx context.Context, memberID string, lisID string) error
	// ListMembers lists members matching the filter
	ListMembers(ctx context.Context, filter MemberFilter) ([]schema.Member, error)
	// ListMemberVotes lists a member's recorded votes, newest roll call first
	ListMemberVotes(ctx context.Context, memberID string, limit int, offset int) ([]schema.Vote, error)
	// ListMembersForDistrict returns the representative(s) for a House
	// district plus the state's senators
	ListMembersForDistrict(ctx context.Context, stateCode string, districtNumber string) ([]schema.Member, error)

	// UpsertBill creates or updates a bill keyed by (congress, type,
	// number), reporting whether a new row was created. Only the listing
	// fields are written; enrichment fields are preserved.
	UpsertBill(ctx context.Context, bill domain.Bill) (*schema.Bill, bool, error)
	// EnrichBill merges detail-phase fields into an existing bill
	EnrichBill(ctx context.Context, ref domain.BillRef, enrichment BillEnrichment) error
	// GetBillByRef retrieves a bill by its natural key, nil when absent
	GetBillByRef(ctx context.Context, ref domain.BillRef) (*schema.Bill, error)
	// ListBills lists bills matching the filter, newest action first
	ListBills(ctx context.Context, filter BillFilter) ([]schema.Bill, error)
	// EnsurePolicyArea creates the policy area if needed and returns it
	EnsurePolicyArea(ctx context.Context, name string) (*schema.PolicyArea, error)

	// RollCallExists reports whether a roll call has already been synced
	RollCallExists(ctx context.Context, congress int, chamber domain.Chamber, session int, rollNumber int) (bool, error)
	// UpsertRollCall creates or updates a roll call keyed by
	// (congress, chamber, session, roll number)
	UpsertRollCall(ctx context.Context, rollCall *domain.RollCall, billID *string) (*schema.RollCall, error)
	// GetRollCall retrieves a roll call by its natural key, nil when absent
	GetRollCall(ctx context.Context, congress int, chamber domain.Chamber, session int, rollNumber int) (*schema.RollCall, error)
	// ListRollCalls lists roll calls matching the filter, newest first
	ListRollCalls(ctx context.Context, filter RollCallFilter) ([]schema.RollCall, error)
	// ListRollCallVotes lists the recorded votes of one roll call with members preloaded
	ListRollCallVotes(ctx context.Context, rollCallID string) ([]schema.Vote, error)

	// UpsertVote records one member's position on a roll call.
	// Re-recording updates the position and bill reference.
	UpsertVote(ctx context.Context, memberID string, rollCallID string, position domain.VotePosition, billID *string) error
	// UpdateRollCallBreakdown recomputes a roll call's party breakdown
	// from its recorded votes
	UpdateRollCallBreakdown(ctx context.Context, rollCallID string) error
	// BackfillPartyBreakdowns recomputes breakdowns for every roll
	// call, returning how many were processed
	BackfillPartyBreakdowns(ctx context.Context) (int, error)

	// LookupZipDistrict returns one cached district for a ZIP code, or
	// domain.ErrNoDistrict when the ZIP is unknown
	LookupZipDistrict(ctx context.Context, zipCode string) (*domain.District, error)
	// ListZipDistricts returns every cached district for a ZIP code
	ListZipDistricts(ctx context.Context, zipCode string) ([]schema.ZipDistrict, error)
	// CacheZipDistrict stores one resolved ZIP-to-district mapping
	CacheZipDistrict(ctx context.Context, record domain.ZipDistrict) error
	// BulkUpsertZipDistricts inserts a batch of dataset records,
	// reporting how many were newly inserted
	BulkUpsertZipDistricts(ctx context.Context, records []domain.ZipDistrict) (int, error)

	// GetLastSyncTime returns when an entity was last synced, nil when never
	GetLastSyncTime(ctx context.Context, entity string) (*time.Time, error)
	// SetLastSyncTime records a successful sync of an entity
	SetLastSyncTime(ctx context.Context, entity string, syncedAt time.Time) error
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SeedStates populates the states reference table
func (s *pgStore) SeedStates(ctx context.Context) error {
	states := make([]schema.State, 0, len(domain.StateCodes()))
	for _, code := range domain.StateCodes() {
		name, _ := domain.StateName(code)
		states = append(states, schema.State{Code: code, Name: name})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&states).Error
	if err != nil {
		return fmt.Errorf("failed to seed states: %w", err)
	}

	return nil
}

// UpsertMember creates or updates a member keyed by bioguide ID
func (s *pgStore) UpsertMember(ctx context.Context, member domain.Member) (*schema.Member, bool, error) {
	stateCode, err := domain.NormalizeStateCode(member.StateCode)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert member %s: %w", member.BioguideID, err)
	}

	var district *string
	if member.Chamber == domain.ChamberHouse {
		d := domain.NormalizeDistrict(member.District)
		district = &d
	}

	existing, err := s.GetMemberByBioguideID(ctx, member.BioguideID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		row := schema.Member{
			ID:               uuid.NewString(),
			BioguideID:       member.BioguideID,
			LisID:            nullableString(member.LisID),
			FirstName:        member.FirstName,
			LastName:         member.LastName,
			FullName:         member.FullName,
			Party:            string(member.Party),
			StateCode:        stateCode,
			Chamber:          member.Chamber,
			District:         district,
			CurrentTermStart: member.CurrentTermStart,
			WebsiteURL:       nullableString(member.WebsiteURL),
			IsActive:         member.IsActive,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create member %s: %w", member.BioguideID, err)
		}
		return &row, true, nil
	}

	updates := map[string]interface{}{
		"first_name":         member.FirstName,
		"last_name":          member.LastName,
		"full_name":          member.FullName,
		"party":              member.Party,
		"state_code":         stateCode,
		"chamber":            member.Chamber,
		"district":           district,
		"current_term_start": member.CurrentTermStart,
		"is_active":          member.IsActive,
	}
	// A missing website in a later listing must not erase a known one
	if member.WebsiteURL != "" {
		updates["website_url"] = member.WebsiteURL
	}

	err = s.db.WithContext(ctx).Model(&schema.Member{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to update member %s: %w", member.BioguideID, err)
	}

	updated, err := s.GetMemberByBioguideID(ctx, member.BioguideID)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// GetMemberByBioguideID retrieves a member by bioguide ID
func (s *pgStore) GetMemberByBioguideID(ctx context.Context, bioguideID string) (*schema.Member, error) {
	var member schema.Member
	err := s.db.WithContext(ctx).Where("bioguide_id = ?", bioguideID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &member, nil
}

// GetMemberByLisID retrieves a senator by Senate LIS ID
func (s *pgStore) GetMemberByLisID(ctx context.Context, lisID string) (*schema.Member, error) {
	var member schema.Member
	err := s.db.WithContext(ctx).Where("lis_id = ?", lisID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member by LIS ID: %w", err)
	}
	return &member, nil
}

// FindSenatorByNameAndState matches a senator by last name and state.
// An ambiguous match resolves to nil rather than guessing.
func (s *pgStore) FindSenatorByNameAndState(ctx context.Context, lastName string, stateCode string) (*schema.Member, error) {
	var members []schema.Member
	err := s.db.WithContext(ctx).
		Where("chamber = ? AND state_code = ? AND LOWER(last_name) = LOWER(?)",
			domain.ChamberSenate, stateCode, lastName).
		Limit(2).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find senator %s (%s): %w", lastName, stateCode, err)
	}

	if len(members) != 1 {
		return nil, nil
	}
	return &members[0], nil
}

// SetMemberLisID backfills the Senate LIS ID onto a member
func (s *pgStore) SetMemberLisID(ctx context.Context, memberID string, lisID string) error {
	err := s.db.WithContext(ctx).Model(&schema.Member{}).
		Where("id = ?", memberID).
		Update("lis_id", lisID).Error
	if err != nil {
		return fmt.Errorf("failed to set LIS ID for member %s: %w", memberID, err)
	}
	return nil
}

// ListMembers lists members matching the filter
func (s *pgStore) ListMembers(ctx context.Context, filter MemberFilter) ([]schema.Member, error) {
	query := s.db.WithContext(ctx).Model(&schema.Member{})

	if filter.StateCode != "" {
		query = query.Where("state_code = ?", filter.StateCode)
	}
	if filter.Chamber != "" {
		query = query.Where("chamber = ?", filter.Chamber)
	}
	if filter.Party != "" {
		query = query.Where("party = ?", filter.Party)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var members []schema.Member
	if err := query.Order("state_code, last_name, first_name").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// ListMemberVotes lists a member's recorded votes, newest roll call first
func (s *pgStore) ListMemberVotes(ctx context.Context, memberID string, limit int, offset int) ([]schema.Vote, error) {
	query := s.db.WithContext(ctx).Model(&schema.Vote{}).
		Joins("JOIN roll_calls ON roll_calls.id = votes.roll_call_id").
		Where("votes.member_id = ?", memberID).
		Order("roll_calls.vote_date DESC, roll_calls.roll_number DESC").
		Preload("RollCall").
		Preload("RollCall.Bill")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var votes []schema.Vote
	if err := query.Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("failed to list votes for member %s: %w", memberID, err)
	}

	return votes, nil
}

// ListMembersForDistrict returns the representative(s) for a House
// district plus the state's senators
func (s *pgStore) ListMembersForDistrict(ctx context.Context, stateCode string, districtNumber string) ([]schema.Member, error) {
	var members []schema.Member
	err := s.db.WithContext(ctx).
		Where("state_code = ? AND is_active = ? AND (chamber = ? OR (chamber = ? AND district = ?))",
			stateCode, true, domain.ChamberSenate, domain.ChamberHouse, districtNumber).
		Order("chamber DESC, last_name").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members for district %s-%s: %w", stateCode, districtNumber, err)
	}

	return members, nil
}

// UpsertBill creates or updates a bill keyed by (congress, type, number)
func (s *pgStore) UpsertBill(ctx context.Context, bill domain.Bill) (*schema.Bill, bool, error) {
	existing, err := s.GetBillByRef(ctx, bill.BillRef)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		row := schema.Bill{
			ID:               uuid.NewString(),
			Congress:         bill.Congress,
			BillType:         bill.Type,
			BillNumber:       bill.Number,
			Title:            bill.Title,
			IntroducedDate:   bill.IntroducedDate,
			WebsiteURL:       nullableString(bill.FullTextURL),
			LatestAction:     nullableString(bill.LatestAction),
			LatestActionDate: bill.LatestActionDate,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create bill %s: %w", bill.BillRef.String(), err)
		}
		return &row, true, nil
	}

	updates := map[string]interface{}{}
	if bill.Title != "" {
		updates["title"] = bill.Title
	}
	if bill.LatestAction != "" {
		updates["latest_action"] = bill.LatestAction
	}
	if bill.LatestActionDate != nil {
		updates["latest_action_date"] = bill.LatestActionDate
	}
	// Keep the existing URL when the new record has none
	if bill.FullTextURL != "" && existing.WebsiteURL == nil {
		updates["website_url"] = bill.FullTextURL
	}

	if len(updates) > 0 {
		err = s.db.WithContext(ctx).Model(&schema.Bill{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error
		if err != nil {
			return nil, false, fmt.Errorf("failed to update bill %s: %w", bill.BillRef.String(), err)
		}
	}

	updated, err := s.GetBillByRef(ctx, bill.BillRef)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// EnrichBill merges detail-phase fields into an existing bill. Nil
// enrichment fields leave the stored values untouched.
func (s *pgStore) EnrichBill(ctx context.Context, ref domain.BillRef, enrichment BillEnrichment) error {
	existing, err := s.GetBillByRef(ctx, ref)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", domain.ErrBillNotFound, ref.String())
	}

	updates := map[string]interface{}{}
	if enrichment.Summary != nil {
		updates["summary"] = *enrichment.Summary
	}
	if enrichment.IntroducedDate != nil {
		updates["introduced_date"] = *enrichment.IntroducedDate
	}
	if enrichment.SponsorID != nil {
		updates["sponsor_id"] = *enrichment.SponsorID
	}
	if enrichment.PolicyAreaID != nil {
		updates["policy_area_id"] = *enrichment.PolicyAreaID
	}
	if enrichment.Subjects != nil {
		encoded, err := json.Marshal(enrichment.Subjects)
		if err != nil {
			return fmt.Errorf("failed to encode subjects for bill %s: %w", ref.String(), err)
		}
		updates["subjects"] = datatypes.JSON(encoded)
	}
	if enrichment.WebsiteURL != nil {
		updates["website_url"] = *enrichment.WebsiteURL
	}
	if enrichment.LatestAction != nil {
		updates["latest_action"] = *enrichment.LatestAction
	}
	if enrichment.LatestActionDate != nil {
		updates["latest_action_date"] = *enrichment.LatestActionDate
	}

	if len(updates) == 0 {
		return nil
	}

	err = s.db.WithContext(ctx).Model(&schema.Bill{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to enrich bill %s: %w", ref.String(), err)
	}

	return nil
}

// GetBillByRef retrieves a bill by its natural key
func (s *pgStore) GetBillByRef(ctx context.Context, ref domain.BillRef) (*schema.Bill, error) {
	var bill schema.Bill
	err := s.db.WithContext(ctx).
		Where("congress = ? AND bill_type = ? AND bill_number = ?", ref.Congress, ref.Type, ref.Number).
		First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill %s: %w", ref.String(), err)
	}
	return &bill, nil
}

// ListBills lists bills matching the filter, newest action first
func (s *pgStore) ListBills(ctx context.Context, filter BillFilter) ([]schema.Bill, error) {
	query := s.db.WithContext(ctx).Model(&schema.Bill{}).
		Preload("Sponsor").
		Preload("PolicyArea")

	if filter.Congress > 0 {
		query = query.Where("congress = ?", filter.Congress)
	}
	if filter.BillType != "" {
		query = query.Where("bill_type = ?", filter.BillType)
	}
	if filter.PolicyArea != "" {
		query = query.Joins("JOIN policy_areas ON policy_areas.id = bills.policy_area_id").
			Where("policy_areas.name = ?", filter.PolicyArea)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var bills []schema.Bill
	err := query.Order("latest_action_date DESC NULLS LAST, bill_number").Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	return bills, nil
}

// EnsurePolicyArea creates the policy area if needed and returns it
func (s *pgStore) EnsurePolicyArea(ctx context.Context, name string) (*schema.PolicyArea, error) {
	row := schema.PolicyArea{
		ID:   uuid.NewString(),
		Name: name,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure policy area %q: %w", name, err)
	}

	var area schema.PolicyArea
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&area).Error; err != nil {
		return nil, fmt.Errorf("failed to get policy area %q: %w", name, err)
	}
	return &area, nil
}

// RollCallExists reports whether a roll call has already been synced
func (s *pgStore) RollCallExists(ctx context.Context, congress int, chamber domain.Chamber, session int, rollNumber int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.RollCall{}).
		Where("congress = ? AND chamber = ? AND session = ? AND roll_number = ?", congress, chamber, session, rollNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check roll call %s %d-%d/%d: %w", chamber, congress, session, rollNumber, err)
	}
	return count > 0, nil
}

// UpsertRollCall creates or updates a roll call keyed by its natural key
func (s *pgStore) UpsertRollCall(ctx context.Context, rollCall *domain.RollCall, billID *string) (*schema.RollCall, error) {
	row := schema.RollCall{
		ID:             uuid.NewString(),
		Congress:       rollCall.Congress,
		Chamber:        rollCall.Chamber,
		Session:        rollCall.Session,
		RollNumber:     rollCall.Number,
		VoteDate:       rollCall.Date,
		Question:       rollCall.Question,
		Result:         rollCall.Result,
		BillID:         billID,
		YeaTotal:       rollCall.Totals.Yea,
		NayTotal:       rollCall.Totals.Nay,
		PresentTotal:   rollCall.Totals.Present,
		NotVotingTotal: rollCall.Totals.NotVoting,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "congress"}, {Name: "chamber"}, {Name: "session"}, {Name: "roll_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"vote_date", "question", "result", "bill_id",
			"yea_total", "nay_total", "present_total", "not_voting_total", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert roll call %s %d-%d/%d: %w",
			rollCall.Chamber, rollCall.Congress, rollCall.Session, rollCall.Number, err)
	}

	return s.GetRollCall(ctx, rollCall.Congress, rollCall.Chamber, rollCall.Session, rollCall.Number)
}

// GetRollCall retrieves a roll call by its natural key
func (s *pgStore) GetRollCall(ctx context.Context, congress int, chamber domain.Chamber, session int, rollNumber int) (*schema.RollCall, error) {
	var rollCall schema.RollCall
	err := s.db.WithContext(ctx).
		Where("congress = ? AND chamber = ? AND session = ? AND roll_number = ?", congress, chamber, session, rollNumber).
		Preload("Bill").
		First(&rollCall).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get roll call %s %d-%d/%d: %w", chamber, congress, session, rollNumber, err)
	}
	return &rollCall, nil
}

// ListRollCalls lists roll calls matching the filter, newest first
func (s *pgStore) ListRollCalls(ctx context.Context, filter RollCallFilter) ([]schema.RollCall, error) {
	query := s.db.WithContext(ctx).Model(&schema.RollCall{}).Preload("Bill")

	if filter.Congress > 0 {
		query = query.Where("congress = ?", filter.Congress)
	}
	if filter.Chamber != "" {
		query = query.Where("chamber = ?", filter.Chamber)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rollCalls []schema.RollCall
	if err := query.Order("vote_date DESC, roll_number DESC").Find(&rollCalls).Error; err != nil {
		return nil, fmt.Errorf("failed to list roll calls: %w", err)
	}

	return rollCalls, nil
}

// ListRollCallVotes lists the recorded votes of one roll call with members preloaded
func (s *pgStore) ListRollCallVotes(ctx context.Context, rollCallID string) ([]schema.Vote, error) {
	var votes []schema.Vote
	err := s.db.WithContext(ctx).Model(&schema.Vote{}).
		Joins("JOIN members ON members.id = votes.member_id").
		Where("votes.roll_call_id = ?", rollCallID).
		Order("members.state_code, members.last_name").
		Preload("Member").
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list votes for roll call %s: %w", rollCallID, err)
	}

	return votes, nil
}

// UpsertVote records one member's position on a roll call
func (s *pgStore) UpsertVote(ctx context.Context, memberID string, rollCallID string, position domain.VotePosition, billID *string) error {
	row := schema.Vote{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		RollCallID: rollCallID,
		Position:   position,
		BillID:     billID,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "roll_call_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "bill_id", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert vote for member %s on roll call %s: %w", memberID, rollCallID, err)
	}

	return nil
}

// partyBreakdownRow matches the aggregate query in UpdateRollCallBreakdown
type partyBreakdownRow struct {
	RepublicanYea int
	RepublicanNay int
	DemocratYea   int
	DemocratNay   int
}

// UpdateRollCallBreakdown recomputes a roll call's party breakdown from
// its recorded votes
func (s *pgStore) UpdateRollCallBreakdown(ctx context.Context, rollCallID string) error {
	var breakdown partyBreakdownRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE members.party = 'Republican' AND votes.position = 'Yea') AS republican_yea,
			COUNT(*) FILTER (WHERE members.party = 'Republican' AND votes.position = 'Nay') AS republican_nay,
			COUNT(*) FILTER (WHERE members.party = 'Democrat' AND votes.position = 'Yea') AS democrat_yea,
			COUNT(*) FILTER (WHERE members.party = 'Democrat' AND votes.position = 'Nay') AS democrat_nay
		FROM votes
		JOIN members ON members.id = votes.member_id
		WHERE votes.roll_call_id = ?`, rollCallID).
		Scan(&breakdown).Error
	if err != nil {
		return fmt.Errorf("failed to compute breakdown for roll call %s: %w", rollCallID, err)
	}

	err = s.db.WithContext(ctx).Model(&schema.RollCall{}).
		Where("id = ?", rollCallID).
		Updates(map[string]interface{}{
			"republican_yea": breakdown.RepublicanYea,
			"republican_nay": breakdown.RepublicanNay,
			"democrat_yea":   breakdown.DemocratYea,
			"democrat_nay":   breakdown.DemocratNay,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update breakdown for roll call %s: %w", rollCallID, err)
	}

	return nil
}

// BackfillPartyBreakdowns recomputes breakdowns for every roll call
func (s *pgStore) BackfillPartyBreakdowns(ctx context.Context) (int, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&schema.RollCall{}).
		Order("vote_date").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list roll calls for backfill: %w", err)
	}

	for i, id := range ids {
		if err := s.UpdateRollCallBreakdown(ctx, id); err != nil {
			return i, err
		}
	}

	return len(ids), nil
}

// LookupZipDistrict returns one cached district for a ZIP code
func (s *pgStore) LookupZipDistrict(ctx context.Context, zipCode string) (*domain.District, error) {
	var record schema.ZipDistrict
	err := s.db.WithContext(ctx).
		Where("zip_code = ?", zipCode).
		Order("state_code, district_number").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ZIP %s", domain.ErrNoDistrict, zipCode)
		}
		return nil, fmt.Errorf("failed to look up ZIP %s: %w", zipCode, err)
	}

	stateName, _ := domain.StateName(record.StateCode)
	return &domain.District{
		StateCode:      record.StateCode,
		StateName:      stateName,
		DistrictNumber: record.DistrictNumber,
	}, nil
}

// ListZipDistricts returns every cached district for a ZIP code
func (s *pgStore) ListZipDistricts(ctx context.Context, zipCode string) ([]schema.ZipDistrict, error) {
	var records []schema.ZipDistrict
	err := s.db.WithContext(ctx).
		Where("zip_code = ?", zipCode).
		Order("state_code, district_number").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list districts for ZIP %s: %w", zipCode, err)
	}
	return records, nil
}

// CacheZipDistrict stores one resolved ZIP-to-district mapping
func (s *pgStore) CacheZipDistrict(ctx context.Context, record domain.ZipDistrict) error {
	_, err := s.BulkUpsertZipDistricts(ctx, []domain.ZipDistrict{record})
	return err
}

// BulkUpsertZipDistricts inserts a batch of dataset records, skipping
// existing ones, and reports how many were newly inserted
func (s *pgStore) BulkUpsertZipDistricts(ctx context.Context, records []domain.ZipDistrict) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]schema.ZipDistrict, 0, len(records))
	for _, record := range records {
		rows = append(rows, schema.ZipDistrict{
			ID:             uuid.NewString(),
			ZipCode:        record.ZipCode,
			StateCode:      record.StateCode,
			DistrictNumber: record.DistrictNumber,
		})
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "zip_code"}, {Name: "state_code"}, {Name: "district_number"}},
		DoNothing: true,
	}).Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert ZIP districts: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// GetLastSyncTime returns when an entity was last synced
func (s *pgStore) GetLastSyncTime(ctx context.Context, entity string) (*time.Time, error) {
	var metadata schema.SyncMetadata
	err := s.db.WithContext(ctx).Where("entity = ?", entity).First(&metadata).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync metadata for %s: %w", entity, err)
	}
	return &metadata.LastSyncAt, nil
}

// SetLastSyncTime records a successful sync of an entity
func (s *pgStore) SetLastSyncTime(ctx context.Context, entity string, syncedAt time.Time) error {
	row := schema.SyncMetadata{
		Entity:     entity,
		LastSyncAt: syncedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sync_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set sync metadata for %s: %w", entity, err)
	}
	return nil
}

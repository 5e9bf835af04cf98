package rest

import (
	"fmt"

	"github.com/democracy-watch/congress-indexer/internal/domain"
)

const MAX_PAGE_SIZE = 100

// ListMembersQueryParams holds query parameters for GET /members
type ListMembersQueryParams struct {
	State   string `form:"state"`
	Chamber string `form:"chamber"`
	Party   string `form:"party"`
	Active  bool   `form:"active,default=false"`

	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// Validate checks filter values and clamps pagination
func (p *ListMembersQueryParams) Validate() error {
	if p.Chamber != "" && !domain.IsValidChamber(domain.Chamber(p.Chamber)) {
		return fmt.Errorf("invalid chamber %q", p.Chamber)
	}
	clampPagination(&p.Limit, &p.Offset)
	return nil
}

// ListBillsQueryParams holds query parameters for GET /bills
type ListBillsQueryParams struct {
	Congress   int    `form:"congress"`
	BillType   string `form:"bill_type"`
	PolicyArea string `form:"policy_area"`

	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

func (p *ListBillsQueryParams) Validate() error {
	if p.Congress < 0 {
		return fmt.Errorf("invalid congress %d", p.Congress)
	}
	clampPagination(&p.Limit, &p.Offset)
	return nil
}

// ListRollCallsQueryParams holds query parameters for GET /roll-calls
type ListRollCallsQueryParams struct {
	Congress int    `form:"congress"`
	Chamber  string `form:"chamber"`

	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

func (p *ListRollCallsQueryParams) Validate() error {
	if p.Chamber != "" && !domain.IsValidChamber(domain.Chamber(p.Chamber)) {
		return fmt.Errorf("invalid chamber %q", p.Chamber)
	}
	clampPagination(&p.Limit, &p.Offset)
	return nil
}

// PaginationQueryParams holds bare limit/offset parameters
type PaginationQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

func (p *PaginationQueryParams) Validate() error {
	clampPagination(&p.Limit, &p.Offset)
	return nil
}

func clampPagination(limit *int, offset *int) {
	if *limit <= 0 {
		*limit = 20
	}
	if *limit > MAX_PAGE_SIZE {
		*limit = MAX_PAGE_SIZE
	}
	if *offset < 0 {
		*offset = 0
	}
}

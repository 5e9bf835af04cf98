package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/geo"
	"github.com/democracy-watch/congress-indexer/internal/providers/temporal"
	"github.com/democracy-watch/congress-indexer/internal/store"
	"github.com/democracy-watch/congress-indexer/internal/workflows"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListMembers retrieves members with optional filters
	// GET /api/v1/members?state=<code>&chamber=<chamber>&party=<party>&active=<bool>&limit=<limit>&offset=<offset>
	ListMembers(c *gin.Context)

	// GetMember retrieves a single member by bioguide ID
	// GET /api/v1/members/:bioguideId
	GetMember(c *gin.Context)

	// ListMemberVotes retrieves a member's voting record, newest first
	// GET /api/v1/members/:bioguideId/votes?limit=<limit>&offset=<offset>
	ListMemberVotes(c *gin.Context)

	// ListBills retrieves bills with optional filters
	// GET /api/v1/bills?congress=<n>&bill_type=<type>&policy_area=<area>&limit=<limit>&offset=<offset>
	ListBills(c *gin.Context)

	// GetBill retrieves a single bill by its natural key
	// GET /api/v1/bills/:congress/:billType/:billNumber
	GetBill(c *gin.Context)

	// ListRollCalls retrieves roll calls with optional filters
	// GET /api/v1/roll-calls?congress=<n>&chamber=<chamber>&limit=<limit>&offset=<offset>
	ListRollCalls(c *gin.Context)

	// GetRollCall retrieves a roll call with its recorded votes
	// GET /api/v1/roll-calls/:congress/:chamber/:session/:rollNumber
	GetRollCall(c *gin.Context)

	// GetDistrictByZip resolves a ZIP code to its congressional
	// district and delegation
	// GET /api/v1/districts/:zipCode
	GetDistrictByZip(c *gin.Context)

	// TriggerCongressSync starts a full sync workflow (requires API key)
	// POST /api/v1/sync/congress
	TriggerCongressSync(c *gin.Context)

	// TriggerZipDistrictSync starts a ZIP dataset reload workflow (requires API key)
	// POST /api/v1/sync/zip-districts
	TriggerZipDistrictSync(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store        store.Store
	resolver     *geo.Resolver
	orchestrator temporal.TemporalOrchestrator
	taskQueue    string
}

// NewHandler creates a new REST API handler
func NewHandler(dataStore store.Store, resolver *geo.Resolver, orchestrator temporal.TemporalOrchestrator, taskQueue string) Handler {
	return &handler{
		store:        dataStore,
		resolver:     resolver,
		orchestrator: orchestrator,
		taskQueue:    taskQueue,
	}
}

// ListMembers retrieves members with optional filters
func (h *handler) ListMembers(c *gin.Context) {
	var params ListMembersQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	members, err := h.store.ListMembers(c.Request.Context(), store.MemberFilter{
		StateCode:  params.State,
		Chamber:    domain.Chamber(params.Chamber),
		Party:      params.Party,
		ActiveOnly: params.Active,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list members")
		return
	}

	response := ListResponse[MemberDTO]{
		Items:  make([]MemberDTO, 0, len(members)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for i := range members {
		response.Items = append(response.Items, newMemberDTO(&members[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetMember retrieves a single member by bioguide ID
func (h *handler) GetMember(c *gin.Context) {
	bioguideID := c.Param("bioguideId")
	if bioguideID == "" {
		respondBadRequest(c, "Bioguide ID is required")
		return
	}

	member, err := h.store.GetMemberByBioguideID(c.Request.Context(), bioguideID)
	if err != nil {
		respondInternalError(c, err, "Failed to get member")
		return
	}
	if member == nil {
		respondNotFound(c, "Member not found")
		return
	}

	c.JSON(http.StatusOK, newMemberDTO(member))
}

// ListMemberVotes retrieves a member's voting record
func (h *handler) ListMemberVotes(c *gin.Context) {
	bioguideID := c.Param("bioguideId")

	var params PaginationQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	_ = params.Validate()

	member, err := h.store.GetMemberByBioguideID(c.Request.Context(), bioguideID)
	if err != nil {
		respondInternalError(c, err, "Failed to get member")
		return
	}
	if member == nil {
		respondNotFound(c, "Member not found")
		return
	}

	votes, err := h.store.ListMemberVotes(c.Request.Context(), member.ID, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list member votes")
		return
	}

	response := ListResponse[VoteDTO]{
		Items:  make([]VoteDTO, 0, len(votes)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, vote := range votes {
		response.Items = append(response.Items, newMemberVoteDTO(vote))
	}
	c.JSON(http.StatusOK, response)
}

// ListBills retrieves bills with optional filters
func (h *handler) ListBills(c *gin.Context) {
	var params ListBillsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	bills, err := h.store.ListBills(c.Request.Context(), store.BillFilter{
		Congress:   params.Congress,
		BillType:   params.BillType,
		PolicyArea: params.PolicyArea,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list bills")
		return
	}

	response := ListResponse[BillDTO]{
		Items:  make([]BillDTO, 0, len(bills)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for i := range bills {
		response.Items = append(response.Items, newBillDTO(&bills[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetBill retrieves a single bill by its natural key
func (h *handler) GetBill(c *gin.Context) {
	ref, err := billRefFromPath(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	bill, err := h.store.GetBillByRef(c.Request.Context(), ref)
	if err != nil {
		respondInternalError(c, err, "Failed to get bill")
		return
	}
	if bill == nil {
		respondNotFound(c, "Bill not found")
		return
	}

	c.JSON(http.StatusOK, newBillDTO(bill))
}

// ListRollCalls retrieves roll calls with optional filters
func (h *handler) ListRollCalls(c *gin.Context) {
	var params ListRollCallsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	rollCalls, err := h.store.ListRollCalls(c.Request.Context(), store.RollCallFilter{
		Congress: params.Congress,
		Chamber:  domain.Chamber(params.Chamber),
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list roll calls")
		return
	}

	response := ListResponse[RollCallDTO]{
		Items:  make([]RollCallDTO, 0, len(rollCalls)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for i := range rollCalls {
		response.Items = append(response.Items, newRollCallDTO(&rollCalls[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetRollCall retrieves a roll call with its recorded votes
func (h *handler) GetRollCall(c *gin.Context) {
	congress, err := intParam(c, "congress")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	chamber := domain.Chamber(c.Param("chamber"))
	if !domain.IsValidChamber(chamber) {
		respondBadRequest(c, fmt.Sprintf("invalid chamber %q", c.Param("chamber")))
		return
	}
	session, err := intParam(c, "session")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	rollNumber, err := intParam(c, "rollNumber")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	rollCall, err := h.store.GetRollCall(c.Request.Context(), congress, chamber, session, rollNumber)
	if err != nil {
		respondInternalError(c, err, "Failed to get roll call")
		return
	}
	if rollCall == nil {
		respondNotFound(c, "Roll call not found")
		return
	}

	votes, err := h.store.ListRollCallVotes(c.Request.Context(), rollCall.ID)
	if err != nil {
		respondInternalError(c, err, "Failed to list roll call votes")
		return
	}

	voteDTOs := make([]VoteDTO, 0, len(votes))
	for _, vote := range votes {
		voteDTOs = append(voteDTOs, newRollCallVoteDTO(vote))
	}
	c.JSON(http.StatusOK, gin.H{
		"rollCall": newRollCallDTO(rollCall),
		"votes":    voteDTOs,
	})
}

// GetDistrictByZip resolves a ZIP code to its district and delegation
func (h *handler) GetDistrictByZip(c *gin.Context) {
	zipCode := c.Param("zipCode")
	if len(zipCode) != 5 {
		respondBadRequest(c, "ZIP code must be 5 digits")
		return
	}
	if _, err := strconv.Atoi(zipCode); err != nil {
		respondBadRequest(c, "ZIP code must be 5 digits")
		return
	}

	district, err := h.resolver.ResolveZip(c.Request.Context(), zipCode)
	if err != nil {
		if errors.Is(err, domain.ErrNoDistrict) {
			respondNotFound(c, "No congressional district found for ZIP code")
			return
		}
		respondInternalError(c, err, "Failed to resolve district",
			zap.String("zipCode", zipCode))
		return
	}

	members, err := h.store.ListMembersForDistrict(c.Request.Context(), district.StateCode, district.DistrictNumber)
	if err != nil {
		respondInternalError(c, err, "Failed to list district members")
		return
	}

	c.JSON(http.StatusOK, newDistrictDTO(zipCode, district, members))
}

// congressSyncRequest is the body of POST /sync/congress
type congressSyncRequest struct {
	Force       bool `json:"force"`
	Incremental bool `json:"incremental"`
}

// TriggerCongressSync starts a full sync workflow
func (h *handler) TriggerCongressSync(c *gin.Context) {
	var request congressSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			respondBadRequest(c, "Invalid request body", err.Error())
			return
		}
	}

	run, err := h.orchestrator.ExecuteWorkflow(c.Request.Context(), client.StartWorkflowOptions{
		ID:        fmt.Sprintf("sync-congress-%d", time.Now().Unix()),
		TaskQueue: h.taskQueue,
	}, "SyncCongressWorkflow", workflows.CongressSyncParams{
		Force:       request.Force,
		Incremental: request.Incremental,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to start sync workflow")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"workflowId": run.GetID(),
		"runId":      run.GetRunID(),
	})
}

// TriggerZipDistrictSync starts a ZIP dataset reload workflow
func (h *handler) TriggerZipDistrictSync(c *gin.Context) {
	run, err := h.orchestrator.ExecuteWorkflow(c.Request.Context(), client.StartWorkflowOptions{
		ID:        fmt.Sprintf("sync-zip-districts-%d", time.Now().Unix()),
		TaskQueue: h.taskQueue,
	}, "SyncZipDistrictsWorkflow")
	if err != nil {
		respondInternalError(c, err, "Failed to start sync workflow")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"workflowId": run.GetID(),
		"runId":      run.GetRunID(),
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func intParam(c *gin.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, c.Param(name))
	}
	return value, nil
}

func billRefFromPath(c *gin.Context) (domain.BillRef, error) {
	congress, err := intParam(c, "congress")
	if err != nil {
		return domain.BillRef{}, err
	}
	billNumber, err := intParam(c, "billNumber")
	if err != nil {
		return domain.BillRef{}, err
	}
	billType := c.Param("billType")
	if billType == "" {
		return domain.BillRef{}, errors.New("bill type is required")
	}
	return domain.BillRef{Congress: congress, Type: billType, Number: billNumber}, nil
}

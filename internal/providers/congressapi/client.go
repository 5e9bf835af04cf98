package congressapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

const SOURCE_NAME = config.SourceCongressAPI

// DefaultPageLimit is the largest page size the API accepts
const DefaultPageLimit = 250

// PageOptions holds limit/offset pagination parameters
type PageOptions struct {
	Limit  int
	Offset int
}

// Client defines the interface for Congress API client operations to enable mocking
type Client interface {
	// GetMembers fetches one page of members for a congress
	GetMembers(ctx context.Context, congress int, opts PageOptions) (*MembersResponse, error)

	// GetBills fetches one page of bills for a congress. A non-empty
	// fromDateTime restricts results to bills updated since that instant.
	GetBills(ctx context.Context, congress int, opts PageOptions, fromDateTime string) (*BillsResponse, error)

	// GetBill fetches the detail record for one bill
	GetBill(ctx context.Context, congress int, billType string, billNumber int) (*BillDetailResponse, error)

	// GetBillSummaries fetches the summary versions for one bill
	GetBillSummaries(ctx context.Context, congress int, billType string, billNumber int) (*BillSummariesResponse, error)

	// GetBillSubjects fetches the legislative subjects for one bill
	GetBillSubjects(ctx context.Context, congress int, billType string, billNumber int) (*BillSubjectsResponse, error)

	// GetHouseVotes fetches one page of House roll-call vote stubs
	GetHouseVotes(ctx context.Context, congress int, opts PageOptions) (*HouseVotesResponse, error)
}

// CongressAPIClient implements the Congress API client
type CongressAPIClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	apiURL         string
	apiKey         string
}

// NewClient creates a new Congress API client
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, apiURL string, apiKey string) Client {
	return &CongressAPIClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		apiURL:         apiURL,
		apiKey:         apiKey,
	}
}

// endpoint builds a full request URL with the API key and pagination parameters
func (c *CongressAPIClient) endpoint(path string, params map[string]string) string {
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("format", "json")
	for key, value := range params {
		if value != "" {
			values.Set(key, value)
		}
	}
	return fmt.Sprintf("%s%s?%s", c.apiURL, path, values.Encode())
}

func pageParams(opts PageOptions) map[string]string {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(opts.Offset),
	}
}

// get performs a rate-limited GET and decodes the JSON response into result
func get[T any](ctx context.Context, c *CongressAPIClient, requestURL string) (*T, error) {
	return ratelimit.Request(ctx, c.rateLimitProxy, SOURCE_NAME, func(ctx context.Context) (*T, error) {
		var result T
		if err := c.httpClient.Get(ctx, requestURL, &result); err != nil {
			return nil, fmt.Errorf("congress API request failed: %w", err)
		}
		return &result, nil
	})
}

// GetMembers fetches one page of members for a congress
func (c *CongressAPIClient) GetMembers(ctx context.Context, congress int, opts PageOptions) (*MembersResponse, error) {
	requestURL := c.endpoint(fmt.Sprintf("/member/congress/%d", congress), pageParams(opts))
	return get[MembersResponse](ctx, c, requestURL)
}

// GetBills fetches one page of bills for a congress
func (c *CongressAPIClient) GetBills(ctx context.Context, congress int, opts PageOptions, fromDateTime string) (*BillsResponse, error) {
	params := pageParams(opts)
	if fromDateTime != "" {
		params["fromDateTime"] = fromDateTime
	}
	requestURL := c.endpoint(fmt.Sprintf("/bill/%d", congress), params)
	return get[BillsResponse](ctx, c, requestURL)
}

// GetBill fetches the detail record for one bill
func (c *CongressAPIClient) GetBill(ctx context.Context, congress int, billType string, billNumber int) (*BillDetailResponse, error) {
	requestURL := c.endpoint(fmt.Sprintf("/bill/%d/%s/%d", congress, billType, billNumber), nil)
	return get[BillDetailResponse](ctx, c, requestURL)
}

// GetBillSummaries fetches the summary versions for one bill
func (c *CongressAPIClient) GetBillSummaries(ctx context.Context, congress int, billType string, billNumber int) (*BillSummariesResponse, error) {
	requestURL := c.endpoint(fmt.Sprintf("/bill/%d/%s/%d/summaries", congress, billType, billNumber), nil)
	return get[BillSummariesResponse](ctx, c, requestURL)
}

// GetBillSubjects fetches the legislative subjects for one bill
func (c *CongressAPIClient) GetBillSubjects(ctx context.Context, congress int, billType string, billNumber int) (*BillSubjectsResponse, error) {
	requestURL := c.endpoint(fmt.Sprintf("/bill/%d/%s/%d/subjects", congress, billType, billNumber), nil)
	return get[BillSubjectsResponse](ctx, c, requestURL)
}

// GetHouseVotes fetches one page of House roll-call vote stubs
func (c *CongressAPIClient) GetHouseVotes(ctx context.Context, congress int, opts PageOptions) (*HouseVotesResponse, error) {
	requestURL := c.endpoint(fmt.Sprintf("/house-vote/%d", congress), pageParams(opts))
	return get[HouseVotesResponse](ctx, c, requestURL)
}

package geocoder

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

const CICERO_SOURCE_NAME = config.SourceCicero

// CiceroClient looks up congressional districts through the commercial
// Cicero API, used as a fallback when the Census geocoder cannot place
// a ZIP code
type CiceroClient interface {
	GetDistrictByZip(ctx context.Context, zipCode string) (*domain.District, error)
}

// CiceroAPIClient implements the Cicero API client
type CiceroAPIClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	baseURL        string
	apiKey         string
}

// NewCiceroClient creates a new Cicero client. It returns nil when no
// API key is configured; callers treat a nil client as the fallback
// stage being unavailable rather than an error.
func NewCiceroClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, baseURL string, apiKey string) CiceroClient {
	if apiKey == "" {
		logger.Warn("Cicero API key not configured, Cicero lookups disabled")
		return nil
	}

	return &CiceroAPIClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		baseURL:        baseURL,
		apiKey:         apiKey,
	}
}

type ciceroDistrict struct {
	DistrictType string `json:"district_type"`
	DistrictID   string `json:"district_id"`
	State        string `json:"state"`
}

type ciceroOfficial struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party"`
	Office    struct {
		District ciceroDistrict `json:"district"`
	} `json:"office"`
}

type ciceroCandidate struct {
	MatchPostal string           `json:"match_postal"`
	MatchRegion string           `json:"match_region"`
	Officials   []ciceroOfficial `json:"officials"`
}

type ciceroResponse struct {
	Response struct {
		Errors  []string `json:"errors"`
		Results struct {
			Candidates []ciceroCandidate `json:"candidates"`
		} `json:"results"`
	} `json:"response"`
}

// GetDistrictByZip resolves a ZIP code to its congressional district
func (c *CiceroAPIClient) GetDistrictByZip(ctx context.Context, zipCode string) (*domain.District, error) {
	values := url.Values{}
	values.Set("search_postal", zipCode)
	values.Set("search_country", "US")
	values.Set("format", "json")
	values.Set("key", c.apiKey)

	requestURL := fmt.Sprintf("%s/v3.1/official?%s", c.baseURL, values.Encode())

	resp, err := ratelimit.Request(ctx, c.rateLimitProxy, CICERO_SOURCE_NAME, func(ctx context.Context) (*ciceroResponse, error) {
		var resp ciceroResponse
		if err := c.httpClient.Get(ctx, requestURL, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Cicero for ZIP %s: %w", zipCode, err)
	}

	if len(resp.Response.Errors) > 0 {
		return nil, fmt.Errorf("Cicero returned errors for ZIP %s: %s", zipCode, strings.Join(resp.Response.Errors, "; "))
	}

	district, err := parseCiceroResponse(resp, zipCode)
	if err != nil {
		return nil, err
	}

	logger.Debug("Cicero resolved district",
		zap.String("zip_code", zipCode),
		zap.String("state_code", district.StateCode),
		zap.String("district_number", district.DistrictNumber))

	return district, nil
}

func parseCiceroResponse(resp *ciceroResponse, zipCode string) (*domain.District, error) {
	candidates := resp.Response.Results.Candidates
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	candidate := candidates[0]

	// The House seat (NATIONAL_LOWER) carries the district number
	var house *ciceroOfficial
	for i := range candidate.Officials {
		if candidate.Officials[i].Office.District.DistrictType == "NATIONAL_LOWER" {
			house = &candidate.Officials[i]
			break
		}
	}

	if house == nil {
		// A matched region without a House seat means an at-large state
		if candidate.MatchRegion != "" {
			return newCiceroDistrict(candidate.MatchRegion, "AL"), nil
		}
		return nil, fmt.Errorf("%w: no House district for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	district := house.Office.District
	stateCode := district.State
	if stateCode == "" {
		stateCode = candidate.MatchRegion
	}
	if stateCode == "" {
		return nil, fmt.Errorf("%w: no state for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	districtNumber := domain.NormalizeDistrict(district.DistrictID)
	// Cicero reports single-digit districts unpadded
	if districtNumber != "AL" && len(districtNumber) == 1 {
		districtNumber = "0" + districtNumber
	}

	return newCiceroDistrict(stateCode, districtNumber), nil
}

func newCiceroDistrict(stateCode string, districtNumber string) *domain.District {
	stateName, _ := domain.StateName(stateCode)
	return &domain.District{
		StateCode:      stateCode,
		StateName:      stateName,
		DistrictNumber: districtNumber,
	}
}

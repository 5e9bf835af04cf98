package geocoder

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/config"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/ratelimit"
)

const CENSUS_SOURCE_NAME = config.SourceCensusGeocoder

// congressionalDistrictsLayer is the TIGERweb layer carrying current
// congressional district boundaries
const congressionalDistrictsLayer = "54"

// CensusClient looks up congressional districts through the free Census
// Bureau geocoder
type CensusClient interface {
	// GetDistrictByZip resolves a ZIP code to its congressional
	// district. A ZIP the geocoder cannot place yields
	// domain.ErrNoDistrict.
	GetDistrictByZip(ctx context.Context, zipCode string) (*domain.District, error)
}

// CensusGeocoderClient implements the Census Bureau geocoder client
type CensusGeocoderClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	baseURL        string
}

// NewCensusClient creates a new Census geocoder client
func NewCensusClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, baseURL string) CensusClient {
	return &CensusGeocoderClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		baseURL:        baseURL,
	}
}

type censusDistrict struct {
	GeoID string `json:"GEOID"`
	State string `json:"STATE"`
	CD119 string `json:"CD119"`
	CD    string `json:"CD"`
	Name  string `json:"NAME"`
}

type censusGeographies struct {
	CurrentCongress []censusDistrict `json:"119th Congressional Districts"`
	Generic         []censusDistrict `json:"Congressional Districts"`
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Geographies censusGeographies `json:"geographies"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// GetDistrictByZip resolves a ZIP code to its congressional district
func (c *CensusGeocoderClient) GetDistrictByZip(ctx context.Context, zipCode string) (*domain.District, error) {
	// ZIP-only lookup, the street fields stay empty
	values := url.Values{}
	values.Set("street", "")
	values.Set("city", "")
	values.Set("state", "")
	values.Set("zip", zipCode)
	values.Set("benchmark", "Public_AR_Current")
	values.Set("vintage", "Current_Current")
	values.Set("layers", congressionalDistrictsLayer)
	values.Set("format", "json")

	requestURL := fmt.Sprintf("%s/geocoder/geographies/address?%s", c.baseURL, values.Encode())

	resp, err := ratelimit.Request(ctx, c.rateLimitProxy, CENSUS_SOURCE_NAME, func(ctx context.Context) (*censusResponse, error) {
		var resp censusResponse
		if err := c.httpClient.Get(ctx, requestURL, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Census geocoder for ZIP %s: %w", zipCode, err)
	}

	district, err := parseCensusResponse(resp, zipCode)
	if err != nil {
		return nil, err
	}

	logger.Debug("Census geocoder resolved district",
		zap.String("zip_code", zipCode),
		zap.String("state_code", district.StateCode),
		zap.String("district_number", district.DistrictNumber))

	return district, nil
}

func parseCensusResponse(resp *censusResponse, zipCode string) (*domain.District, error) {
	if len(resp.Result.AddressMatches) == 0 {
		return nil, fmt.Errorf("%w: no address match for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	geographies := resp.Result.AddressMatches[0].Geographies
	districts := geographies.CurrentCongress
	if len(districts) == 0 {
		districts = geographies.Generic
	}
	if len(districts) == 0 {
		return nil, fmt.Errorf("%w: no congressional district layer for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	match := districts[0]
	districtCode := match.CD119
	if districtCode == "" {
		districtCode = match.CD
	}
	if match.State == "" || districtCode == "" {
		return nil, fmt.Errorf("%w: incomplete district record for ZIP %s", domain.ErrNoDistrict, zipCode)
	}

	stateCode, ok := domain.StateCodeFromFIPS(match.State)
	if !ok {
		logger.Warn("unknown FIPS state code in Census response",
			zap.String("state_fips", match.State),
			zap.String("zip_code", zipCode))
		return nil, fmt.Errorf("%w: unknown FIPS state %s for ZIP %s", domain.ErrNoDistrict, match.State, zipCode)
	}

	stateName, _ := domain.StateName(stateCode)

	return &domain.District{
		StateCode:      stateCode,
		StateName:      stateName,
		DistrictNumber: domain.NormalizeDistrict(districtCode),
	}, nil
}

package geocoder_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
	"github.com/democracy-watch/congress-indexer/internal/providers/geocoder"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestCensusGetDistrictByZip(t *testing.T) {
	var requested *http.Request
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		requested = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"result": {
				"addressMatches": [{
					"geographies": {
						"119th Congressional Districts": [
							{"GEOID": "3707", "STATE": "37", "CD119": "07", "NAME": "Congressional District 7"}
						]
					}
				}]
			}
		}`))
	})

	client := geocoder.NewCensusClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL)

	district, err := client.GetDistrictByZip(context.Background(), "28401")
	require.NoError(t, err)

	assert.Equal(t, "/geocoder/geographies/address", requested.URL.Path)
	query := requested.URL.Query()
	assert.Equal(t, "28401", query.Get("zip"))
	assert.Equal(t, "Public_AR_Current", query.Get("benchmark"))
	assert.Equal(t, "Current_Current", query.Get("vintage"))
	assert.Equal(t, "54", query.Get("layers"))

	assert.Equal(t, &domain.District{
		StateCode:      "NC",
		StateName:      "North Carolina",
		DistrictNumber: "07",
	}, district)
}

func TestCensusGetDistrictByZip_GenericLayerAndAtLarge(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"result": {
				"addressMatches": [{
					"geographies": {
						"Congressional Districts": [
							{"STATE": "56", "CD": "00"}
						]
					}
				}]
			}
		}`))
	})

	client := geocoder.NewCensusClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL)

	district, err := client.GetDistrictByZip(context.Background(), "82001")
	require.NoError(t, err)
	assert.Equal(t, "WY", district.StateCode)
	assert.Equal(t, "AL", district.DistrictNumber)
}

func TestCensusGetDistrictByZip_NoMatch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"addressMatches": []}}`))
	})

	client := geocoder.NewCensusClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL)

	_, err := client.GetDistrictByZip(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDistrict))
}

func TestCensusGetDistrictByZip_UnknownFIPS(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"result": {
				"addressMatches": [{
					"geographies": {
						"119th Congressional Districts": [{"STATE": "99", "CD119": "01"}]
					}
				}]
			}
		}`))
	})

	client := geocoder.NewCensusClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL)

	_, err := client.GetDistrictByZip(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDistrict))
}

func TestNewCiceroClient_NoKeyDisabled(t *testing.T) {
	client := geocoder.NewCiceroClient(adapter.NewHTTPClient(10*time.Second), nil, "https://example.com", "")
	assert.Nil(t, client)
}

func TestCiceroGetDistrictByZip(t *testing.T) {
	var requested *http.Request
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		requested = r
		_, _ = w.Write([]byte(`{
			"response": {
				"results": {
					"candidates": [{
						"match_postal": "02144",
						"match_region": "MA",
						"officials": [
							{
								"first_name": "Ed", "last_name": "Markey", "party": "Democrat",
								"office": {"district": {"district_type": "NATIONAL_UPPER", "state": "MA"}}
							},
							{
								"first_name": "Katherine", "last_name": "Clark", "party": "Democrat",
								"office": {"district": {"district_type": "NATIONAL_LOWER", "district_id": "5", "state": "MA"}}
							}
						]
					}]
				}
			}
		}`))
	})

	client := geocoder.NewCiceroClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL, "test-key")
	require.NotNil(t, client)

	district, err := client.GetDistrictByZip(context.Background(), "02144")
	require.NoError(t, err)

	query := requested.URL.Query()
	assert.Equal(t, "02144", query.Get("search_postal"))
	assert.Equal(t, "US", query.Get("search_country"))
	assert.Equal(t, "test-key", query.Get("key"))

	// Single-digit districts are zero-padded
	assert.Equal(t, &domain.District{
		StateCode:      "MA",
		StateName:      "Massachusetts",
		DistrictNumber: "05",
	}, district)
}

func TestCiceroGetDistrictByZip_AtLargeFallback(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"response": {
				"results": {
					"candidates": [{"match_region": "AK", "officials": []}]
				}
			}
		}`))
	})

	client := geocoder.NewCiceroClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL, "test-key")

	district, err := client.GetDistrictByZip(context.Background(), "99501")
	require.NoError(t, err)
	assert.Equal(t, "AK", district.StateCode)
	assert.Equal(t, "AL", district.DistrictNumber)
}

func TestCiceroGetDistrictByZip_APIErrors(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": {"errors": ["Invalid key"], "results": {"candidates": []}}}`))
	})

	client := geocoder.NewCiceroClient(adapter.NewHTTPClient(10*time.Second), nil, server.URL, "bad-key")

	_, err := client.GetDistrictByZip(context.Background(), "02144")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}

package geo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/geo"
)

const zccdFixture = `state_fips,state_abbr,zcta,cd
01,AL,30165,3
25,ma,2144,5
56,WY,82001,0
37,NC,28401,7

02,AK,99501,
99,XX,12345,1
06,CA`

func TestParseZipDistrictCSV(t *testing.T) {
	records := geo.ParseZipDistrictCSV(zccdFixture)

	// The header, the blank line, and the short line are skipped
	require.Len(t, records, 6)

	assert.Equal(t, domain.ZipDistrict{ZipCode: "30165", StateCode: "AL", DistrictNumber: "3"}, records[0])

	// Leading zeros restored, state upcased
	assert.Equal(t, domain.ZipDistrict{ZipCode: "02144", StateCode: "MA", DistrictNumber: "5"}, records[1])

	// "0" and empty district mean at-large
	assert.Equal(t, "AL", records[2].DistrictNumber)
	assert.Equal(t, domain.ZipDistrict{ZipCode: "99501", StateCode: "AK", DistrictNumber: "AL"}, records[4])
}

func TestInvalidStateCodes(t *testing.T) {
	records := geo.ParseZipDistrictCSV(zccdFixture)
	assert.Equal(t, []string{"XX"}, geo.InvalidStateCodes(records))
}

type fakeZipDistrictStore struct {
	batches  [][]domain.ZipDistrict
	existing map[string]bool
	failAll  bool
}

func (s *fakeZipDistrictStore) BulkUpsertZipDistricts(_ context.Context, records []domain.ZipDistrict) (int, error) {
	if s.failAll {
		return 0, errors.New("database unavailable")
	}

	s.batches = append(s.batches, records)
	inserted := 0
	for _, record := range records {
		key := record.ZipCode + record.StateCode + record.DistrictNumber
		if !s.existing[key] {
			if s.existing == nil {
				s.existing = make(map[string]bool)
			}
			s.existing[key] = true
			inserted++
		}
	}
	return inserted, nil
}

func TestZipDistrictLoader_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(zccdFixture))
	}))
	t.Cleanup(server.Close)

	store := &fakeZipDistrictStore{
		existing: map[string]bool{"30165" + "AL" + "3": true},
	}
	loader := geo.NewZipDistrictLoader(adapter.NewHTTPClient(10*time.Second), store, server.URL+"/zccd.csv")

	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Errors)
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 6)
}

func TestZipDistrictLoader_BatchFailureCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(zccdFixture))
	}))
	t.Cleanup(server.Close)

	store := &fakeZipDistrictStore{failAll: true}
	loader := geo.NewZipDistrictLoader(adapter.NewHTTPClient(10*time.Second), store, server.URL+"/zccd.csv")

	result, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 6, result.Errors)
}

func TestZipDistrictLoader_EmptyDataset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("state_fips,state_abbr,zcta,cd\n"))
	}))
	t.Cleanup(server.Close)

	loader := geo.NewZipDistrictLoader(adapter.NewHTTPClient(10*time.Second), &fakeZipDistrictStore{}, server.URL+"/zccd.csv")

	_, err := loader.Load(context.Background())
	require.Error(t, err)
}

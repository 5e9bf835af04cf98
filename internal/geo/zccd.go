package geo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/democracy-watch/congress-indexer/internal/adapter"
	"github.com/democracy-watch/congress-indexer/internal/domain"
	"github.com/democracy-watch/congress-indexer/internal/logger"
)

// zipDistrictBatchSize bounds the multi-row upserts when loading the
// full dataset (~48,000 rows)
const zipDistrictBatchSize = 1000

// ZipDistrictStore persists bulk-loaded ZIP-to-district records
type ZipDistrictStore interface {
	// BulkUpsertZipDistricts inserts a batch, skipping rows that
	// already exist, and reports how many were newly inserted
	BulkUpsertZipDistricts(ctx context.Context, records []domain.ZipDistrict) (int, error)
}

// ZipDistrictLoadResult summarizes a dataset load
type ZipDistrictLoadResult struct {
	Inserted int
	Skipped  int
	Errors   int
}

// ZipDistrictLoader downloads and ingests the ZIP-to-congressional-
// district dataset that seeds the resolver cache
type ZipDistrictLoader struct {
	httpClient adapter.HTTPClient
	store      ZipDistrictStore
	csvURL     string
}

// NewZipDistrictLoader creates a dataset loader
func NewZipDistrictLoader(httpClient adapter.HTTPClient, store ZipDistrictStore, csvURL string) *ZipDistrictLoader {
	return &ZipDistrictLoader{
		httpClient: httpClient,
		store:      store,
		csvURL:     csvURL,
	}
}

// Load downloads the dataset, parses it, and bulk upserts it in
// batches. A failed batch is counted and skipped rather than aborting
// the load.
func (l *ZipDistrictLoader) Load(ctx context.Context) (*ZipDistrictLoadResult, error) {
	logger.InfoCtx(ctx, "downloading ZIP district dataset", zap.String("url", l.csvURL))

	body, err := l.httpClient.GetRaw(ctx, l.csvURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download ZIP district dataset: %w", err)
	}

	records := ParseZipDistrictCSV(string(body))
	if len(records) == 0 {
		return nil, fmt.Errorf("ZIP district dataset contained no records")
	}

	if invalid := InvalidStateCodes(records); len(invalid) > 0 {
		logger.WarnCtx(ctx, "dataset contains unknown state codes", zap.Strings("state_codes", invalid))
	}

	result := &ZipDistrictLoadResult{}

	for start := 0; start < len(records); start += zipDistrictBatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + zipDistrictBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		inserted, err := l.store.BulkUpsertZipDistricts(ctx, batch)
		if err != nil {
			logger.ErrorCtx(ctx, errors.New("ZIP district batch upsert failed"),
				zap.Int("start", start), zap.Int("end", end), zap.Error(err))
			result.Errors += len(batch)
			continue
		}

		result.Inserted += inserted
		result.Skipped += len(batch) - inserted
	}

	logger.InfoCtx(ctx, "ZIP district dataset load complete",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))

	return result, nil
}

// ParseZipDistrictCSV parses the ZCCD dataset format:
// state_fips,state_abbr,zcta,cd per line after a header row. ZIP codes
// are padded to 5 digits and at-large districts normalized to "AL".
func ParseZipDistrictCSV(content string) []domain.ZipDistrict {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	records := make([]domain.ZipDistrict, 0, len(lines))

	// First line is the header
	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			logger.Warn("skipping malformed dataset line", zap.Int("line_number", i+1), zap.String("line", line))
			continue
		}

		zipCode := fields[2]
		// ZCTA values lose leading zeros in the source data
		for len(zipCode) < 5 {
			zipCode = "0" + zipCode
		}

		records = append(records, domain.ZipDistrict{
			ZipCode:        zipCode,
			StateCode:      strings.ToUpper(strings.TrimSpace(fields[1])),
			DistrictNumber: domain.NormalizeDistrict(fields[3]),
		})
	}

	return records
}

// InvalidStateCodes returns the distinct state codes in the records
// that are not known states or territories, sorted for stable logging
func InvalidStateCodes(records []domain.ZipDistrict) []string {
	known := make(map[string]bool)
	for _, code := range domain.StateCodes() {
		known[code] = true
	}

	seen := make(map[string]bool)
	var invalid []string
	for _, record := range records {
		if known[record.StateCode] || seen[record.StateCode] {
			continue
		}
		seen[record.StateCode] = true
		invalid = append(invalid, record.StateCode)
	}

	sort.Strings(invalid)
	return invalid
}
